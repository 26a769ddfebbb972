// Package model defines the domain model.
package model

import "time"

// Calendar is a published event calendar that subscribers can follow.
type Calendar struct {
	ID          string
	Name        string
	Slug        string
	Description string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
