package googlesync

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/hotrph/calsync/internal/model"
)

// --- fakes ---

// fakeCalendarAPI is an in-memory provider: remote events live in a map
// keyed by calendar id then event id, and every call is recorded.
type fakeCalendarAPI struct {
	calendars []CalendarInfo
	events    map[string]map[string]*calendar.Event
	calls     []string

	failAuthOnce bool
	nextCalID    int
}

func newFakeCalendarAPI() *fakeCalendarAPI {
	return &fakeCalendarAPI{events: make(map[string]map[string]*calendar.Event)}
}

func (f *fakeCalendarAPI) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failAuthOnce {
		f.failAuthOnce = false
		return &googleapi.Error{Code: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return nil
}

func (f *fakeCalendarAPI) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	return f.calendars, nil
}

func (f *fakeCalendarAPI) CreateCalendar(ctx context.Context, summary, description, timezone string) (string, error) {
	if err := f.record("create-calendar"); err != nil {
		return "", err
	}
	f.nextCalID++
	id := fmt.Sprintf("cal-%d", f.nextCalID)
	f.calendars = append(f.calendars, CalendarInfo{ID: id, Summary: summary})
	f.events[id] = make(map[string]*calendar.Event)
	return id, nil
}

func (f *fakeCalendarAPI) PatchCalendarColors(ctx context.Context, calendarID, bg, fg string) error {
	return f.record("patch-colors")
}

func (f *fakeCalendarAPI) UpdateEvent(ctx context.Context, calendarID, eventID string, ev *calendar.Event) error {
	if err := f.record("update:" + eventID); err != nil {
		return err
	}
	remote, ok := f.events[calendarID][eventID]
	if !ok {
		return &googleapi.Error{Code: http.StatusNotFound, Message: "not found"}
	}
	*remote = *ev
	remote.Id = eventID
	return nil
}

func (f *fakeCalendarAPI) InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) error {
	if err := f.record("insert:" + ev.Id); err != nil {
		return err
	}
	if f.events[calendarID] == nil {
		f.events[calendarID] = make(map[string]*calendar.Event)
	}
	clone := *ev
	f.events[calendarID][ev.Id] = &clone
	return nil
}

func (f *fakeCalendarAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := f.record("delete:" + eventID); err != nil {
		return err
	}
	if _, ok := f.events[calendarID][eventID]; !ok {
		return &googleapi.Error{Code: http.StatusNotFound, Message: "not found"}
	}
	delete(f.events[calendarID], eventID)
	return nil
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	return f.err
}

func syncEvent(id string) *model.Event {
	start := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	return &model.Event{
		ID:        id,
		UID:       "event-" + id + "@hotrph.org",
		Title:     "Service",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Timezone:  "Africa/Lagos",
		Status:    model.EventStatusConfirmed,
	}
}

// --- tests ---

func TestEnsureCalendar_CreatesThenReuses(t *testing.T) {
	api := newFakeCalendarAPI()
	engine := NewEngine(api, nil, nil, nil)

	first, err := engine.EnsureCalendar(context.Background())
	if err != nil {
		t.Fatalf("EnsureCalendar returned error: %v", err)
	}
	if first == "" {
		t.Fatal("EnsureCalendar returned empty id")
	}

	// Repeating provisioning must reuse the same calendar, not create a
	// duplicate.
	second, err := engine.EnsureCalendar(context.Background())
	if err != nil {
		t.Fatalf("second EnsureCalendar returned error: %v", err)
	}
	if second != first {
		t.Errorf("second provisioning returned %q, want reuse of %q", second, first)
	}
	if len(api.calendars) != 1 {
		t.Errorf("expected 1 remote calendar, got %d", len(api.calendars))
	}
}

func TestEnsureCalendar_ReusesExistingByExactName(t *testing.T) {
	api := newFakeCalendarAPI()
	api.calendars = []CalendarInfo{
		{ID: "other", Summary: "Work"},
		{ID: "hotr-existing", Summary: "HOTR Port Harcourt"},
	}
	engine := NewEngine(api, nil, nil, nil)

	id, err := engine.EnsureCalendar(context.Background())
	if err != nil {
		t.Fatalf("EnsureCalendar returned error: %v", err)
	}
	if id != "hotr-existing" {
		t.Errorf("EnsureCalendar = %q, want reuse of hotr-existing", id)
	}
	for _, call := range api.calls {
		if call == "create-calendar" {
			t.Error("should not create a calendar when one with the exact name exists")
		}
	}
}

func TestUpsertEvent_UpdateThenCreateOnMissing(t *testing.T) {
	api := newFakeCalendarAPI()
	api.events["cal-1"] = make(map[string]*calendar.Event)
	engine := NewEngine(api, nil, nil, nil)

	ev := syncEvent("ev-1")
	if err := engine.UpsertEvent(context.Background(), "cal-1", ev); err != nil {
		t.Fatalf("UpsertEvent returned error: %v", err)
	}

	remoteID := RemoteEventID("ev-1")
	wantCalls := []string{"update:" + remoteID, "insert:" + remoteID}
	if len(api.calls) != 2 || api.calls[0] != wantCalls[0] || api.calls[1] != wantCalls[1] {
		t.Errorf("calls = %v, want update-then-insert %v", api.calls, wantCalls)
	}
	if len(api.events["cal-1"]) != 1 {
		t.Fatalf("expected exactly 1 remote event, got %d", len(api.events["cal-1"]))
	}
}

func TestUpsertEvent_Idempotent(t *testing.T) {
	api := newFakeCalendarAPI()
	api.events["cal-1"] = make(map[string]*calendar.Event)
	engine := NewEngine(api, nil, nil, nil)

	ev := syncEvent("ev-1")
	for i := 0; i < 2; i++ {
		if err := engine.UpsertEvent(context.Background(), "cal-1", ev); err != nil {
			t.Fatalf("UpsertEvent #%d returned error: %v", i+1, err)
		}
	}

	// Second listing: still exactly one remote event for the local id.
	if got := len(api.events["cal-1"]); got != 1 {
		t.Errorf("after two upserts got %d remote events, want 1", got)
	}
}

func TestUpsertEvent_CancelledStatusMapped(t *testing.T) {
	api := newFakeCalendarAPI()
	api.events["cal-1"] = make(map[string]*calendar.Event)
	engine := NewEngine(api, nil, nil, nil)

	ev := syncEvent("ev-1")
	ev.Status = model.EventStatusCancelled
	if err := engine.UpsertEvent(context.Background(), "cal-1", ev); err != nil {
		t.Fatalf("UpsertEvent returned error: %v", err)
	}

	remote := api.events["cal-1"][RemoteEventID("ev-1")]
	if remote.Status != "cancelled" {
		t.Errorf("remote status = %q, want cancelled", remote.Status)
	}
}

func TestDeleteEvent_ToleratesAlreadyGone(t *testing.T) {
	api := newFakeCalendarAPI()
	api.events["cal-1"] = make(map[string]*calendar.Event)
	engine := NewEngine(api, nil, nil, nil)

	if err := engine.DeleteEvent(context.Background(), "cal-1", "never-synced"); err != nil {
		t.Errorf("deleting a missing remote event should succeed, got: %v", err)
	}
}

func TestSyncAll_SyncsSequentiallyAndCounts(t *testing.T) {
	api := newFakeCalendarAPI()
	api.events["cal-1"] = make(map[string]*calendar.Event)
	engine := NewEngine(api, nil, nil, nil)

	events := []*model.Event{syncEvent("ev-1"), syncEvent("ev-2"), syncEvent("ev-3")}
	count, err := engine.SyncAll(context.Background(), "cal-1", events)
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if count != 3 {
		t.Errorf("SyncAll count = %d, want 3", count)
	}
	if got := len(api.events["cal-1"]); got != 3 {
		t.Errorf("remote calendar holds %d events, want 3", got)
	}
}

func TestWithAuthRetry_RefreshesOnceOnRejectedToken(t *testing.T) {
	api := newFakeCalendarAPI()
	api.events["cal-1"] = make(map[string]*calendar.Event)
	api.failAuthOnce = true
	refresher := &fakeRefresher{}
	engine := NewEngine(api, refresher, nil, nil)

	if err := engine.UpsertEvent(context.Background(), "cal-1", syncEvent("ev-1")); err != nil {
		t.Fatalf("UpsertEvent should recover after refresh, got: %v", err)
	}
	if refresher.calls != 1 {
		t.Errorf("refresher called %d times, want exactly 1", refresher.calls)
	}
	if got := len(api.events["cal-1"]); got != 1 {
		t.Errorf("remote calendar holds %d events, want 1", got)
	}
}

func TestWithAuthRetry_RefreshFailureIsHard(t *testing.T) {
	api := newFakeCalendarAPI()
	api.failAuthOnce = true
	refresher := &fakeRefresher{err: fmt.Errorf("consent revoked")}
	engine := NewEngine(api, refresher, nil, nil)

	_, err := engine.EnsureCalendar(context.Background())
	if err == nil {
		t.Fatal("expected hard failure when refresh fails")
	}
	if refresher.calls != 1 {
		t.Errorf("refresher called %d times, want exactly 1", refresher.calls)
	}
}
