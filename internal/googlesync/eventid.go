package googlesync

import "encoding/hex"

// Google constrains event ids to the base32hex alphabet (lowercase a-v
// and digits) with a minimum length of 5.
const minRemoteIDLength = 5

// RemoteEventID derives the Google Calendar event id for a local event
// id. The mapping is a pure function: byte-wise lowercase hex encoding,
// right-padded with '0' up to the minimum length. Hex output (0-9, a-f)
// sits inside the allowed alphabet, distinct inputs never collide, and
// no remote lookup is needed to recompute it.
func RemoteEventID(localID string) string {
	id := hex.EncodeToString([]byte(localID))
	for len(id) < minRemoteIDLength {
		id += "0"
	}
	return id
}
