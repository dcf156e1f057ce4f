package pagination

import (
	"encoding/base64"
	"encoding/json"
)

// cursorPayload is the reversible serialization inside an opaque cursor:
// base64 of a small JSON object holding the last-seen ID.
type cursorPayload struct {
	ID int `json:"id"`
}

// EncodeCursor produces the opaque cursor for a last-seen record ID.
func EncodeCursor(id int) string {
	data, _ := json.Marshal(cursorPayload{ID: id})
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor recovers the last-seen ID from a cursor. Absent or malformed
// input (bad base64, bad JSON) reports ok=false; callers treat that as "no
// cursor" and start from the first page. Decoding is total: it never panics
// and leaves no partial state.
func DecodeCursor(cursor string) (id int, ok bool) {
	if cursor == "" {
		return 0, false
	}
	data, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, false
	}
	var payload cursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, false
	}
	return payload.ID, true
}
