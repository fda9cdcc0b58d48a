package hours

import "time"

// Entry is one locally captured work-hour record submitted for
// synchronization. Date uses DD-MM-YYYY, start/end use HH:MM; start and end
// may be empty when the capturing UI only collected an hour count.
type Entry struct {
	Date    string  `json:"date"`
	Start   string  `json:"start,omitempty"`
	End     string  `json:"end,omitempty"`
	Hours   float64 `json:"hours"`
	Project string  `json:"project,omitempty"`
	Notes   string  `json:"notes,omitempty"`
}

// SavedEntry is an Entry persisted in the local append-only hours log.
type SavedEntry struct {
	ID      int64     `json:"id"`
	Entry   Entry     `json:"entry"`
	SavedAt time.Time `json:"savedAt"`
}
