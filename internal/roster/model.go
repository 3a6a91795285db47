package roster

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the store and service layers. Handlers translate these
// to HTTP statuses with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

// Status is a PRESENT/ABSENT attendance mark.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPresent:
		return StatusPresent, nil
	case StatusAbsent:
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("%w: status must be PRESENT|ABSENT", ErrInvalid)
}

// Group is the tenancy boundary: it owns persons and events.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Person is an individual tracked within one group. Warning and Suspended are
// derived from the absence count and never set by clients.
type Person struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	Warning   bool   `json:"warning"`
	Suspended bool   `json:"suspended"`
	GroupID   int64  `json:"group_id"`
}

// Event is a scheduled occurrence within one group.
type Event struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	GroupID  int64     `json:"group_id"`
}

// Attendance is the mark for one person at one event. (PersonID, EventID) is
// the identity; a second mark for the pair overwrites the first.
type Attendance struct {
	PersonID int64  `json:"person_id"`
	EventID  int64  `json:"event_id"`
	Status   Status `json:"status"`
}

// SummaryEntry is one row of the per-group attendance projection.
type SummaryEntry struct {
	PersonID int64  `json:"person_id"`
	Status   Status `json:"status"`
}

// MarkResult is returned after an attendance write: the recomputed absence
// count and the flags derived from it.
type MarkResult struct {
	Absences  int  `json:"absences"`
	Warning   bool `json:"warning"`
	Suspended bool `json:"suspended"`
}

// DeriveFlags maps a lifetime absence count to the warning/suspension flags:
// warning on 3 or 4 absences, suspended from 5 up.
func DeriveFlags(absences int) (warning, suspended bool) {
	return absences >= 3 && absences < 5, absences >= 5
}

const startsAtLayout = "2006-01-02T15:04:05"

// ParseStartsAt accepts an event timestamp as RFC3339 or a bare
// "YYYY-MM-DD HH:MM:SS" form; a space in place of the T separator and a
// trailing Z are both tolerated.
func ParseStartsAt(raw string) (time.Time, error) {
	s := strings.Replace(strings.TrimSpace(raw), " ", "T", 1)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(startsAtLayout, strings.TrimSuffix(s, "Z")); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse starts_at %q", ErrInvalid, raw)
}
