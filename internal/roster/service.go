package roster

import (
	"context"
	"fmt"
	"strings"
)

// Service validates input ahead of the store. All spec'd write paths go
// through here so the store only ever sees normalized values.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateGroup creates a named group.
func (s *Service) CreateGroup(ctx context.Context, name string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: name required", ErrInvalid)
	}
	return s.store.CreateGroup(ctx, name)
}

// ListGroups returns all groups.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.store.ListGroups(ctx)
}

// AddPerson creates a person inside the group named by the request path.
func (s *Service) AddPerson(ctx context.Context, groupID int64, fullName string) (Person, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return Person{}, fmt.Errorf("%w: full_name required", ErrInvalid)
	}
	return s.store.CreatePerson(ctx, groupID, fullName)
}

// AddEvent creates an event inside a group, normalizing starts_at from its
// ISO-8601-ish wire form before persisting.
func (s *Service) AddEvent(ctx context.Context, groupID int64, title, startsAt string) (Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Event{}, fmt.Errorf("%w: title required", ErrInvalid)
	}
	when, err := ParseStartsAt(startsAt)
	if err != nil {
		return Event{}, err
	}
	return s.store.CreateEvent(ctx, groupID, title, when)
}

// DeleteGroup cascades the group away.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	return s.store.DeleteGroup(ctx, id)
}

// DeletePerson cascades the person away.
func (s *Service) DeletePerson(ctx context.Context, id int64) error {
	return s.store.DeletePerson(ctx, id)
}

// DeleteEvent cascades the event away.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	return s.store.DeleteEvent(ctx, id)
}

// Mark records a PRESENT/ABSENT status for a person at an event and returns
// the recomputed absence count and flags.
func (s *Service) Mark(ctx context.Context, personID, eventID int64, rawStatus string) (MarkResult, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return MarkResult{}, err
	}
	if personID <= 0 || eventID <= 0 {
		return MarkResult{}, fmt.Errorf("%w: person_id and event_id required", ErrInvalid)
	}
	return s.store.MarkAttendance(ctx, personID, eventID, status)
}

// Summary returns the per-group attendance projection.
func (s *Service) Summary(ctx context.Context, groupID int64) ([]SummaryEntry, error) {
	return s.store.GroupSummary(ctx, groupID)
}
