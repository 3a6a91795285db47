package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rollcall/internal/roster"
)

// memStore is an in-memory roster.Store mirroring the relational semantics:
// composite-key upsert on marks, flag recomputation, cascade deletes.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	groups  map[int64]roster.Group
	persons map[int64]*roster.Person
	events  map[int64]roster.Event
	marks   map[[2]int64]roster.Status
}

func newMemStore() *memStore {
	return &memStore{
		groups:  make(map[int64]roster.Group),
		persons: make(map[int64]*roster.Person),
		events:  make(map[int64]roster.Event),
		marks:   make(map[[2]int64]roster.Status),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateGroup(ctx context.Context, name string) (roster.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := roster.Group{ID: m.id(), Name: name}
	m.groups[g.ID] = g
	return g, nil
}

func (m *memStore) ListGroups(ctx context.Context) ([]roster.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []roster.Group
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreatePerson(ctx context.Context, groupID int64, fullName string) (roster.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[groupID]; !ok {
		return roster.Person{}, fmt.Errorf("group %d: %w", groupID, roster.ErrNotFound)
	}
	p := roster.Person{ID: m.id(), FullName: fullName, GroupID: groupID}
	m.persons[p.ID] = &p
	return p, nil
}

func (m *memStore) CreateEvent(ctx context.Context, groupID int64, title string, startsAt time.Time) (roster.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[groupID]; !ok {
		return roster.Event{}, fmt.Errorf("group %d: %w", groupID, roster.ErrNotFound)
	}
	e := roster.Event{ID: m.id(), Title: title, StartsAt: startsAt, GroupID: groupID}
	m.events[e.ID] = e
	return e, nil
}

func (m *memStore) DeleteGroup(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return fmt.Errorf("group %d: %w", id, roster.ErrNotFound)
	}
	for eid, e := range m.events {
		if e.GroupID != id {
			continue
		}
		for key := range m.marks {
			if key[1] == eid {
				delete(m.marks, key)
			}
		}
		delete(m.events, eid)
	}
	for pid, p := range m.persons {
		if p.GroupID != id {
			continue
		}
		for key := range m.marks {
			if key[0] == pid {
				delete(m.marks, key)
			}
		}
		delete(m.persons, pid)
	}
	delete(m.groups, id)
	return nil
}

func (m *memStore) DeletePerson(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.persons[id]; !ok {
		return fmt.Errorf("person %d: %w", id, roster.ErrNotFound)
	}
	for key := range m.marks {
		if key[0] == id {
			delete(m.marks, key)
		}
	}
	delete(m.persons, id)
	return nil
}

func (m *memStore) DeleteEvent(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return fmt.Errorf("event %d: %w", id, roster.ErrNotFound)
	}
	for key := range m.marks {
		if key[1] == id {
			delete(m.marks, key)
		}
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) MarkAttendance(ctx context.Context, personID, eventID int64, status roster.Status) (roster.MarkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	person, ok := m.persons[personID]
	if !ok {
		return roster.MarkResult{}, fmt.Errorf("person %d: %w", personID, roster.ErrNotFound)
	}
	if _, ok := m.events[eventID]; !ok {
		return roster.MarkResult{}, fmt.Errorf("event %d: %w", eventID, roster.ErrNotFound)
	}
	m.marks[[2]int64{personID, eventID}] = status

	var res roster.MarkResult
	for key, st := range m.marks {
		if key[0] == personID && st == roster.StatusAbsent {
			res.Absences++
		}
	}
	res.Warning, res.Suspended = roster.DeriveFlags(res.Absences)
	person.Warning, person.Suspended = res.Warning, res.Suspended
	return res, nil
}

func (m *memStore) GroupSummary(ctx context.Context, groupID int64) ([]roster.SummaryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []roster.SummaryEntry{}
	for key, st := range m.marks {
		if e, ok := m.events[key[1]]; ok && e.GroupID == groupID {
			entries = append(entries, roster.SummaryEntry{PersonID: key[0], Status: st})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PersonID < entries[j].PersonID })
	return entries, nil
}

func (m *memStore) markCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marks)
}

func (m *memStore) groupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groups)
}
