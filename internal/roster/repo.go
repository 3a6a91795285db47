package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store is the persistence contract for the roster domain. The Postgres
// Repository implements it; tests substitute an in-memory fake.
type Store interface {
	CreateGroup(ctx context.Context, name string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	CreatePerson(ctx context.Context, groupID int64, fullName string) (Person, error)
	CreateEvent(ctx context.Context, groupID int64, title string, startsAt time.Time) (Event, error)
	DeleteGroup(ctx context.Context, id int64) error
	DeletePerson(ctx context.Context, id int64) error
	DeleteEvent(ctx context.Context, id int64) error
	MarkAttendance(ctx context.Context, personID, eventID int64, status Status) (MarkResult, error)
	GroupSummary(ctx context.Context, groupID int64) ([]SummaryEntry, error)
}

// Repository persists the roster in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateGroup inserts a group and returns it with its assigned id.
func (r *Repository) CreateGroup(ctx context.Context, name string) (Group, error) {
	g := Group{Name: name}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO groups (name) VALUES ($1) RETURNING id
	`, name).Scan(&g.ID)
	if err != nil {
		return Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// ListGroups returns all groups ordered by id.
func (r *Repository) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreatePerson inserts a person into a group. Flags start false.
func (r *Repository) CreatePerson(ctx context.Context, groupID int64, fullName string) (Person, error) {
	p := Person{FullName: fullName, GroupID: groupID}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO persons (full_name, group_id) VALUES ($1, $2) RETURNING id
	`, fullName, groupID).Scan(&p.ID)
	if err != nil {
		return Person{}, fmt.Errorf("create person: %w", mapFKViolation(err))
	}
	return p, nil
}

// CreateEvent inserts an event into a group.
func (r *Repository) CreateEvent(ctx context.Context, groupID int64, title string, startsAt time.Time) (Event, error) {
	e := Event{Title: title, StartsAt: startsAt, GroupID: groupID}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO events (title, starts_at, group_id) VALUES ($1, $2, $3) RETURNING id
	`, title, startsAt, groupID).Scan(&e.ID)
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", mapFKViolation(err))
	}
	return e, nil
}

// DeleteGroup removes a group together with its events, its persons, and
// every attendance row referencing either. One transaction; if the group row
// itself is missing the whole call rolls back with ErrNotFound.
func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		steps := []string{
			`DELETE FROM attendance WHERE event_id IN (SELECT id FROM events WHERE group_id = $1)`,
			`DELETE FROM attendance WHERE person_id IN (SELECT id FROM persons WHERE group_id = $1)`,
			`DELETE FROM events WHERE group_id = $1`,
			`DELETE FROM persons WHERE group_id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("cascade group delete: %w", err)
			}
		}
		return deleteOne(ctx, tx, `DELETE FROM groups WHERE id = $1`, id, "group")
	})
}

// DeletePerson removes a person and their attendance rows.
func (r *Repository) DeletePerson(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE person_id = $1`, id); err != nil {
			return fmt.Errorf("cascade person delete: %w", err)
		}
		return deleteOne(ctx, tx, `DELETE FROM persons WHERE id = $1`, id, "person")
	})
}

// DeleteEvent removes an event and its attendance rows.
func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE event_id = $1`, id); err != nil {
			return fmt.Errorf("cascade event delete: %w", err)
		}
		return deleteOne(ctx, tx, `DELETE FROM events WHERE id = $1`, id, "event")
	})
}

// MarkAttendance upserts the (person, event) mark, recounts the person's
// absences and persists the derived flags, all in one transaction so readers
// never see a status without its matching flags.
func (r *Repository) MarkAttendance(ctx context.Context, personID, eventID int64, status Status) (MarkResult, error) {
	var res MarkResult
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (person_id, event_id, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (person_id, event_id) DO UPDATE SET status = EXCLUDED.status
		`, personID, eventID, status)
		if err != nil {
			return fmt.Errorf("upsert attendance: %w", mapFKViolation(err))
		}

		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM attendance WHERE person_id = $1 AND status = $2
		`, personID, StatusAbsent).Scan(&res.Absences)
		if err != nil {
			return fmt.Errorf("count absences: %w", err)
		}

		res.Warning, res.Suspended = DeriveFlags(res.Absences)
		out, err := tx.ExecContext(ctx, `
			UPDATE persons SET warning = $2, suspended = $3 WHERE id = $1
		`, personID, res.Warning, res.Suspended)
		if err != nil {
			return fmt.Errorf("update flags: %w", err)
		}
		if n, err := out.RowsAffected(); err != nil {
			return fmt.Errorf("update flags: %w", err)
		} else if n == 0 {
			return fmt.Errorf("person %d: %w", personID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return MarkResult{}, err
	}
	return res, nil
}

// GroupSummary projects every attendance row for events of the group to
// (person_id, status). Unknown or empty groups yield an empty slice.
func (r *Repository) GroupSummary(ctx context.Context, groupID int64) ([]SummaryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.person_id, a.status
		FROM attendance a
		JOIN events e ON e.id = a.event_id
		WHERE e.group_id = $1
		ORDER BY a.event_id, a.person_id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("group summary: %w", err)
	}
	defer rows.Close()
	entries := []SummaryEntry{}
	for rows.Next() {
		var e SummaryEntry
		if err := rows.Scan(&e.PersonID, &e.Status); err != nil {
			return nil, fmt.Errorf("group summary: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// deleteOne runs a single-row delete and fails with ErrNotFound unless
// exactly one row went away.
func deleteOne(ctx context.Context, tx *sql.Tx, query string, id int64, entity string) error {
	out, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

// mapFKViolation turns a Postgres foreign-key violation into ErrNotFound:
// the referenced parent does not exist.
func mapFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	return err
}
