package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/scope"
)

// Repository loads record collections from Postgres. It is strictly
// read-only: the schema is owned by the provisioning system.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Campuses returns every campus, active or not; the directory decides
// visibility.
func (r *Repository) Campuses(ctx context.Context) ([]campus.Campus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, code, is_active
		FROM campus
		ORDER BY id`)
	if err != nil {
		return nil, queryErr("campuses", err)
	}
	defer rows.Close()

	var out []campus.Campus
	for rows.Next() {
		var c campus.Campus
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Active); err != nil {
			return nil, queryErr("campuses", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Events loads events, optionally bounded by date. Bounds are inclusive;
// zero bounds are open.
func (r *Repository) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, campus_id, organizer_id, title, event_type, date,
		       COALESCE(max_participants, 0), status, is_multi_campus,
		       COALESCE(allowed_campuses, '{}')
		FROM events
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY date, start_time`,
		nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, queryErr("events", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev  Event
			id  string
			typ string
			st  string
		)
		if err := rows.Scan(&id, &ev.CampusID, &ev.OrganizerID, &ev.Title, &typ, &ev.Date,
			&ev.Capacity, &st, &ev.IsMultiCampus, &ev.AllowedCampuses); err != nil {
			return nil, queryErr("events", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("reporting: event id %q: %w", id, err)
		}
		ev.ID = parsed
		ev.Type = EventType(typ)
		ev.Status = EventStatus(st)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Attendance loads attendance records, optionally bounded by check-in time.
func (r *Repository) Attendance(ctx context.Context, from, to time.Time) ([]AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id::text, user_id, campus_id, status, marked_at,
		       cross_campus_attendance,
		       COALESCE(selfie_image, ''), COALESCE(signature_image, ''), is_verified
		FROM attendance
		WHERE ($1::timestamptz IS NULL OR marked_at >= $1)
		  AND ($2::timestamptz IS NULL OR marked_at <= $2)
		ORDER BY marked_at`,
		nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, queryErr("attendance", err)
	}
	defer rows.Close()

	var out []AttendanceRecord
	for rows.Next() {
		var (
			a       AttendanceRecord
			eventID string
			st      string
		)
		if err := rows.Scan(&a.ID, &eventID, &a.UserID, &a.CampusID, &st, &a.MarkedAt,
			&a.CrossCampus, &a.SelfieRef, &a.SignatureRef, &a.Verified); err != nil {
			return nil, queryErr("attendance", err)
		}
		parsed, err := uuid.Parse(eventID)
		if err != nil {
			return nil, fmt.Errorf("reporting: attendance event id %q: %w", eventID, err)
		}
		a.EventID = parsed
		a.Status = AttendanceStatus(st)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Users loads user records.
func (r *Repository) Users(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, campus_id, role,
		       TRIM(first_name || ' ' || last_name), student_id,
		       COALESCE(department, ''), is_active
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, queryErr("users", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			u    User
			role string
		)
		if err := rows.Scan(&u.ID, &u.CampusID, &role, &u.Name, &u.StudentID, &u.Department, &u.Active); err != nil {
			return nil, queryErr("users", err)
		}
		u.Role = scope.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func queryErr(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("reporting: query %s: %s (%s)", entity, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("reporting: query %s: %w", entity, err)
}
