package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore handles persistence on PostgreSQL using pgx directly.
type PostgresStore struct {
	pgQueries
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore over an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgQueries: pgQueries{db: pool}, pool: pool}
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// WithinRoom locks the room row with SELECT ... FOR UPDATE for the duration of
// fn, so concurrent schedulers for the same room run one after another and
// each sees the other's committed events.
func (s *PostgresStore) WithinRoom(ctx context.Context, roomID uuid.UUID, fn func(q Queries) error) error {
	return s.withLock(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID, fn)
}

// WithinEvent locks the event row for the duration of fn. Registrations,
// cancellations and check-ins for one event are serialized on it.
func (s *PostgresStore) WithinEvent(ctx context.Context, eventID uuid.UUID, fn func(q Queries) error) error {
	return s.withLock(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID, fn)
}

func (s *PostgresStore) withLock(ctx context.Context, lockSQL string, id uuid.UUID, fn func(q Queries) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked uuid.UUID
	if err = tx.QueryRow(ctx, lockSQL, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock row: %w", err)
	}

	if err = fn(pgQueries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgQueries struct {
	db pgxQuerier
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ─── Rooms ────────────────────────────────────────────────────────────────────

const roomColumns = `id, name, description, capacity, active, created_at`

func (q pgQueries) CreateRoom(ctx context.Context, room *model.Room) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		room.ID, room.Name, room.Description, room.Capacity, room.Active, room.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (q pgQueries) UpdateRoom(ctx context.Context, room *model.Room) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE rooms SET name = $2, description = $3, capacity = $4, active = $5 WHERE id = $1`,
		room.ID, room.Name, room.Description, room.Capacity, room.Active,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q pgQueries) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	var r model.Room
	err := q.db.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id,
	).Scan(&r.ID, &r.Name, &r.Description, &r.Capacity, &r.Active, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

func (q pgQueries) ListRooms(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+roomColumns+` FROM rooms
		 WHERE active OR NOT $1
		 ORDER BY name ASC`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Capacity, &r.Active, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// ─── Events ───────────────────────────────────────────────────────────────────

const eventColumns = `id, name, description, start_at, duration_ns, room_id, organizer_id, token, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e  model.Event
		ns int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Start, &ns, &e.RoomID, &e.OrganizerID, &e.Token, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Duration = time.Duration(ns)
	return &e, nil
}

func (q pgQueries) CreateEvent(ctx context.Context, event *model.Event) error {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (token) DO NOTHING`,
		event.ID, event.Name, event.Description, event.Start, int64(event.Duration),
		event.RoomID, event.OrganizerID, event.Token, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateToken
	}
	return nil
}

func (q pgQueries) UpdateEvent(ctx context.Context, event *model.Event) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE events SET name = $2, description = $3, start_at = $4, duration_ns = $5 WHERE id = $1`,
		event.ID, event.Name, event.Description, event.Start, int64(event.Duration),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q pgQueries) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q pgQueries) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return q.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (q pgQueries) GetEventByToken(ctx context.Context, token string) (*model.Event, error) {
	return q.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE token = $1`, token)
}

func (q pgQueries) getEvent(ctx context.Context, query string, arg any) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (q pgQueries) ListEventsByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Event, error) {
	return q.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE room_id = $1 ORDER BY start_at ASC`, roomID)
}

func (q pgQueries) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]model.Event, error) {
	return q.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY start_at ASC`, organizerID)
}

func (q pgQueries) ListEventsStartingAfter(ctx context.Context, t time.Time) ([]model.Event, error) {
	return q.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE start_at > $1 ORDER BY start_at ASC`, t)
}

func (q pgQueries) listEvents(ctx context.Context, query string, arg any) ([]model.Event, error) {
	rows, err := q.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ─── Registrations ────────────────────────────────────────────────────────────

const registrationColumns = `id, registrant_id, event_id, status, registered_at, confirmed_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var (
		reg    model.Registration
		status string
	)
	if err := row.Scan(&reg.ID, &reg.RegistrantID, &reg.EventID, &status, &reg.RegisteredAt, &reg.ConfirmedAt); err != nil {
		return nil, err
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	reg.Status = st
	return &reg, nil
}

func (q pgQueries) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (registrant_id, event_id) DO NOTHING`,
		reg.ID, reg.RegistrantID, reg.EventID, reg.Status.String(), reg.RegisteredAt, reg.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}

func (q pgQueries) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE registrations SET status = $2, confirmed_at = $3 WHERE id = $1`,
		reg.ID, reg.Status.String(), reg.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q pgQueries) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q pgQueries) GetRegistration(ctx context.Context, registrantID, eventID uuid.UUID) (*model.Registration, error) {
	reg, err := scanRegistration(q.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE registrant_id = $1 AND event_id = $2`,
		registrantID, eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (q pgQueries) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (q pgQueries) ListRegistrationsByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	return q.listRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY registered_at ASC`, eventID)
}

func (q pgQueries) ListRegistrationsByRegistrant(ctx context.Context, registrantID uuid.UUID) ([]model.Registration, error) {
	return q.listRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE registrant_id = $1 ORDER BY registered_at ASC`, registrantID)
}

func (q pgQueries) listRegistrations(ctx context.Context, query string, arg any) ([]model.Registration, error) {
	rows, err := q.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}
