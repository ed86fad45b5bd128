package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// Fixed-width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore handles persistence on SQLite through sqlx.
type SQLiteStore struct {
	sqliteQueries
	db *sqlx.DB
}

// NewSQLiteStore constructs a SQLiteStore over a handle from database.OpenSQLite.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{sqliteQueries: sqliteQueries{db: db}, db: db}
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

// WithinRoom runs fn in a transaction. The handle has a single connection, so
// the transaction holds the only writer until it ends.
func (s *SQLiteStore) WithinRoom(ctx context.Context, roomID uuid.UUID, fn func(q Queries) error) error {
	return s.within(ctx, `SELECT id FROM rooms WHERE id = ?`, roomID, fn)
}

// WithinEvent runs fn in a transaction, see WithinRoom.
func (s *SQLiteStore) WithinEvent(ctx context.Context, eventID uuid.UUID, fn func(q Queries) error) error {
	return s.within(ctx, `SELECT id FROM events WHERE id = ?`, eventID, fn)
}

func (s *SQLiteStore) within(ctx context.Context, existsSQL string, id uuid.UUID, fn func(q Queries) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var found string
	if err = tx.GetContext(ctx, &found, existsSQL, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup row: %w", err)
	}

	if err = fn(sqliteQueries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqliteQueries struct {
	db sqlx.ExtContext
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func execAffecting(ctx context.Context, db sqlx.ExtContext, what, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Rooms ────────────────────────────────────────────────────────────────────

type roomRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Capacity    int    `db:"capacity"`
	Active      bool   `db:"active"`
	CreatedAt   string `db:"created_at"`
}

func (r roomRow) toModel() (model.Room, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.Room{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Room{}, err
	}
	return model.Room{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		Active:      r.Active,
		CreatedAt:   created,
	}, nil
}

func (q sqliteQueries) CreateRoom(ctx context.Context, room *model.Room) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID.String(), room.Name, room.Description, room.Capacity, room.Active, formatTime(room.CreatedAt),
	)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (q sqliteQueries) UpdateRoom(ctx context.Context, room *model.Room) error {
	err := execAffecting(ctx, q.db, "update room",
		`UPDATE rooms SET name = ?, description = ?, capacity = ?, active = ? WHERE id = ?`,
		room.Name, room.Description, room.Capacity, room.Active, room.ID.String(),
	)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (q sqliteQueries) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	var row roomRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	r, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &r, nil
}

func (q sqliteQueries) ListRooms(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	var rows []roomRow
	if err := sqlx.SelectContext(ctx, q.db, &rows,
		`SELECT `+roomColumns+` FROM rooms WHERE active = 1 OR ? = 0 ORDER BY name ASC`, activeOnly,
	); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]model.Room, 0, len(rows))
	for _, row := range rows {
		r, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode room: %w", err)
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

type eventRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	StartAt     string `db:"start_at"`
	DurationNS  int64  `db:"duration_ns"`
	RoomID      string `db:"room_id"`
	OrganizerID string `db:"organizer_id"`
	Token       string `db:"token"`
	CreatedAt   string `db:"created_at"`
}

func (r eventRow) toModel() (model.Event, error) {
	var (
		e   model.Event
		err error
	)
	if e.ID, err = uuid.Parse(r.ID); err != nil {
		return e, err
	}
	if e.RoomID, err = uuid.Parse(r.RoomID); err != nil {
		return e, err
	}
	if e.OrganizerID, err = uuid.Parse(r.OrganizerID); err != nil {
		return e, err
	}
	if e.Start, err = parseTime(r.StartAt); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return e, err
	}
	e.Name = r.Name
	e.Description = r.Description
	e.Duration = time.Duration(r.DurationNS)
	e.Token = r.Token
	return e, nil
}

func (q sqliteQueries) CreateEvent(ctx context.Context, event *model.Event) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (token) DO NOTHING`,
		event.ID.String(), event.Name, event.Description, formatTime(event.Start), int64(event.Duration),
		event.RoomID.String(), event.OrganizerID.String(), event.Token, formatTime(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert event: %w", err)
	} else if n == 0 {
		return ErrDuplicateToken
	}
	return nil
}

func (q sqliteQueries) UpdateEvent(ctx context.Context, event *model.Event) error {
	return execAffecting(ctx, q.db, "update event",
		`UPDATE events SET name = ?, description = ?, start_at = ?, duration_ns = ? WHERE id = ?`,
		event.Name, event.Description, formatTime(event.Start), int64(event.Duration), event.ID.String(),
	)
}

func (q sqliteQueries) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return execAffecting(ctx, q.db, "delete event", `DELETE FROM events WHERE id = ?`, id.String())
}

func (q sqliteQueries) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return q.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id.String())
}

func (q sqliteQueries) GetEventByToken(ctx context.Context, token string) (*model.Event, error) {
	return q.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE token = ?`, token)
}

func (q sqliteQueries) getEvent(ctx context.Context, query string, arg any) (*model.Event, error) {
	var row eventRow
	if err := sqlx.GetContext(ctx, q.db, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	e, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

func (q sqliteQueries) ListEventsByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Event, error) {
	return q.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE room_id = ? ORDER BY start_at ASC`, roomID.String())
}

func (q sqliteQueries) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]model.Event, error) {
	return q.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY start_at ASC`, organizerID.String())
}

func (q sqliteQueries) ListEventsStartingAfter(ctx context.Context, t time.Time) ([]model.Event, error) {
	return q.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE start_at > ? ORDER BY start_at ASC`, formatTime(t))
}

func (q sqliteQueries) listEvents(ctx context.Context, query string, arg any) ([]model.Event, error) {
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

// ─── Registrations ────────────────────────────────────────────────────────────

type registrationRow struct {
	ID           string         `db:"id"`
	RegistrantID string         `db:"registrant_id"`
	EventID      string         `db:"event_id"`
	Status       string         `db:"status"`
	RegisteredAt string         `db:"registered_at"`
	ConfirmedAt  sql.NullString `db:"confirmed_at"`
}

func (r registrationRow) toModel() (model.Registration, error) {
	var (
		reg model.Registration
		err error
	)
	if reg.ID, err = uuid.Parse(r.ID); err != nil {
		return reg, err
	}
	if reg.RegistrantID, err = uuid.Parse(r.RegistrantID); err != nil {
		return reg, err
	}
	if reg.EventID, err = uuid.Parse(r.EventID); err != nil {
		return reg, err
	}
	if reg.Status, err = model.ParseStatus(r.Status); err != nil {
		return reg, err
	}
	if reg.RegisteredAt, err = parseTime(r.RegisteredAt); err != nil {
		return reg, err
	}
	if r.ConfirmedAt.Valid {
		t, err := parseTime(r.ConfirmedAt.String)
		if err != nil {
			return reg, err
		}
		reg.ConfirmedAt = &t
	}
	return reg, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func (q sqliteQueries) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (registrant_id, event_id) DO NOTHING`,
		reg.ID.String(), reg.RegistrantID.String(), reg.EventID.String(),
		reg.Status.String(), formatTime(reg.RegisteredAt), nullTime(reg.ConfirmedAt),
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	} else if n == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}

func (q sqliteQueries) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	return execAffecting(ctx, q.db, "update registration",
		`UPDATE registrations SET status = ?, confirmed_at = ? WHERE id = ?`,
		reg.Status.String(), nullTime(reg.ConfirmedAt), reg.ID.String(),
	)
}

func (q sqliteQueries) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	return execAffecting(ctx, q.db, "delete registration", `DELETE FROM registrations WHERE id = ?`, id.String())
}

func (q sqliteQueries) GetRegistration(ctx context.Context, registrantID, eventID uuid.UUID) (*model.Registration, error) {
	var row registrationRow
	if err := sqlx.GetContext(ctx, q.db, &row,
		`SELECT `+registrationColumns+` FROM registrations WHERE registrant_id = ? AND event_id = ?`,
		registrantID.String(), eventID.String(),
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	reg, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("decode registration: %w", err)
	}
	return &reg, nil
}

func (q sqliteQueries) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q.db, &n,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID.String(),
	); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (q sqliteQueries) ListRegistrationsByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	return q.listRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = ? ORDER BY registered_at ASC`, eventID.String())
}

func (q sqliteQueries) ListRegistrationsByRegistrant(ctx context.Context, registrantID uuid.UUID) ([]model.Registration, error) {
	return q.listRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE registrant_id = ? ORDER BY registered_at ASC`, registrantID.String())
}

func (q sqliteQueries) listRegistrations(ctx context.Context, query string, arg any) ([]model.Registration, error) {
	var rows []registrationRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	regs := make([]model.Registration, 0, len(rows))
	for _, row := range rows {
		reg, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, nil
}
