package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore reads the duty schedule tables.
type PostgresStore struct {
	db     querier
	tracer trace.Tracer
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return newPostgresStoreWithQuerier(pool)
}

func newPostgresStoreWithQuerier(db querier) *PostgresStore {
	if db == nil {
		panic("schedule: querier required")
	}
	return &PostgresStore{db: db, tracer: otel.Tracer("oncall.internal.schedule.postgres")}
}

const assignmentsQuery = `
	SELECT s.date, d.name, ws.start_time, ws.end_time, COALESCE(ws.description, ''),
	       doc.name, COALESCE(doc.phone_number, ''), s.is_on_call, COALESCE(s.note, '')
	FROM schedules s
	JOIN doctors doc ON doc.id = s.doctor_id
	JOIN departments d ON d.id = doc.department_id
	JOIN work_schedules ws ON ws.id = s.work_schedule_id
	WHERE s.date = $1 AND d.name = $2
	ORDER BY ws.start_time, ws.end_time
`

func (s *PostgresStore) FindAssignments(ctx context.Context, date time.Time, department string) ([]Assignment, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.find_assignments")
	defer span.End()

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.db.Query(ctx, assignmentsQuery, day, department)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: query assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var (
			a          Assignment
			scanned    time.Time
			start, end string
		)
		if err := rows.Scan(&scanned, &a.Department, &start, &end, &a.Description, &a.DoctorName, &a.DoctorPhone, &a.OnCall, &a.Note); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("schedule: scan assignment: %w", err)
		}
		w, err := ParseWindow(start, end)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		a.Window = w
		a.Date = time.Date(scanned.Year(), scanned.Month(), scanned.Day(), 0, 0, 0, 0, date.Location())
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: iterate assignments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindDoctor(ctx context.Context, name string) (*Doctor, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.find_doctor")
	defer span.End()

	query := `
		SELECT doc.name, COALESCE(doc.phone_number, ''), d.name
		FROM doctors doc
		JOIN departments d ON d.id = doc.department_id
		WHERE doc.name = $1
		ORDER BY doc.id
		LIMIT 1
	`
	var doc Doctor
	if err := s.db.QueryRow(ctx, query, name).Scan(&doc.Name, &doc.Phone, &doc.Department); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: find doctor: %w", err)
	}
	return &doc, nil
}

func (s *PostgresStore) ListDepartments(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.list_departments")
	defer span.End()

	rows, err := s.db.Query(ctx, `SELECT name FROM departments ORDER BY sort_order, id`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: list departments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("schedule: scan department: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate departments: %w", err)
	}
	return out, nil
}
