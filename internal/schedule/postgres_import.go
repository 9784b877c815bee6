package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// ImportStats counts rows written by ImportSeed.
type ImportStats struct {
	Departments int `json:"departments"`
	Doctors     int `json:"doctors"`
	Schedules   int `json:"schedules"`
}

// ImportSeed writes a seed document into the schedule tables in a single
// transaction. Re-importing the same seed leaves the tables unchanged:
// departments and work schedules are upserted, doctors are matched on name
// and department, and a schedule row replaces the one for the same date,
// doctor and window.
func (s *PostgresStore) ImportSeed(ctx context.Context, seed Seed) (stats ImportStats, err error) {
	ctx, span := s.tracer.Start(ctx, "schedule.import_seed")
	defer span.End()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return stats, fmt.Errorf("schedule: begin import: %w", err)
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			_ = tx.Rollback(ctx)
		}
	}()

	im := importer{tx: tx, departments: map[string]int64{}, doctors: map[string]int64{}, windows: map[string]int64{}}

	for i, name := range seed.Departments {
		if _, err = im.department(ctx, name, i+1); err != nil {
			return stats, err
		}
		stats.Departments++
	}
	doctorDept := map[string]string{}
	for _, d := range seed.Doctors {
		if _, err = im.doctor(ctx, d); err != nil {
			return stats, err
		}
		doctorDept[d.Name] = d.Department
		stats.Doctors++
	}
	for i, sc := range seed.Schedules {
		dept := sc.Department
		if dept == "" {
			dept = doctorDept[sc.Doctor]
		}
		if err = im.schedule(ctx, sc, dept); err != nil {
			return stats, fmt.Errorf("schedule: seed schedule %d: %w", i, err)
		}
		stats.Schedules++
	}

	if err = tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("schedule: commit import: %w", err)
	}
	return stats, nil
}

type importer struct {
	tx          pgx.Tx
	departments map[string]int64
	doctors     map[string]int64
	windows     map[string]int64
}

// department upserts by name. sortOrder 0 keeps an existing order.
func (im *importer) department(ctx context.Context, name string, sortOrder int) (int64, error) {
	if id, ok := im.departments[name]; ok && sortOrder == 0 {
		return id, nil
	}
	var id int64
	err := im.tx.QueryRow(ctx, `
		INSERT INTO departments (name, sort_order) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET sort_order = CASE WHEN EXCLUDED.sort_order = 0 THEN departments.sort_order ELSE EXCLUDED.sort_order END
		RETURNING id`, name, sortOrder).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("schedule: upsert department %q: %w", name, err)
	}
	im.departments[name] = id
	return id, nil
}

func (im *importer) doctor(ctx context.Context, d SeedDoctor) (int64, error) {
	key := d.Department + "/" + d.Name
	if id, ok := im.doctors[key]; ok {
		return id, nil
	}
	deptID, err := im.department(ctx, d.Department, 0)
	if err != nil {
		return 0, err
	}

	var id int64
	err = im.tx.QueryRow(ctx, `SELECT id FROM doctors WHERE name = $1 AND department_id = $2 ORDER BY id LIMIT 1`,
		d.Name, deptID).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = im.tx.QueryRow(ctx, `
			INSERT INTO doctors (name, phone_number, department_id) VALUES ($1, NULLIF($2, ''), $3)
			RETURNING id`, d.Name, d.PhoneNumber, deptID).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("schedule: insert doctor %q: %w", d.Name, err)
		}
	case err != nil:
		return 0, fmt.Errorf("schedule: find doctor %q: %w", d.Name, err)
	default:
		if _, err := im.tx.Exec(ctx, `UPDATE doctors SET phone_number = NULLIF($2, '') WHERE id = $1`, id, d.PhoneNumber); err != nil {
			return 0, fmt.Errorf("schedule: update doctor %q: %w", d.Name, err)
		}
	}
	im.doctors[key] = id
	return id, nil
}

func (im *importer) window(ctx context.Context, w Window, description string) (int64, error) {
	start, end := clock(w.Start), clock(w.End)
	key := start + "|" + end + "|" + description
	if id, ok := im.windows[key]; ok {
		return id, nil
	}
	var id int64
	err := im.tx.QueryRow(ctx, `
		INSERT INTO work_schedules (start_time, end_time, description) VALUES ($1, $2, $3)
		ON CONFLICT (start_time, end_time, description) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`, start, end, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("schedule: upsert work schedule %s-%s: %w", start, end, err)
	}
	im.windows[key] = id
	return id, nil
}

func (im *importer) schedule(ctx context.Context, sc SeedSchedule, department string) error {
	if department == "" {
		return fmt.Errorf("doctor %q has no department", sc.Doctor)
	}
	date, err := time.Parse("2006-01-02", sc.Date)
	if err != nil {
		return err
	}
	w, err := ParseWindow(sc.StartTime, sc.EndTime)
	if err != nil {
		return err
	}
	doctorID, err := im.doctor(ctx, SeedDoctor{Name: sc.Doctor, Department: department})
	if err != nil {
		return err
	}
	windowID, err := im.window(ctx, w, sc.Description)
	if err != nil {
		return err
	}

	if _, err := im.tx.Exec(ctx, `DELETE FROM schedules WHERE date = $1 AND doctor_id = $2 AND work_schedule_id = $3`,
		date, doctorID, windowID); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}
	if _, err := im.tx.Exec(ctx, `
		INSERT INTO schedules (date, weekday, doctor_id, work_schedule_id, is_on_call, note)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
		date, koreanWeekdays[date.Weekday()], doctorID, windowID, sc.IsOnCall, sc.Note); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}
