package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/cadence.report/internal/performance"
	"github.com/banshee-data/cadence.report/internal/session"
)

// ErrSessionNotFound is returned when no session matches the requested ID.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `session_id, start_unix_nanos, end_unix_nanos, duration_s,
	total_distance_m, calories_kcal, steps_count, max_speed_mps, frame_count,
	avg_speed_mps, avg_stride_m, avg_cadence_spm, avg_oscillation_m,
	avg_arm_movement, avg_leg_movement, performance_json`

// RecordSession stores a summary and its per-frame metrics in one
// transaction. Recording the same session ID twice replaces the earlier row.
func (db *DB) RecordSession(ctx context.Context, s session.Summary, metrics []session.FrameMetrics) error {
	if s.ID == "" {
		return errors.New("session summary has no id")
	}
	var perf sql.NullString
	if s.Performance != nil {
		b, err := json.Marshal(s.Performance)
		if err != nil {
			return fmt.Errorf("failed to encode performance scores: %w", err)
		}
		perf = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_metrics WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("failed to clear metrics for %s: %w", s.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", s.ID, err)
	}
	a := s.AverageMetrics
	_, err = tx.ExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.StartTime.UnixNano(), s.EndTime.UnixNano(), s.DurationSeconds,
		s.TotalDistance, s.CaloriesBurned, s.StepsCount, s.MaxSpeed, s.FrameCount,
		a.Speed, a.StrideLength, a.Cadence, a.VerticalOscillation,
		a.ArmMovement, a.LegMovement, perf,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", s.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO session_metrics (
		session_id, seq, ts_unix_nanos, speed_mps, stride_m, cadence_spm,
		oscillation_m, arm_movement, leg_movement
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare metrics insert: %w", err)
	}
	defer stmt.Close()
	for i, m := range metrics {
		if _, err := stmt.ExecContext(ctx, s.ID, i, m.Timestamp.UnixNano(),
			m.Speed, m.StrideLength, m.Cadence, m.VerticalOscillation,
			m.ArmMovement, m.LegMovement); err != nil {
			return fmt.Errorf("failed to insert metrics row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session %s: %w", s.ID, err)
	}
	return nil
}

// GetSession returns the stored summary for id.
func (db *DB) GetSession(ctx context.Context, id string) (session.Summary, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Summary{}, ErrSessionNotFound
	}
	return s, err
}

// RecentSessions returns up to limit summaries, newest first.
func (db *DB) RecentSessions(ctx context.Context, limit int) ([]session.Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions
		ORDER BY start_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SessionMetrics returns the stored per-frame metrics for id in frame order.
func (db *DB) SessionMetrics(ctx context.Context, id string) ([]session.FrameMetrics, error) {
	rows, err := db.QueryContext(ctx, `SELECT ts_unix_nanos, speed_mps, stride_m,
		cadence_spm, oscillation_m, arm_movement, leg_movement
		FROM session_metrics WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []session.FrameMetrics
	for rows.Next() {
		var (
			m  session.FrameMetrics
			ts int64
		)
		if err := rows.Scan(&ts, &m.Speed, &m.StrideLength, &m.Cadence,
			&m.VerticalOscillation, &m.ArmMovement, &m.LegMovement); err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		m.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, by cascade, its metrics.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (session.Summary, error) {
	var (
		s          session.Summary
		start, end int64
		perf       sql.NullString
	)
	a := &s.AverageMetrics
	if err := sc.Scan(&s.ID, &start, &end, &s.DurationSeconds,
		&s.TotalDistance, &s.CaloriesBurned, &s.StepsCount, &s.MaxSpeed, &s.FrameCount,
		&a.Speed, &a.StrideLength, &a.Cadence, &a.VerticalOscillation,
		&a.ArmMovement, &a.LegMovement, &perf); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan session: %w", err)
	}
	s.StartTime = time.Unix(0, start).UTC()
	s.EndTime = time.Unix(0, end).UTC()
	if perf.Valid && perf.String != "" {
		var p performance.Scores
		if err := json.Unmarshal([]byte(perf.String), &p); err != nil {
			return s, fmt.Errorf("failed to decode performance scores: %w", err)
		}
		s.Performance = &p
	}
	return s, nil
}
