package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bloom-journal/bloom/internal/domain"
)

// ─── Mood Repository ────────────────────────────────────────────────────────

const moodColumns = `id, mood, intensity, prompt, answer, created_at`

// InsertMood stores a new check-in.
func (d *DB) InsertMood(ctx context.Context, r domain.MoodRecord) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO moods (`+moodColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, int(r.Mood), r.Intensity, r.Prompt, r.Answer, toMillis(r.CreatedAt),
	)
	if err != nil {
		return err
	}
	d.feed.publish(topicMoods)
	return nil
}

// ListMoods returns every check-in, newest first.
func (d *DB) ListMoods(ctx context.Context) ([]domain.MoodRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+moodColumns+` FROM moods ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	return collectMoods(rows)
}

// ListMoodsInRange returns check-ins with start <= created_at < end, newest first.
func (d *DB) ListMoodsInRange(ctx context.Context, start, end time.Time) ([]domain.MoodRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+moodColumns+` FROM moods
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at DESC, id DESC`,
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	return collectMoods(rows)
}

// ClearMoods deletes every check-in.
func (d *DB) ClearMoods(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM moods`); err != nil {
		return err
	}
	d.feed.publish(topicMoods)
	return nil
}

func collectMoods(rows *sql.Rows) ([]domain.MoodRecord, error) {
	defer rows.Close()

	moods := make([]domain.MoodRecord, 0)
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

func scanMood(s scanner) (domain.MoodRecord, error) {
	var r domain.MoodRecord
	var mood int
	var createdAt int64
	if err := s.Scan(&r.ID, &mood, &r.Intensity, &r.Prompt, &r.Answer, &createdAt); err != nil {
		return r, err
	}
	r.Mood = domain.Mood(mood)
	r.CreatedAt = fromMillis(createdAt)
	return r, nil
}
