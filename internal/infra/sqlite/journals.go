package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloom-journal/bloom/internal/domain"
)

// ─── Journal Repository ─────────────────────────────────────────────────────

const journalColumns = `id, title, body, mood, images, archived, created_at`

// InsertJournal stores a new entry.
func (d *DB) InsertJournal(ctx context.Context, r domain.JournalRecord) error {
	images, err := encodeImages(r.Images)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO journals (`+journalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Body, nullableMood(r.Mood), images, r.Archived, toMillis(r.CreatedAt),
	)
	if err != nil {
		return err
	}
	d.feed.publish(topicJournals)
	return nil
}

// GetJournal retrieves one entry. Returns nil if not found.
func (d *DB) GetJournal(ctx context.Context, id string) (*domain.JournalRecord, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journals WHERE id = ?`, id)
	j, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJournals returns every entry, newest first.
func (d *DB) ListJournals(ctx context.Context) ([]domain.JournalRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journals ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	journals := make([]domain.JournalRecord, 0)
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, j)
	}
	return journals, rows.Err()
}

// UpdateJournal rewrites the mutable fields of an entry. CreatedAt is immutable.
func (d *DB) UpdateJournal(ctx context.Context, r domain.JournalRecord) error {
	images, err := encodeImages(r.Images)
	if err != nil {
		return err
	}
	result, err := d.db.ExecContext(ctx,
		`UPDATE journals SET title = ?, body = ?, mood = ?, images = ?, archived = ? WHERE id = ?`,
		r.Title, r.Body, nullableMood(r.Mood), images, r.Archived, r.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrJournalNotFound
	}
	d.feed.publish(topicJournals)
	return nil
}

// SetJournalArchived flips the archived flag of an entry.
func (d *DB) SetJournalArchived(ctx context.Context, id string, archived bool) error {
	result, err := d.db.ExecContext(ctx, `UPDATE journals SET archived = ? WHERE id = ?`, archived, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrJournalNotFound
	}
	d.feed.publish(topicJournals)
	return nil
}

// DeleteJournal removes an entry.
func (d *DB) DeleteJournal(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM journals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrJournalNotFound
	}
	d.feed.publish(topicJournals)
	return nil
}

func scanJournal(s scanner) (domain.JournalRecord, error) {
	var j domain.JournalRecord
	var mood sql.NullInt64
	var images string
	var createdAt int64
	if err := s.Scan(&j.ID, &j.Title, &j.Body, &mood, &images, &j.Archived, &createdAt); err != nil {
		return j, err
	}
	if mood.Valid {
		m := domain.Mood(mood.Int64)
		j.Mood = &m
	}
	if images != "" && images != "[]" {
		if err := json.Unmarshal([]byte(images), &j.Images); err != nil {
			return j, fmt.Errorf("decode images for %s: %w", j.ID, err)
		}
	}
	j.CreatedAt = fromMillis(createdAt)
	return j, nil
}

func encodeImages(images []string) (string, error) {
	if len(images) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

func nullableMood(m *domain.Mood) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}
