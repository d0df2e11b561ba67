package repositories

import (
	"context"
	"database/sql"
	"time"
)

// Transcription — сохранённый результат транскрипции.
type Transcription struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Filename     string    `json:"filename"`
	OutputFormat string    `json:"output_format"`
	Transcript   string    `json:"transcript"`
	CreatedAt    time.Time `json:"created_at"`
}

type TranscriptionRepository struct {
	db *sql.DB
}

func NewTranscriptionRepository(db *sql.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

func (r *TranscriptionRepository) Save(ctx context.Context, t *Transcription) error {
	query := `
		INSERT INTO transcriptions (username, filename, output_format, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		t.Username,
		t.Filename,
		t.OutputFormat,
		t.Transcript,
		time.Now(),
	).Scan(&t.ID, &t.CreatedAt)
}

// ListByUsername возвращает последние limit записей пользователя.
func (r *TranscriptionRepository) ListByUsername(ctx context.Context, username string, limit int) ([]Transcription, error) {
	query := `
		SELECT id, username, filename, output_format, transcript, created_at
		FROM transcriptions
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Transcription
	for rows.Next() {
		var t Transcription
		if err := rows.Scan(&t.ID, &t.Username, &t.Filename, &t.OutputFormat, &t.Transcript, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
