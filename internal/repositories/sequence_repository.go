package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"resto_backend/internal/models"
)

// SequenceRepository hands out daily counters for document numbers.
type SequenceRepository interface {
	// NextCounter increments and returns the counter for (kind, date).
	// The upsert takes a row lock, so concurrent callers are serialized by the
	// store and never observe the same counter value.
	NextCounter(executor SQLExecutor, kind models.SequenceKind, date time.Time) (int64, error)
}

type sequenceRepository struct {
	db *sql.DB
}

// NewSequenceRepository creates a new instance of SequenceRepository.
func NewSequenceRepository(db *sql.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) NextCounter(executor SQLExecutor, kind models.SequenceKind, date time.Time) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO document_sequences (kind, seq_date, counter)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (kind, seq_date)
	          DO UPDATE SET counter = document_sequences.counter + 1
	          RETURNING counter`
	var counter int64
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if err := executor.QueryRow(query, kind, day).Scan(&counter); err != nil {
		return 0, fmt.Errorf("%w: advancing %s sequence for %s: %v", ErrDatabaseError, kind, day.Format("2006-01-02"), err)
	}
	return counter, nil
}
