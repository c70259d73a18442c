package services

import (
	"fmt"
	"time"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"
)

// SequenceService produces collision-free, date-prefixed document numbers,
// e.g. ORD-20260115-0042. Counters reset daily per kind.
type SequenceService interface {
	// Next returns the next number for the kind. When executor is a
	// transaction the counter advance commits or rolls back with the caller.
	Next(executor repositories.SQLExecutor, kind models.SequenceKind, at time.Time) (string, error)
}

type sequenceService struct {
	sequenceRepo repositories.SequenceRepository
}

// NewSequenceService creates a new instance of SequenceService.
func NewSequenceService(sr repositories.SequenceRepository) SequenceService {
	return &sequenceService{sequenceRepo: sr}
}

func (s *sequenceService) Next(executor repositories.SQLExecutor, kind models.SequenceKind, at time.Time) (string, error) {
	if !models.IsValidSequenceKind(string(kind)) {
		return "", fmt.Errorf("%w: unknown sequence kind %q", ErrValidation, kind)
	}
	counter, err := s.sequenceRepo.NextCounter(executor, kind, at)
	if err != nil {
		return "", fmt.Errorf("advancing %s sequence: %w", kind, err)
	}
	return FormatDocumentNumber(kind, at, counter), nil
}

// FormatDocumentNumber renders <PREFIX>-<yyyyMMdd>-<zero-padded counter>.
// The counter is padded to four digits; higher values render unpadded.
func FormatDocumentNumber(kind models.SequenceKind, at time.Time, counter int64) string {
	return fmt.Sprintf("%s-%s-%04d", models.SequencePrefix[kind], at.Format("20060102"), counter)
}
