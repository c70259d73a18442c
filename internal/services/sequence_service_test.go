package services

import (
	"testing"
	"time"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	day := time.Date(2026, time.January, 15, 13, 45, 0, 0, time.UTC)

	assert.Equal(t, "ORD-20260115-0001", FormatDocumentNumber(models.SequenceKindOrder, day, 1))
	assert.Equal(t, "FACT-20260115-0042", FormatDocumentNumber(models.SequenceKindInvoice, day, 42))
	assert.Equal(t, "ORD-20260115-9999", FormatDocumentNumber(models.SequenceKindOrder, day, 9999))
	// Counters past four digits widen instead of wrapping.
	assert.Equal(t, "ORD-20260115-12345", FormatDocumentNumber(models.SequenceKindOrder, day, 12345))
}

func TestSequenceServiceNext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewSequenceService(repositories.NewSequenceRepository(db))
	day := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO document_sequences").
		WillReturnRows(sqlmock.NewRows([]string{"counter"}).AddRow(7))

	number, err := svc.Next(db, models.SequenceKindInvoice, day)
	require.NoError(t, err)
	assert.Equal(t, "FACT-20260302-0007", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceServiceNextUnknownKind(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewSequenceService(repositories.NewSequenceRepository(db))
	_, err = svc.Next(db, models.SequenceKind("receipt"), time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}
