package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// OCRRecordRepository provides PostgreSQL-backed storage of raw recognition
// results.
type OCRRecordRepository struct {
	pool *Pool
}

// NewOCRRecordRepository creates a new PostgreSQL OCR record repository.
func NewOCRRecordRepository(pool *Pool) *OCRRecordRepository {
	return &OCRRecordRepository{pool: pool}
}

// Save inserts an OCR record and returns its id.
func (r *OCRRecordRepository) Save(ctx context.Context, rec *database.OCRRecord) (int64, error) {
	fragments := rec.FragmentsJSON
	if fragments == "" {
		fragments = "[]"
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ocr_results (image_name, texte, confiance, fragments, document_id,
		                         nom_externe, prenom_externe, numero_externe)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		rec.ImageName,
		rec.Text,
		rec.Confidence,
		fragments,
		nullInt(rec.DocumentID),
		rec.ExternalSurname,
		rec.ExternalGivenName,
		rec.ExternalNumber,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert OCR record: %w", err)
	}
	return id, nil
}

// Get retrieves an OCR record by id. Returns nil when the record does not exist.
func (r *OCRRecordRepository) Get(ctx context.Context, id int64) (*database.OCRRecord, error) {
	var rec database.OCRRecord
	var documentID sql.NullInt64

	err := r.pool.QueryRow(ctx, `
		SELECT id, image_name, texte, confiance, fragments, document_id,
		       nom_externe, prenom_externe, numero_externe, created_at
		FROM ocr_results
		WHERE id = $1
	`, id).Scan(
		&rec.ID,
		&rec.ImageName,
		&rec.Text,
		&rec.Confidence,
		&rec.FragmentsJSON,
		&documentID,
		&rec.ExternalSurname,
		&rec.ExternalGivenName,
		&rec.ExternalNumber,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get OCR record: %w", err)
	}

	if documentID.Valid {
		rec.DocumentID = &documentID.Int64
	}
	return &rec, nil
}

// Verify interface compliance.
var _ database.OCRRecordWriter = (*OCRRecordRepository)(nil)
