package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// VerificationRepository provides PostgreSQL-backed verification history
// storage.
type VerificationRepository struct {
	pool *Pool
}

// NewVerificationRepository creates a new PostgreSQL verification repository.
func NewVerificationRepository(pool *Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

// Save inserts a verification row and returns its id.
func (r *VerificationRepository) Save(ctx context.Context, v *database.Verification) (int64, error) {
	verifiedAt := v.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now()
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO verifications (date_de_verification, resultat_photo, resultat_donnee,
		                           image_echec, document_id, ocr_result_id, lieu_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		verifiedAt,
		v.FaceResult,
		v.DataResult,
		v.FailureImageURL,
		nullInt(v.DocumentID),
		nullInt(v.OCRRecordID),
		nullInt(v.PlaceID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert verification: %w", err)
	}
	return id, nil
}

// Latest returns the most recent verifications within the filter window.
func (r *VerificationRepository) Latest(
	ctx context.Context, filter database.StatsFilter, limit int,
) ([]database.Verification, error) {
	query := `
		SELECT id, date_de_verification, resultat_photo, resultat_donnee,
		       image_echec, document_id, ocr_result_id, lieu_id
		FROM verifications
	`
	args := []any{}
	if from, to, ok := filter.Window(time.Now()); ok {
		query += " WHERE date_de_verification >= $1 AND date_de_verification < $2"
		args = append(args, from, to)
	}
	query += fmt.Sprintf(" ORDER BY date_de_verification DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var list []database.Verification
	for rows.Next() {
		var v database.Verification
		var documentID, ocrID, placeID sql.NullInt64
		if err := rows.Scan(
			&v.ID, &v.VerifiedAt, &v.FaceResult, &v.DataResult,
			&v.FailureImageURL, &documentID, &ocrID, &placeID,
		); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		if documentID.Valid {
			v.DocumentID = &documentID.Int64
		}
		if ocrID.Valid {
			v.OCRRecordID = &ocrID.Int64
		}
		if placeID.Valid {
			v.PlaceID = &placeID.Int64
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return list, nil
}

// Stats aggregates outcomes within the filter window.
func (r *VerificationRepository) Stats(
	ctx context.Context, filter database.StatsFilter,
) (*database.VerificationStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE resultat_donnee = $1),
		       COUNT(*) FILTER (WHERE resultat_donnee = $2),
		       COUNT(*) FILTER (WHERE resultat_donnee = $3)
		FROM verifications
	`
	args := []any{database.DataResultOK, database.DataResultFailed, database.DataResultExternal}
	if from, to, ok := filter.Window(time.Now()); ok {
		query += " WHERE date_de_verification >= $4 AND date_de_verification < $5"
		args = append(args, from, to)
	}

	stats := database.VerificationStats{Period: filter.Period}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Matched, &stats.Failed, &stats.External,
	)
	if err != nil {
		return nil, fmt.Errorf("query verification stats: %w", err)
	}
	return &stats, nil
}

// StatsByPlace returns per-place totals ordered by most recent activity.
func (r *VerificationRepository) StatsByPlace(
	ctx context.Context, filter database.StatsFilter, limit int,
) ([]database.PlaceStats, error) {
	query := `
		SELECT l.nom, COUNT(v.id)
		FROM verifications v
		JOIN lieux l ON l.id = v.lieu_id
	`
	args := []any{}
	if from, to, ok := filter.Window(time.Now()); ok {
		query += " WHERE v.date_de_verification >= $1 AND v.date_de_verification < $2"
		args = append(args, from, to)
	}
	query += fmt.Sprintf(`
		GROUP BY l.nom
		ORDER BY MAX(v.date_de_verification) DESC
		LIMIT $%d
	`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query place stats: %w", err)
	}
	defer rows.Close()

	var stats []database.PlaceStats
	for rows.Next() {
		var s database.PlaceStats
		if err := rows.Scan(&s.Place, &s.Total); err != nil {
			return nil, fmt.Errorf("scan place stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate place stats: %w", err)
	}
	return stats, nil
}

// Verify interface compliance.
var _ database.VerificationReader = (*VerificationRepository)(nil)
var _ database.VerificationWriter = (*VerificationRepository)(nil)
