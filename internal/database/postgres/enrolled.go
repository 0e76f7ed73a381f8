package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/pgvector/pgvector-go"
)

// EnrolledFaceRepository provides PostgreSQL-backed enrolled embedding storage
// using the pgvector extension.
type EnrolledFaceRepository struct {
	pool *Pool
}

// NewEnrolledFaceRepository creates a new PostgreSQL enrolled face repository.
func NewEnrolledFaceRepository(pool *Pool) *EnrolledFaceRepository {
	return &EnrolledFaceRepository{pool: pool}
}

// List returns all enrolled faces ordered by label.
func (r *EnrolledFaceRepository) List(ctx context.Context) ([]database.EnrolledFace, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, embedding, model, dim, created_at
		FROM enrolled_faces
		ORDER BY label
	`)
	if err != nil {
		return nil, fmt.Errorf("query enrolled faces: %w", err)
	}
	defer rows.Close()

	return scanEnrolledFaces(rows)
}

// Count returns the number of enrolled identities.
func (r *EnrolledFaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM enrolled_faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrolled faces: %w", err)
	}
	return count, nil
}

// Save stores an embedding for a label, replacing any existing one.
func (r *EnrolledFaceRepository) Save(ctx context.Context, face database.EnrolledFace) error {
	vec := pgvector.NewVector(face.Embedding)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO enrolled_faces (label, embedding, model, dim)
		VALUES ($1, $2::vector, $3, $4)
		ON CONFLICT (label) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			dim = EXCLUDED.dim,
			created_at = NOW()
	`, face.Label, vec, face.Model, face.Dim)
	if err != nil {
		return fmt.Errorf("save enrolled face: %w", err)
	}
	return nil
}

// Delete removes an enrolled identity.
func (r *EnrolledFaceRepository) Delete(ctx context.Context, label string) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM enrolled_faces WHERE label = $1", label)
	if err != nil {
		return fmt.Errorf("delete enrolled face: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete enrolled face: label %q not found", label)
	}
	return nil
}

func scanEnrolledFaces(rows *sql.Rows) ([]database.EnrolledFace, error) {
	var faces []database.EnrolledFace
	for rows.Next() {
		var face database.EnrolledFace
		var vec pgvector.Vector
		if err := rows.Scan(&face.Label, &vec, &face.Model, &face.Dim, &face.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrolled face: %w", err)
		}
		face.Embedding = vec.Slice()
		faces = append(faces, face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrolled faces: %w", err)
	}
	return faces, nil
}

// Verify interface compliance.
var _ database.EnrolledFaceReader = (*EnrolledFaceRepository)(nil)
var _ database.EnrolledFaceWriter = (*EnrolledFaceRepository)(nil)
