package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// DocumentTypeRepository provides PostgreSQL-backed document category storage.
type DocumentTypeRepository struct {
	pool *Pool
}

// NewDocumentTypeRepository creates a new PostgreSQL document type repository.
func NewDocumentTypeRepository(pool *Pool) *DocumentTypeRepository {
	return &DocumentTypeRepository{pool: pool}
}

// List returns all document types ordered by id.
func (r *DocumentTypeRepository) List(ctx context.Context) ([]database.DocumentType, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, libelle, description FROM type_documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query document types: %w", err)
	}
	defer rows.Close()

	var types []database.DocumentType
	for rows.Next() {
		var dt database.DocumentType
		if err := rows.Scan(&dt.ID, &dt.Label, &dt.Description); err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		types = append(types, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document types: %w", err)
	}
	return types, nil
}

// Get retrieves a document type by id. Returns nil when it does not exist.
func (r *DocumentTypeRepository) Get(ctx context.Context, id int64) (*database.DocumentType, error) {
	var dt database.DocumentType
	err := r.pool.QueryRow(
		ctx, "SELECT id, libelle, description FROM type_documents WHERE id = $1", id,
	).Scan(&dt.ID, &dt.Label, &dt.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document type: %w", err)
	}
	return &dt, nil
}

// Create inserts a document type and returns its id.
func (r *DocumentTypeRepository) Create(ctx context.Context, dt *database.DocumentType) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO type_documents (libelle, description)
		VALUES ($1, $2)
		RETURNING id
	`, dt.Label, dt.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document type: %w", err)
	}
	return id, nil
}

// Delete removes a document type.
func (r *DocumentTypeRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM type_documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document type: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ database.DocumentTypeReader = (*DocumentTypeRepository)(nil)
var _ database.DocumentTypeWriter = (*DocumentTypeRepository)(nil)
