package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// DocumentRepository provides PostgreSQL-backed document register storage.
type DocumentRepository struct {
	pool *Pool
}

// NewDocumentRepository creates a new PostgreSQL document repository.
func NewDocumentRepository(pool *Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

const documentColumns = `id, numero_document, nom, prenom, nationalite, date_de_naissance,
       sexe, lieu_de_naissance, date_de_delivrance, date_d_expiration, image,
       profession, domicile, organisme_delivrance, infos_nfc, type_document_id, created_at`

// List returns all documents ordered by id.
func (r *DocumentRepository) List(ctx context.Context) ([]database.Document, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Get retrieves a document by id. Returns nil when the document does not exist.
func (r *DocumentRepository) Get(ctx context.Context, id int64) (*database.Document, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)

	doc, err := scanDocumentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Count returns the total number of documents.
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// Create inserts a document and returns its id.
func (r *DocumentRepository) Create(ctx context.Context, doc *database.Document) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO documents (numero_document, nom, prenom, nationalite, date_de_naissance,
		                       sexe, lieu_de_naissance, date_de_delivrance, date_d_expiration, image,
		                       profession, domicile, organisme_delivrance, infos_nfc, type_document_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		doc.Number,
		doc.Surname,
		doc.GivenName,
		doc.Nationality,
		nullTime(doc.BirthDate),
		doc.Sex,
		doc.BirthPlace,
		nullTime(doc.IssueDate),
		nullTime(doc.ExpiryDate),
		doc.ImagePath,
		doc.Profession,
		doc.Domicile,
		doc.IssuingAuthority,
		doc.NFCInfo,
		nullInt(doc.TypeID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// Update replaces the mutable fields of an existing document.
func (r *DocumentRepository) Update(ctx context.Context, doc *database.Document) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE documents SET
			numero_document = $1,
			nom = $2,
			prenom = $3,
			nationalite = $4,
			date_de_naissance = $5,
			sexe = $6,
			lieu_de_naissance = $7,
			date_de_delivrance = $8,
			date_d_expiration = $9,
			image = $10,
			profession = $11,
			domicile = $12,
			organisme_delivrance = $13,
			infos_nfc = $14,
			type_document_id = $15
		WHERE id = $16
	`,
		doc.Number,
		doc.Surname,
		doc.GivenName,
		doc.Nationality,
		nullTime(doc.BirthDate),
		doc.Sex,
		doc.BirthPlace,
		nullTime(doc.IssueDate),
		nullTime(doc.ExpiryDate),
		doc.ImagePath,
		doc.Profession,
		doc.Domicile,
		doc.IssuingAuthority,
		doc.NFCInfo,
		nullInt(doc.TypeID),
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update document: id %d not found", doc.ID)
	}
	return nil
}

// Delete removes a document.
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func scanDocumentRow(scanner interface{ Scan(...any) error }) (database.Document, error) {
	var doc database.Document
	var birthDate, issueDate, expiryDate sql.NullTime
	var typeID sql.NullInt64

	err := scanner.Scan(
		&doc.ID,
		&doc.Number,
		&doc.Surname,
		&doc.GivenName,
		&doc.Nationality,
		&birthDate,
		&doc.Sex,
		&doc.BirthPlace,
		&issueDate,
		&expiryDate,
		&doc.ImagePath,
		&doc.Profession,
		&doc.Domicile,
		&doc.IssuingAuthority,
		&doc.NFCInfo,
		&typeID,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doc, err
		}
		return doc, fmt.Errorf("scan document: %w", err)
	}

	if birthDate.Valid {
		doc.BirthDate = &birthDate.Time
	}
	if issueDate.Valid {
		doc.IssueDate = &issueDate.Time
	}
	if expiryDate.Valid {
		doc.ExpiryDate = &expiryDate.Time
	}
	if typeID.Valid {
		doc.TypeID = &typeID.Int64
	}
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]database.Document, error) {
	var docs []database.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Verify interface compliance.
var _ database.DocumentReader = (*DocumentRepository)(nil)
var _ database.DocumentWriter = (*DocumentRepository)(nil)
