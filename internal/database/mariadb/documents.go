package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// FetchDocuments reads all documents from the legacy register. The legacy
// schema stores dates as DATE columns and uses the same French column names
// as the PostgreSQL schema.
func (p *Pool) FetchDocuments(ctx context.Context) ([]database.Document, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, numero_document, nom, prenom,
		       COALESCE(nationalite, ''), date_de_naissance,
		       COALESCE(sexe, ''), COALESCE(lieu_de_naissance, ''),
		       date_de_delivrance, date_d_expiration,
		       COALESCE(image, ''), COALESCE(profession, ''),
		       COALESCE(domicile, ''), COALESCE(organisme_delivrance, ''),
		       COALESCE(infos_nfc, '')
		FROM documents
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query legacy documents: %w", err)
	}
	defer rows.Close()

	var docs []database.Document
	for rows.Next() {
		var doc database.Document
		var birthDate, issueDate, expiryDate sql.NullTime
		if err := rows.Scan(
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
		); err != nil {
			return nil, fmt.Errorf("scan legacy document: %w", err)
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
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of documents in the legacy register.
func (p *Pool) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("count legacy documents: %w", err)
	}
	return count, nil
}
