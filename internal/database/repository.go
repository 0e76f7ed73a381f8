package database

import (
	"context"
)

// DocumentReader provides read-only access to the document register
type DocumentReader interface {
	// List returns all documents in stable id order
	List(ctx context.Context) ([]Document, error)
	// Get retrieves a document by id, returns nil if not found
	Get(ctx context.Context, id int64) (*Document, error)
	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)
}

// DocumentWriter provides write access to the document register
type DocumentWriter interface {
	DocumentReader

	// Create inserts a document and returns its id
	Create(ctx context.Context, doc *Document) (int64, error)
	// Update replaces the mutable fields of an existing document
	Update(ctx context.Context, doc *Document) error
	// Delete removes a document
	Delete(ctx context.Context, id int64) error
}

// EnrolledFaceReader provides read-only access to enrolled identity embeddings
type EnrolledFaceReader interface {
	// List returns all enrolled faces ordered by label
	List(ctx context.Context) ([]EnrolledFace, error)
	// Count returns the number of enrolled identities
	Count(ctx context.Context) (int, error)
}

// EnrolledFaceWriter provides write access to enrolled identity embeddings
type EnrolledFaceWriter interface {
	EnrolledFaceReader

	// Save stores an embedding for a label (replaces an existing one)
	Save(ctx context.Context, face EnrolledFace) error
	// Delete removes an enrolled identity
	Delete(ctx context.Context, label string) error
}

// OCRRecordWriter persists raw recognition results
type OCRRecordWriter interface {
	// Save inserts an OCR record and returns its id
	Save(ctx context.Context, rec *OCRRecord) (int64, error)
	// Get retrieves a record by id, returns nil if not found
	Get(ctx context.Context, id int64) (*OCRRecord, error)
}

// VerificationReader provides access to the verification history
type VerificationReader interface {
	// Latest returns the most recent verifications within the filter window
	Latest(ctx context.Context, filter StatsFilter, limit int) ([]Verification, error)
	// Stats aggregates outcomes within the filter window
	Stats(ctx context.Context, filter StatsFilter) (*VerificationStats, error)
	// StatsByPlace returns per-place totals ordered by most recent activity
	StatsByPlace(ctx context.Context, filter StatsFilter, limit int) ([]PlaceStats, error)
}

// VerificationWriter persists verification outcomes
type VerificationWriter interface {
	VerificationReader

	// Save inserts a verification row and returns its id
	Save(ctx context.Context, v *Verification) (int64, error)
}

// PlaceReader provides read-only access to control points
type PlaceReader interface {
	List(ctx context.Context) ([]Place, error)
	Get(ctx context.Context, id int64) (*Place, error)
}

// PlaceWriter provides write access to control points
type PlaceWriter interface {
	PlaceReader

	Create(ctx context.Context, place *Place) (int64, error)
	Update(ctx context.Context, place *Place) error
	Delete(ctx context.Context, id int64) error
}

// DocumentTypeReader provides read-only access to document categories
type DocumentTypeReader interface {
	List(ctx context.Context) ([]DocumentType, error)
	Get(ctx context.Context, id int64) (*DocumentType, error)
}

// DocumentTypeWriter provides write access to document categories
type DocumentTypeWriter interface {
	DocumentTypeReader

	Create(ctx context.Context, dt *DocumentType) (int64, error)
	Delete(ctx context.Context, id int64) error
}
