// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// MockDocumentRepository is an in-memory implementation of database.DocumentWriter.
type MockDocumentRepository struct {
	mu     sync.RWMutex
	docs   map[int64]*database.Document
	nextID int64

	// Error injection
	ListError   error
	GetError    error
	CountError  error
	CreateError error
	UpdateError error
	DeleteError error
}

// NewMockDocumentRepository creates a new mock document repository.
func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		docs:   make(map[int64]*database.Document),
		nextID: 1,
	}
}

// AddDocument seeds the mock with a document, assigning an id if missing.
func (m *MockDocumentRepository) AddDocument(doc database.Document) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == 0 {
		doc.ID = m.nextID
	}
	if doc.ID >= m.nextID {
		m.nextID = doc.ID + 1
	}
	m.docs[doc.ID] = &doc
	return doc.ID
}

// List returns all documents in stable id order.
func (m *MockDocumentRepository) List(ctx context.Context) ([]database.Document, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]database.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Get retrieves a document by id.
func (m *MockDocumentRepository) Get(ctx context.Context, id int64) (*database.Document, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

// Count returns the total number of documents.
func (m *MockDocumentRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Create inserts a document.
func (m *MockDocumentRepository) Create(ctx context.Context, doc *database.Document) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.nextID++
	m.docs[cp.ID] = &cp
	return cp.ID, nil
}

// Update replaces an existing document.
func (m *MockDocumentRepository) Update(ctx context.Context, doc *database.Document) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		return fmt.Errorf("document %d not found", doc.ID)
	}
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

// Delete removes a document.
func (m *MockDocumentRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// MockEnrolledFaceRepository is an in-memory implementation of database.EnrolledFaceWriter.
type MockEnrolledFaceRepository struct {
	mu    sync.RWMutex
	faces map[string]database.EnrolledFace

	// Error injection
	ListError   error
	CountError  error
	SaveError   error
	DeleteError error

	// ListCalls counts List invocations, useful for cache tests.
	ListCalls int
}

// NewMockEnrolledFaceRepository creates a new mock enrolled face repository.
func NewMockEnrolledFaceRepository() *MockEnrolledFaceRepository {
	return &MockEnrolledFaceRepository{
		faces: make(map[string]database.EnrolledFace),
	}
}

// AddFace seeds the mock with an enrolled face.
func (m *MockEnrolledFaceRepository) AddFace(face database.EnrolledFace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[face.Label] = face
}

// List returns all enrolled faces ordered by label.
func (m *MockEnrolledFaceRepository) List(ctx context.Context) ([]database.EnrolledFace, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	faces := make([]database.EnrolledFace, 0, len(m.faces))
	for _, face := range m.faces {
		faces = append(faces, face)
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].Label < faces[j].Label })
	return faces, nil
}

// Count returns the number of enrolled identities.
func (m *MockEnrolledFaceRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.faces), nil
}

// Save stores an embedding for a label.
func (m *MockEnrolledFaceRepository) Save(ctx context.Context, face database.EnrolledFace) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[face.Label] = face
	return nil
}

// Delete removes an enrolled identity.
func (m *MockEnrolledFaceRepository) Delete(ctx context.Context, label string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.faces[label]; !ok {
		return fmt.Errorf("label %q not found", label)
	}
	delete(m.faces, label)
	return nil
}

// MockOCRRecordRepository is an in-memory implementation of database.OCRRecordWriter.
type MockOCRRecordRepository struct {
	mu      sync.RWMutex
	records map[int64]*database.OCRRecord
	nextID  int64

	// Error injection
	SaveError error
	GetError  error
}

// NewMockOCRRecordRepository creates a new mock OCR record repository.
func NewMockOCRRecordRepository() *MockOCRRecordRepository {
	return &MockOCRRecordRepository{
		records: make(map[int64]*database.OCRRecord),
		nextID:  1,
	}
}

// Save inserts an OCR record.
func (m *MockOCRRecordRepository) Save(ctx context.Context, rec *database.OCRRecord) (int64, error) {
	if m.SaveError != nil {
		return 0, m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.nextID++
	m.records[cp.ID] = &cp
	return cp.ID, nil
}

// Get retrieves a record by id.
func (m *MockOCRRecordRepository) Get(ctx context.Context, id int64) (*database.OCRRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// MockVerificationRepository is an in-memory implementation of database.VerificationWriter.
type MockVerificationRepository struct {
	mu            sync.RWMutex
	verifications []database.Verification
	nextID        int64

	// Error injection
	SaveError   error
	LatestError error
	StatsError  error
}

// NewMockVerificationRepository creates a new mock verification repository.
func NewMockVerificationRepository() *MockVerificationRepository {
	return &MockVerificationRepository{nextID: 1}
}

// Save inserts a verification row.
func (m *MockVerificationRepository) Save(ctx context.Context, v *database.Verification) (int64, error) {
	if m.SaveError != nil {
		return 0, m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	cp.ID = m.nextID
	if cp.VerifiedAt.IsZero() {
		cp.VerifiedAt = time.Now()
	}
	m.nextID++
	m.verifications = append(m.verifications, cp)
	return cp.ID, nil
}

// Saved returns a copy of all saved verifications.
func (m *MockVerificationRepository) Saved() []database.Verification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Verification, len(m.verifications))
	copy(out, m.verifications)
	return out
}

// Latest returns the most recent verifications within the filter window.
func (m *MockVerificationRepository) Latest(
	ctx context.Context, filter database.StatsFilter, limit int,
) ([]database.Verification, error) {
	if m.LatestError != nil {
		return nil, m.LatestError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.filtered(filter)
	sort.Slice(matched, func(i, j int) bool { return matched[i].VerifiedAt.After(matched[j].VerifiedAt) })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Stats aggregates outcomes within the filter window.
func (m *MockVerificationRepository) Stats(
	ctx context.Context, filter database.StatsFilter,
) (*database.VerificationStats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := database.VerificationStats{Period: filter.Period}
	for _, v := range m.filtered(filter) {
		stats.Total++
		switch v.DataResult {
		case database.DataResultOK:
			stats.Matched++
		case database.DataResultFailed:
			stats.Failed++
		case database.DataResultExternal:
			stats.External++
		}
	}
	return &stats, nil
}

// StatsByPlace returns per-place totals.
func (m *MockVerificationRepository) StatsByPlace(
	ctx context.Context, filter database.StatsFilter, limit int,
) ([]database.PlaceStats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[int64]int)
	for _, v := range m.filtered(filter) {
		if v.PlaceID != nil {
			totals[*v.PlaceID]++
		}
	}

	var stats []database.PlaceStats
	for id, total := range totals {
		stats = append(stats, database.PlaceStats{Place: fmt.Sprintf("place-%d", id), Total: total})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Place < stats[j].Place })
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (m *MockVerificationRepository) filtered(filter database.StatsFilter) []database.Verification {
	from, to, ok := filter.Window(time.Now())
	var out []database.Verification
	for _, v := range m.verifications {
		if ok && (v.VerifiedAt.Before(from) || !v.VerifiedAt.Before(to)) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// MockPlaceRepository is an in-memory implementation of database.PlaceWriter.
type MockPlaceRepository struct {
	mu     sync.RWMutex
	places map[int64]*database.Place
	nextID int64

	// Error injection
	ListError   error
	GetError    error
	CreateError error
	UpdateError error
	DeleteError error
}

// NewMockPlaceRepository creates a new mock place repository.
func NewMockPlaceRepository() *MockPlaceRepository {
	return &MockPlaceRepository{
		places: make(map[int64]*database.Place),
		nextID: 1,
	}
}

// List returns all places ordered by id.
func (m *MockPlaceRepository) List(ctx context.Context) ([]database.Place, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	places := make([]database.Place, 0, len(m.places))
	for _, p := range m.places {
		places = append(places, *p)
	}
	sort.Slice(places, func(i, j int) bool { return places[i].ID < places[j].ID })
	return places, nil
}

// Get retrieves a place by id.
func (m *MockPlaceRepository) Get(ctx context.Context, id int64) (*database.Place, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.places[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Create inserts a place.
func (m *MockPlaceRepository) Create(ctx context.Context, place *database.Place) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *place
	cp.ID = m.nextID
	m.nextID++
	m.places[cp.ID] = &cp
	return cp.ID, nil
}

// Update replaces an existing place.
func (m *MockPlaceRepository) Update(ctx context.Context, place *database.Place) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.places[place.ID]; !ok {
		return fmt.Errorf("place %d not found", place.ID)
	}
	cp := *place
	m.places[place.ID] = &cp
	return nil
}

// Delete removes a place.
func (m *MockPlaceRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.places, id)
	return nil
}

// Verify interface compliance.
var _ database.DocumentWriter = (*MockDocumentRepository)(nil)
var _ database.EnrolledFaceWriter = (*MockEnrolledFaceRepository)(nil)
var _ database.OCRRecordWriter = (*MockOCRRecordRepository)(nil)
var _ database.VerificationWriter = (*MockVerificationRepository)(nil)
var _ database.PlaceWriter = (*MockPlaceRepository)(nil)
