package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/config"
	"github.com/kozaktomas/id-verifier/internal/database/postgres"
	"github.com/kozaktomas/id-verifier/internal/docindex"
	"github.com/kozaktomas/id-verifier/internal/enrollment"
	"github.com/kozaktomas/id-verifier/internal/extract"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
	"github.com/kozaktomas/id-verifier/internal/textmatch"
	"github.com/kozaktomas/id-verifier/internal/verify"
)

// app bundles the configuration, database pool and wired service objects
// shared by the operator commands.
type app struct {
	cfg  *config.Config
	pool *postgres.Pool

	documents     *postgres.DocumentRepository
	enrolled      *postgres.EnrolledFaceRepository
	ocrRecords    *postgres.OCRRecordRepository
	verifications *postgres.VerificationRepository
	places        *postgres.PlaceRepository
	docTypes      *postgres.DocumentTypeRepository

	store *enrollment.Store
	index *docindex.Index
}

// newApp loads configuration and connects to PostgreSQL. Commands that need
// the recognizer or the verifier build them on top via the helpers below.
func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	a := &app{
		cfg:           cfg,
		pool:          pool,
		documents:     postgres.NewDocumentRepository(pool),
		enrolled:      postgres.NewEnrolledFaceRepository(pool),
		ocrRecords:    postgres.NewOCRRecordRepository(pool),
		verifications: postgres.NewVerificationRepository(pool),
		places:        postgres.NewPlaceRepository(pool),
		docTypes:      postgres.NewDocumentTypeRepository(pool),
	}
	a.store = enrollment.NewStore(a.enrolled, cfg.Matching.EmbeddingDim)
	a.index = docindex.New(a.documents)
	return a, nil
}

func (a *app) Close() {
	if err := a.pool.Close(); err != nil {
		fmt.Printf("Warning: failed to close database pool: %v\n", err)
	}
}

// newProvider builds the configured recognition backend.
func (a *app) newProvider(ctx context.Context) (recognizer.Provider, error) {
	provider, err := recognizer.NewProvider(ctx, &a.cfg.Recognizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	return provider, nil
}

// newVerifier wires the full verification pipeline.
func (a *app) newVerifier(provider recognizer.Provider) *verify.Verifier {
	matcher := textmatch.NewMatcher(a.cfg.Matching.FieldWeights, a.cfg.Matching.DocumentThreshold)
	return verify.New(
		a.store,
		a.index,
		matcher,
		extract.NewExtractor(),
		provider,
		a.ocrRecords,
		a.verifications,
		a.cfg.Matching.FaceThreshold,
	)
}
