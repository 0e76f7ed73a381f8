package verify

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/database/mock"
	"github.com/kozaktomas/id-verifier/internal/docindex"
	"github.com/kozaktomas/id-verifier/internal/enrollment"
	"github.com/kozaktomas/id-verifier/internal/extract"
	"github.com/kozaktomas/id-verifier/internal/facematch"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
	"github.com/kozaktomas/id-verifier/internal/textmatch"
)

// fakeProvider returns canned recognition results.
type fakeProvider struct {
	embedding []float32
	embedErr  error
	fragments []recognizer.Fragment
	textErr   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) DetectAndEmbed(ctx context.Context, imageData []byte) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedding, nil
}

func (f *fakeProvider) RecognizeText(ctx context.Context, imageData []byte) ([]recognizer.Fragment, error) {
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.fragments, nil
}

func frag(text string, y float64) recognizer.Fragment {
	return recognizer.Fragment{
		BBox: [4]recognizer.Point{
			{X: 0, Y: y}, {X: 100, Y: y}, {X: 100, Y: y + 20}, {X: 0, Y: y + 20},
		},
		Text:       text,
		Confidence: 0.9,
	}
}

var testWeights = map[string]float64{
	textmatch.FieldSurname:     3,
	textmatch.FieldGivenName:   3,
	textmatch.FieldNumber:      2,
	textmatch.FieldNationality: 1,
	textmatch.FieldBirthDate:   1,
	textmatch.FieldExpiryDate:  1,
}

type fixture struct {
	verifier      *Verifier
	provider      *fakeProvider
	faces         *mock.MockEnrolledFaceRepository
	documents     *mock.MockDocumentRepository
	ocrRecords    *mock.MockOCRRecordRepository
	verifications *mock.MockVerificationRepository
}

func newFixture() *fixture {
	f := &fixture{
		provider:      &fakeProvider{},
		faces:         mock.NewMockEnrolledFaceRepository(),
		documents:     mock.NewMockDocumentRepository(),
		ocrRecords:    mock.NewMockOCRRecordRepository(),
		verifications: mock.NewMockVerificationRepository(),
	}
	f.verifier = New(
		enrollment.NewStore(f.faces, 4),
		docindex.New(f.documents),
		textmatch.NewMatcher(testWeights, 70),
		extract.NewExtractor(),
		f.provider,
		f.ocrRecords,
		f.verifications,
		0.78,
	)
	return f
}

func TestVerifyFace_Match(t *testing.T) {
	f := newFixture()
	f.faces.AddFace(database.EnrolledFace{Label: "alice", Embedding: []float32{1, 0, 0, 0}, Dim: 4})
	f.provider.embedding = []float32{2, 0, 0, 0} // same direction, distance 0 after normalization

	result, err := f.verifier.VerifyFace(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Matched || result.Label != "alice" {
		t.Errorf("expected match on alice, got %+v", result)
	}
}

func TestVerifyFace_BeyondThreshold(t *testing.T) {
	f := newFixture()
	f.faces.AddFace(database.EnrolledFace{Label: "alice", Embedding: []float32{1, 0, 0, 0}, Dim: 4})
	f.provider.embedding = []float32{0, 1, 0, 0} // orthogonal, distance sqrt(2)

	result, err := f.verifier.VerifyFace(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Matched || result.Label != facematch.UnknownLabel {
		t.Errorf("expected unknown identity, got %+v", result)
	}
}

func TestVerifyFace_NoFaceIsNotAnError(t *testing.T) {
	f := newFixture()
	f.provider.embedErr = recognizer.ErrNoFace

	result, err := f.verifier.VerifyFace(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("no face must not be an error, got %v", err)
	}
	if result.Matched || result.Label != facematch.UnknownLabel {
		t.Errorf("expected unknown identity, got %+v", result)
	}
	if !math.IsInf(result.Distance, 1) {
		t.Errorf("expected infinite distance, got %f", result.Distance)
	}
}

func TestVerifyFace_EmptyStoreDegrades(t *testing.T) {
	f := newFixture()
	f.provider.embedding = []float32{1, 0, 0, 0}

	result, err := f.verifier.VerifyFace(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("empty store must not be fatal, got %v", err)
	}
	if result.Label != facematch.UnknownLabel {
		t.Errorf("expected unknown identity, got %+v", result)
	}
}

func TestVerifyFace_ProviderError(t *testing.T) {
	f := newFixture()
	f.provider.embedErr = errors.New("sidecar down")

	if _, err := f.verifier.VerifyFace(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error from provider failure")
	}
}

func TestVerifyDocument_Matched(t *testing.T) {
	f := newFixture()
	docID := f.documents.AddDocument(database.Document{
		Number: "AB123456", Surname: "DUPONT", GivenName: "Jean", Nationality: "Française",
	})
	f.provider.fragments = []recognizer.Fragment{frag("DUPONT Jean AB123456", 10)}

	outcome, err := f.verifier.VerifyDocument(context.Background(), []byte("img"), Options{ImageName: "scan.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matched, ok := outcome.(Matched)
	if !ok {
		t.Fatalf("expected Matched, got %T", outcome)
	}
	if matched.DocumentID != docID {
		t.Errorf("expected document %d, got %d", docID, matched.DocumentID)
	}
	if len(matched.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(matched.Candidates))
	}
	if matched.Strength != textmatch.StrengthStrong {
		t.Errorf("expected strong match, got %s", matched.Strength)
	}

	saved := f.verifications.Saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 verification, got %d", len(saved))
	}
	v := saved[0]
	if v.DataResult != database.DataResultOK {
		t.Errorf("expected data result %s, got %s", database.DataResultOK, v.DataResult)
	}
	if v.FaceResult != database.FaceResultNotVerified {
		t.Errorf("expected face result %s, got %s", database.FaceResultNotVerified, v.FaceResult)
	}
	if v.DocumentID == nil || *v.DocumentID != docID {
		t.Errorf("expected verification linked to document %d, got %v", docID, v.DocumentID)
	}
	if v.OCRRecordID == nil {
		t.Fatal("expected verification linked to an OCR record")
	}

	rec, err := f.ocrRecords.Get(context.Background(), *v.OCRRecordID)
	if err != nil || rec == nil {
		t.Fatalf("expected persisted OCR record, got %v, %v", rec, err)
	}
	if rec.ImageName != "scan.jpg" {
		t.Errorf("expected image name scan.jpg, got %q", rec.ImageName)
	}
	if rec.DocumentID == nil || *rec.DocumentID != docID {
		t.Errorf("expected OCR record linked to document %d, got %v", docID, rec.DocumentID)
	}
	if !strings.Contains(rec.FragmentsJSON, "DUPONT") {
		t.Errorf("expected fragments JSON to carry the text, got %q", rec.FragmentsJSON)
	}
}

func TestVerifyDocument_NotMatched(t *testing.T) {
	f := newFixture()
	f.documents.AddDocument(database.Document{
		Number: "AB123456", Surname: "DUPONT", GivenName: "Jean",
	})
	f.provider.fragments = []recognizer.Fragment{frag("MARTIN PIERRE ZZ0000", 10)}

	outcome, err := f.verifier.VerifyDocument(context.Background(), []byte("img"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := outcome.(NotMatched); !ok {
		t.Fatalf("expected NotMatched, got %T", outcome)
	}

	saved := f.verifications.Saved()
	if len(saved) != 1 || saved[0].DataResult != database.DataResultFailed {
		t.Errorf("expected one %s verification, got %+v", database.DataResultFailed, saved)
	}
	if saved[0].DocumentID != nil {
		t.Errorf("miss must not link a document, got %v", saved[0].DocumentID)
	}
}

func TestVerifyDocument_EmptyRegisterFallsBackToExtraction(t *testing.T) {
	f := newFixture()
	f.provider.fragments = []recognizer.Fragment{
		frag("NOM: DUPONT", 10),
		frag("PRENOM Jean", 40),
	}

	outcome, err := f.verifier.VerifyDocument(context.Background(), []byte("img"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	external, ok := outcome.(External)
	if !ok {
		t.Fatalf("expected External on empty register, got %T", outcome)
	}
	if external.Fields.Surname != "DUPONT" || external.Fields.GivenName != "Jean" {
		t.Errorf("unexpected extracted fields: %+v", external.Fields)
	}

	saved := f.verifications.Saved()
	if len(saved) != 1 || saved[0].DataResult != database.DataResultExternal {
		t.Errorf("expected one %s verification, got %+v", database.DataResultExternal, saved)
	}
	rec, err := f.ocrRecords.Get(context.Background(), *saved[0].OCRRecordID)
	if err != nil || rec == nil {
		t.Fatalf("expected persisted OCR record, got %v, %v", rec, err)
	}
	if rec.ExternalSurname != "DUPONT" || rec.ExternalGivenName != "Jean" {
		t.Errorf("expected external fields on OCR record, got %+v", rec)
	}
}

func TestVerifyDocument_NoText(t *testing.T) {
	f := newFixture()
	f.provider.textErr = recognizer.ErrNoText

	outcome, err := f.verifier.VerifyDocument(context.Background(), []byte("img"), Options{})
	if err != nil {
		t.Fatalf("no text must not be an error: %v", err)
	}
	failed, ok := outcome.(Failed)
	if !ok {
		t.Fatalf("expected Failed, got %T", outcome)
	}
	if failed.Reason != "no text recognized" {
		t.Errorf("unexpected reason %q", failed.Reason)
	}

	saved := f.verifications.Saved()
	if len(saved) != 1 || saved[0].DataResult != database.DataResultFailed {
		t.Errorf("expected one %s verification, got %+v", database.DataResultFailed, saved)
	}
	if saved[0].OCRRecordID != nil {
		t.Error("no OCR record must be written without fragments")
	}
}

func TestVerifyDocument_UnreadableImage(t *testing.T) {
	f := newFixture()
	f.provider.textErr = errors.New("decode error")

	outcome, err := f.verifier.VerifyDocument(context.Background(), []byte("img"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failed, ok := outcome.(Failed)
	if !ok {
		t.Fatalf("expected Failed, got %T", outcome)
	}
	if failed.Reason != "image unreadable" {
		t.Errorf("unexpected reason %q", failed.Reason)
	}
}

func TestVerifyExternal_IgnoresRegister(t *testing.T) {
	f := newFixture()
	f.documents.AddDocument(database.Document{
		Number: "AB123456", Surname: "DUPONT", GivenName: "Jean",
	})
	f.provider.fragments = []recognizer.Fragment{
		frag("NOM: DUPONT", 10),
		frag("PRENOM Jean", 40),
		frag("AB123456", 70),
	}

	outcome, err := f.verifier.VerifyExternal(context.Background(), []byte("img"), Options{PlaceID: ptr(int64(3))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	external, ok := outcome.(External)
	if !ok {
		t.Fatalf("expected External even with register entries, got %T", outcome)
	}
	if external.Fields.Number != "AB123456" {
		t.Errorf("expected number AB123456, got %q", external.Fields.Number)
	}

	saved := f.verifications.Saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 verification, got %d", len(saved))
	}
	if saved[0].DataResult != database.DataResultExternal {
		t.Errorf("expected %s, got %s", database.DataResultExternal, saved[0].DataResult)
	}
	if saved[0].PlaceID == nil || *saved[0].PlaceID != 3 {
		t.Errorf("expected place 3, got %v", saved[0].PlaceID)
	}
}

func TestVerifyDocument_PersistenceErrorPropagates(t *testing.T) {
	f := newFixture()
	f.provider.fragments = []recognizer.Fragment{frag("NOM: DUPONT", 10)}
	f.verifications.SaveError = errors.New("db down")

	if _, err := f.verifier.VerifyDocument(context.Background(), []byte("img"), Options{}); err == nil {
		t.Fatal("expected persistence error to propagate")
	}
}

func TestVerifyDocumentFragments_RegisterMissDoesNotExtract(t *testing.T) {
	f := newFixture()
	f.documents.AddDocument(database.Document{
		Number: "AB123456", Surname: "DUPONT", GivenName: "Jean",
	})
	fragments := []recognizer.Fragment{frag("NOM: MARTIN PRENOM Claire", 10)}

	outcome, err := f.verifier.VerifyDocumentFragments(context.Background(), fragments, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := outcome.(NotMatched); !ok {
		t.Fatalf("register miss must stay NotMatched, got %T", outcome)
	}
}

func ptr[T any](v T) *T { return &v }
