// Package verify sequences face matching, document matching and field
// extraction into verification outcomes and persists them.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/docindex"
	"github.com/kozaktomas/id-verifier/internal/enrollment"
	"github.com/kozaktomas/id-verifier/internal/extract"
	"github.com/kozaktomas/id-verifier/internal/facematch"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
	"github.com/kozaktomas/id-verifier/internal/textmatch"
)

// Verifier composes the matching pipeline. All dependencies are injected so
// handlers, commands and tests share one implementation.
type Verifier struct {
	store     *enrollment.Store
	index     *docindex.Index
	matcher   *textmatch.Matcher
	extractor *extract.Extractor
	provider  recognizer.Provider

	ocrRecords    database.OCRRecordWriter
	verifications database.VerificationWriter

	faceThreshold float64

	emptyStoreLog sync.Once
}

// New creates a verifier.
func New(
	store *enrollment.Store,
	index *docindex.Index,
	matcher *textmatch.Matcher,
	extractor *extract.Extractor,
	provider recognizer.Provider,
	ocrRecords database.OCRRecordWriter,
	verifications database.VerificationWriter,
	faceThreshold float64,
) *Verifier {
	return &Verifier{
		store:         store,
		index:         index,
		matcher:       matcher,
		extractor:     extractor,
		provider:      provider,
		ocrRecords:    ocrRecords,
		verifications: verifications,
		faceThreshold: faceThreshold,
	}
}

// Options carries per-request persistence context.
type Options struct {
	ImageName       string
	PlaceID         *int64
	FailureImageURL string
}

// VerifyFace embeds the probe image and matches it against the enrolled set.
// An image without a detectable face is not an error; it reports the unknown
// identity. An empty enrolled set degrades the same way.
func (v *Verifier) VerifyFace(ctx context.Context, imageData []byte) (facematch.Result, error) {
	probe, err := v.provider.DetectAndEmbed(ctx, imageData)
	if err != nil {
		if errors.Is(err, recognizer.ErrNoFace) {
			return facematch.Result{Label: facematch.UnknownLabel, Distance: math.Inf(1)}, nil
		}
		return facematch.Result{}, fmt.Errorf("face embedding failed: %w", err)
	}

	snap, err := v.store.Snapshot(ctx)
	if err != nil {
		return facematch.Result{}, err
	}
	if len(snap.Entries) == 0 {
		v.emptyStoreLog.Do(func() {
			log.Printf("enrolled face store is empty, all face checks report %s", facematch.UnknownLabel)
		})
	}

	return facematch.Match(probe, snap.Entries, facematch.EuclideanL2, v.faceThreshold), nil
}

// VerifyDocument recognizes the document image and matches the text against
// the register. An empty register falls back to field extraction; a register
// miss does not (the external path is a separate, explicit call).
func (v *Verifier) VerifyDocument(ctx context.Context, imageData []byte, opts Options) (Outcome, error) {
	fragments, err := v.provider.RecognizeText(ctx, imageData)
	if err != nil {
		return v.failed(ctx, err, opts)
	}
	return v.VerifyDocumentFragments(ctx, fragments, opts)
}

// VerifyDocumentFragments runs the document match over already-recognized
// fragments, for callers that bring their own recognition.
func (v *Verifier) VerifyDocumentFragments(ctx context.Context, fragments []recognizer.Fragment, opts Options) (Outcome, error) {
	text := recognizer.JoinText(fragments)
	if text == "" {
		return v.failed(ctx, recognizer.ErrNoText, opts)
	}

	empty, err := v.index.Empty(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading document index: %w", err)
	}
	if empty {
		outcome := External{Fields: v.extractor.Extract(fragments)}
		if err := v.persist(ctx, outcome, fragments, opts); err != nil {
			return nil, err
		}
		return outcome, nil
	}

	snap, err := v.index.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading document index: %w", err)
	}

	candidates := v.matcher.Match(text, snap.Documents)
	var outcome Outcome
	if len(candidates) > 0 {
		outcome = Matched{
			DocumentID: candidates[0].DocumentID,
			Strength:   textmatch.Strength(candidates[0].GlobalScore),
			Candidates: candidates,
		}
	} else {
		outcome = NotMatched{}
	}

	if err := v.persist(ctx, outcome, fragments, opts); err != nil {
		return nil, err
	}
	return outcome, nil
}

// VerifyExternal recognizes the document image and extracts identity fields
// without consulting the register. Used for documents known to be absent
// from it.
func (v *Verifier) VerifyExternal(ctx context.Context, imageData []byte, opts Options) (Outcome, error) {
	fragments, err := v.provider.RecognizeText(ctx, imageData)
	if err != nil {
		return v.failed(ctx, err, opts)
	}

	outcome := External{Fields: v.extractor.Extract(fragments)}
	if err := v.persist(ctx, outcome, fragments, opts); err != nil {
		return nil, err
	}
	return outcome, nil
}

// failed converts a recognition error into a Failed outcome and persists it.
// Recognition errors are per-request conditions, not service failures.
func (v *Verifier) failed(ctx context.Context, cause error, opts Options) (Outcome, error) {
	reason := "image unreadable"
	if errors.Is(cause, recognizer.ErrNoText) {
		reason = "no text recognized"
	}
	outcome := Failed{Reason: reason}
	if err := v.persist(ctx, outcome, nil, opts); err != nil {
		return nil, err
	}
	return outcome, nil
}

// persist writes the OCR record (when fragments exist) and the verification
// row for an outcome. Document checks leave the face result unverified; face
// and document checks are separate requests.
func (v *Verifier) persist(ctx context.Context, outcome Outcome, fragments []recognizer.Fragment, opts Options) error {
	verification := &database.Verification{
		FaceResult:      database.FaceResultNotVerified,
		DataResult:      outcome.DataResult(),
		FailureImageURL: opts.FailureImageURL,
		PlaceID:         opts.PlaceID,
	}

	if len(fragments) > 0 {
		rec := &database.OCRRecord{
			ImageName:  opts.ImageName,
			Text:       recognizer.JoinText(fragments),
			Confidence: recognizer.MaxConfidence(fragments),
		}
		raw, err := json.Marshal(fragments)
		if err != nil {
			return fmt.Errorf("serializing fragments: %w", err)
		}
		rec.FragmentsJSON = string(raw)

		switch o := outcome.(type) {
		case Matched:
			id := o.DocumentID
			rec.DocumentID = &id
		case External:
			rec.ExternalSurname = o.Fields.Surname
			rec.ExternalGivenName = o.Fields.GivenName
			rec.ExternalNumber = o.Fields.Number
		}

		recID, err := v.ocrRecords.Save(ctx, rec)
		if err != nil {
			return fmt.Errorf("saving recognition result: %w", err)
		}
		verification.OCRRecordID = &recID
		verification.DocumentID = rec.DocumentID
	}

	if _, err := v.verifications.Save(ctx, verification); err != nil {
		return fmt.Errorf("saving verification: %w", err)
	}
	return nil
}
