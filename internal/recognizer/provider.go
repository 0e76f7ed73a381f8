// Package recognizer abstracts the external face embedding and text
// recognition backends. The core never computes embeddings or OCR itself;
// it consumes provider outputs.
package recognizer

import (
	"context"
	"errors"
	"strings"
)

// ErrNoFace is returned when the backend finds no face in the image.
var ErrNoFace = errors.New("no face detected")

// ErrNoText is returned when the backend recognizes no text in the image.
var ErrNoText = errors.New("no text recognized")

// Point is one corner of a fragment bounding polygon, in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fragment is one recognized text span with position and confidence.
// The bounding polygon lists corners clockwise from top-left.
type Fragment struct {
	BBox       [4]Point `json:"bbox"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
}

// Top returns the smallest Y coordinate of the bounding polygon.
func (f Fragment) Top() float64 {
	top := f.BBox[0].Y
	for _, p := range f.BBox[1:] {
		if p.Y < top {
			top = p.Y
		}
	}
	return top
}

// Left returns the smallest X coordinate of the bounding polygon.
func (f Fragment) Left() float64 {
	left := f.BBox[0].X
	for _, p := range f.BBox[1:] {
		if p.X < left {
			left = p.X
		}
	}
	return left
}

// JoinText concatenates fragment texts in slice order, space separated.
func JoinText(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, " ")
}

// MaxConfidence returns the highest fragment confidence, 0 for an empty list.
func MaxConfidence(fragments []Fragment) float64 {
	var best float64
	for _, f := range fragments {
		if f.Confidence > best {
			best = f.Confidence
		}
	}
	return best
}

// Provider defines the interface for recognition backends.
type Provider interface {
	Name() string
	// DetectAndEmbed computes the face embedding for the largest face in
	// the image. Returns ErrNoFace when the image contains no face.
	DetectAndEmbed(ctx context.Context, imageData []byte) ([]float32, error)
	// RecognizeText runs OCR over the image and returns fragments ordered
	// top-to-bottom, then left-to-right. Returns ErrNoText when nothing is
	// recognized.
	RecognizeText(ctx context.Context, imageData []byte) ([]Fragment, error)
}
