package recognizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const defaultSidecarURL = "http://localhost:8501"

// SidecarProvider talks to the recognition sidecar service over HTTP. The
// sidecar hosts the face embedding model and the OCR engine and exposes
// /embed and /ocr endpoints taking a base64 image.
type SidecarProvider struct {
	baseURL string
	client  *http.Client
}

// NewSidecarProvider creates a provider for the given sidecar base URL.
func NewSidecarProvider(baseURL string) *SidecarProvider {
	if baseURL == "" {
		baseURL = defaultSidecarURL
	}
	return &SidecarProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Name returns the provider name.
func (p *SidecarProvider) Name() string {
	return "sidecar"
}

type sidecarEmbedRequest struct {
	Image string `json:"image"` // base64 encoded
}

type sidecarEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
	FaceFound bool      `json:"face_found"`
}

type sidecarOCRRequest struct {
	Image string `json:"image"` // base64 encoded
}

type sidecarOCRResponse struct {
	Fragments []sidecarFragment `json:"fragments"`
}

type sidecarFragment struct {
	BBox       [4][2]float64 `json:"bbox"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
}

// DetectAndEmbed computes the face embedding for the largest face in the image.
func (p *SidecarProvider) DetectAndEmbed(ctx context.Context, imageData []byte) ([]float32, error) {
	req := sidecarEmbedRequest{Image: base64.StdEncoding.EncodeToString(imageData)}

	var resp sidecarEmbedResponse
	if err := p.post(ctx, "/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("sidecar embed: %w", err)
	}
	if !resp.FaceFound || len(resp.Embedding) == 0 {
		return nil, ErrNoFace
	}
	return resp.Embedding, nil
}

// RecognizeText runs OCR over the image. Fragments are returned ordered
// top-to-bottom, then left-to-right.
func (p *SidecarProvider) RecognizeText(ctx context.Context, imageData []byte) ([]Fragment, error) {
	req := sidecarOCRRequest{Image: base64.StdEncoding.EncodeToString(imageData)}

	var resp sidecarOCRResponse
	if err := p.post(ctx, "/ocr", req, &resp); err != nil {
		return nil, fmt.Errorf("sidecar ocr: %w", err)
	}
	if len(resp.Fragments) == 0 {
		return nil, ErrNoText
	}

	fragments := make([]Fragment, 0, len(resp.Fragments))
	for _, sf := range resp.Fragments {
		var f Fragment
		for i, corner := range sf.BBox {
			f.BBox[i] = Point{X: corner[0], Y: corner[1]}
		}
		f.Text = sf.Text
		f.Confidence = sf.Confidence
		fragments = append(fragments, f)
	}

	SortByPosition(fragments)
	return fragments, nil
}

func (p *SidecarProvider) post(ctx context.Context, path string, reqBody, respBody any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SortByPosition orders fragments top-to-bottom, then left-to-right.
// Fragments whose vertical positions differ by less than 10 units are
// treated as one line.
func SortByPosition(fragments []Fragment) {
	const lineTolerance = 10.0
	sort.SliceStable(fragments, func(i, j int) bool {
		ti, tj := fragments[i].Top(), fragments[j].Top()
		if diff := ti - tj; diff > lineTolerance || diff < -lineTolerance {
			return ti < tj
		}
		return fragments[i].Left() < fragments[j].Left()
	})
}
