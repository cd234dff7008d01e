package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/mindaccess/opendoor-backend/internal/domain/errors"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/config"
)

// Client calls the external face-extraction service: it uploads a captured
// frame and receives the 128-dimension descriptor plus detection confidence.
// How the embedding is computed is entirely the service's concern.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates the extraction-service client.
func NewClient(cfg *config.EmbeddingConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type extractResponse struct {
	Success    bool      `json:"success"`
	Embedding  []float64 `json:"embedding"`
	Confidence float64   `json:"confidence"`
	Error      string    `json:"error,omitempty"`
}

// Extract uploads the frame and returns the face embedding with its
// detection confidence. A frame with no detectable face is reported as an
// error by the service and surfaced as one here; the capture loop treats it
// as a skipped cycle.
func (c *Client) Extract(ctx context.Context, frame []byte) (vector.Embedding, float64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, 0, fmt.Errorf("building frame upload: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, 0, fmt.Errorf("building frame upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("building frame upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-face", &body)
	if err != nil {
		return nil, 0, fmt.Errorf("building extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperrors.NewExternalError("extraction", "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, apperrors.NewExternalError("extraction",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, payload))
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decoding extraction response: %w", err)
	}
	if !out.Success {
		return nil, 0, fmt.Errorf("extraction failed: %s", out.Error)
	}

	emb, err := vector.NewEmbeddingFromFloat64(out.Embedding)
	if err != nil {
		return nil, 0, fmt.Errorf("extraction returned bad embedding: %w", err)
	}

	c.logger.Debug("embedding extracted", zap.Float64("confidence", out.Confidence))
	return emb, out.Confidence, nil
}
