package segmenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/sat-verify/internal/logging"
)

// segmentResponse is the inference service's wire format. The class mask is a
// base64 byte string (one class index per pixel, row-major); confidences are
// the winning softmax probability per pixel in the same order.
type segmentResponse struct {
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Classes     []byte    `json:"classes"`
	Confidences []float32 `json:"confidences"`
}

// HTTPClient calls the model-inference sidecar over its REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client for the inference sidecar at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("segmenter_client"),
	}
}

// Segment submits a PNG snapshot and decodes the per-pixel mask.
func (c *HTTPClient) Segment(ctx context.Context, imagePNG []byte) (*Segmentation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/segment", bytes.NewReader(imagePNG))
	if err != nil {
		return nil, logging.NewOperationError("segmenter.build_request", "", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError("segmenter.segment", "", err)
		c.logger.Error("inference call failed", zap.Error(wrapped))
		return nil, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("inference service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return nil, logging.NewOperationError("segmenter.segment", "", err)
	}

	var decoded segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, logging.NewOperationError("segmenter.decode_response", "", err)
	}
	return decoded.toSegmentation()
}

// Healthy probes the inference sidecar's readiness endpoint.
func (c *HTTPClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return logging.NewOperationError("segmenter.build_request", "", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return logging.NewOperationError("segmenter.health", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return logging.NewOperationError("segmenter.health", "",
			fmt.Errorf("inference service returned %d", resp.StatusCode))
	}
	return nil
}

func (r *segmentResponse) toSegmentation() (*Segmentation, error) {
	pixels := r.Width * r.Height
	if pixels <= 0 {
		return nil, fmt.Errorf("invalid mask dimensions %dx%d", r.Width, r.Height)
	}
	if len(r.Classes) != pixels {
		return nil, fmt.Errorf("mask length %d does not match %dx%d", len(r.Classes), r.Width, r.Height)
	}
	if len(r.Confidences) != pixels {
		return nil, fmt.Errorf("confidence length %d does not match %dx%d", len(r.Confidences), r.Width, r.Height)
	}

	classes := make([]Class, pixels)
	for i, raw := range r.Classes {
		c := Class(raw)
		if !c.Valid() {
			return nil, fmt.Errorf("pixel %d has unknown class index %d", i, raw)
		}
		classes[i] = c
	}
	return &Segmentation{
		Width:       r.Width,
		Height:      r.Height,
		Classes:     classes,
		Confidences: r.Confidences,
	}, nil
}
