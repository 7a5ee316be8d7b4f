package imagery

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

const (
	viewportWidth  = 1920
	viewportHeight = 1080

	// cropHalf trims the rendered page to the 600x600 center region before
	// it is handed to the model.
	cropHalf = 300
)

// renderRequest is the render sidecar's screenshot contract (browserless
// style): navigate, wait for network idle, return a PNG of the viewport.
type renderRequest struct {
	URL      string   `json:"url"`
	Viewport viewport `json:"viewport"`
	WaitFor  string   `json:"waitUntil"`
}

type viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RenderClient captures snapshots through the headless-browser sidecar.
type RenderClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewRenderClient builds a capture client for the render sidecar at baseURL.
// The timeout bounds the full navigate-and-screenshot round trip.
func NewRenderClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RenderClient {
	return &RenderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("render_client"),
	}
}

// Capture renders pageURL and returns the center-cropped PNG snapshot.
func (c *RenderClient) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	payload, err := json.Marshal(renderRequest{
		URL:      pageURL,
		Viewport: viewport{Width: viewportWidth, Height: viewportHeight},
		WaitFor:  "networkidle",
	})
	if err != nil {
		return nil, logging.NewOperationError("imagery.encode_request", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/screenshot", bytes.NewReader(payload))
	if err != nil {
		return nil, logging.NewOperationError("imagery.build_request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError("imagery.capture", "", err)
		c.logger.Error("render call failed", zap.Error(wrapped), zap.String("page_url", pageURL))
		return nil, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("render service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return nil, logging.NewOperationError("imagery.capture", "", err)
	}

	snapshot, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, logging.NewOperationError("imagery.read_snapshot", "", err)
	}

	cropped, err := CropCenter(snapshot, cropHalf)
	if err != nil {
		return nil, logging.NewOperationError("imagery.crop", "", err)
	}
	return cropped, nil
}
