package segmenter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSegmentDecodesMask(t *testing.T) {
	mask := []byte{0, 4, 4, 5}
	confidences := []float32{0.9, 0.8, 0.7, 0.1}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/segment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("unexpected content type: %s", ct)
		}
		_ = json.NewEncoder(w).Encode(segmentResponse{
			Width:       2,
			Height:      2,
			Classes:     mask,
			Confidences: confidences,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())
	seg, err := client.Segment(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seg.Width != 2 || seg.Height != 2 {
		t.Fatalf("unexpected dimensions: %dx%d", seg.Width, seg.Height)
	}
	want := []Class{ClassBuilding, ClassWater, ClassWater, ClassUnlabeled}
	for i, c := range seg.Classes {
		if c != want[i] {
			t.Fatalf("pixel %d: got %s, want %s", i, c, want[i])
		}
	}
	if seg.Confidences[3] != 0.1 {
		t.Fatalf("unexpected confidence: %v", seg.Confidences[3])
	}
}

func TestSegmentRejectsMismatchedMask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(segmentResponse{
			Width:       2,
			Height:      2,
			Classes:     []byte{0, 1},
			Confidences: []float32{0.9, 0.8, 0.7, 0.1},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())
	if _, err := client.Segment(context.Background(), []byte("png")); err == nil {
		t.Fatal("expected error for truncated mask")
	}
}

func TestSegmentRejectsUnknownClassIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(segmentResponse{
			Width:       1,
			Height:      1,
			Classes:     []byte{42},
			Confidences: []float32{0.9},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())
	if _, err := client.Segment(context.Background(), []byte("png")); err == nil {
		t.Fatal("expected error for unknown class index")
	}
}

func TestSegmentSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())
	if _, err := client.Segment(context.Background(), []byte("png")); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestHealthy(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, zap.NewNop())
	if err := client.Healthy(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}

	healthy = false
	if err := client.Healthy(context.Background()); err == nil {
		t.Fatal("expected error when sidecar is down")
	}
}
