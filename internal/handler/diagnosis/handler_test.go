package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cropcareai/backend/internal/config"
	"github.com/cropcareai/backend/internal/store"
)

type stubDetector struct {
	prediction string
	confidence float64
	err        error
}

func (d *stubDetector) Detect(_ context.Context, _ string) (string, float64, error) {
	return d.prediction, d.confidence, d.err
}

// memoryStore keeps results in a slice, newest last.
type memoryStore struct {
	results []store.Result
}

func (m *memoryStore) SaveResult(_ context.Context, result store.Result) (store.Result, error) {
	result.ID = int64(len(m.results) + 1)
	m.results = append(m.results, result)
	return result, nil
}

func (m *memoryStore) LatestResults(_ context.Context, limit int) ([]store.Result, error) {
	var out []store.Result
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}

func (m *memoryStore) ResultByID(_ context.Context, id int64) (store.Result, error) {
	for _, result := range m.results {
		if result.ID == id {
			return result, nil
		}
	}
	return store.Result{}, store.ErrNotFound
}

func (m *memoryStore) Close() error { return nil }

func setupRouter(t *testing.T, detector Detector, results store.Store) (*chi.Mux, config.UploadConfig) {
	t.Helper()
	uploads := config.UploadConfig{Dir: t.TempDir(), MaxBytes: 16 << 20}

	r := chi.NewRouter()
	New(detector, results, uploads).RegisterRoutes(r)
	return r, uploads
}

func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 160, B: 60, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadFile(t *testing.T, r http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)
	return resp
}

func TestUploadAndDiagnose(t *testing.T) {
	results := &memoryStore{}
	detector := &stubDetector{prediction: "Tomato_Early_blight", confidence: 0.87}
	r, uploads := setupRouter(t, detector, results)

	resp := uploadFile(t, r, "leaf.png", leafPNG(t))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result store.Result
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid result payload: %v", err)
	}
	if result.ID != 1 || result.Prediction != "Tomato_Early_blight" || result.Confidence != 0.87 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The upload must be stored under a generated name, original kept out.
	if filepath.Base(result.ImagePath) == "leaf.png" {
		t.Fatalf("upload stored under its original filename: %s", result.ImagePath)
	}
	if _, err := os.Stat(result.ImagePath); err != nil {
		t.Fatalf("stored upload missing: %v", err)
	}
	if filepath.Dir(result.ImagePath) != uploads.Dir {
		t.Fatalf("upload stored outside the upload dir: %s", result.ImagePath)
	}
}

func TestUploadDetectorFailure(t *testing.T) {
	results := &memoryStore{}
	detector := &stubDetector{err: errors.New("model unavailable")}
	r, uploads := setupRouter(t, detector, results)

	resp := uploadFile(t, r, "leaf.png", leafPNG(t))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var payload map[string]string
	json.Unmarshal(resp.Body.Bytes(), &payload)
	if payload["error"] != "model unavailable" {
		t.Fatalf("unexpected error payload: %s", resp.Body.String())
	}

	if len(results.results) != 0 {
		t.Fatalf("failed diagnosis must not be persisted")
	}

	// The stored file is removed when detection fails.
	entries, err := os.ReadDir(uploads.Dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("orphaned upload left behind: %v", entries)
	}
}

func TestUploadValidation(t *testing.T) {
	r, _ := setupRouter(t, &stubDetector{}, &memoryStore{})

	// Missing file field.
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing file, got %d", resp.Code)
	}

	// Unsupported extension.
	resp = uploadFile(t, r, "notes.txt", []byte("not an image"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported type, got %d", resp.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	uploads := config.UploadConfig{Dir: t.TempDir(), MaxBytes: 512}
	r := chi.NewRouter()
	New(&stubDetector{}, &memoryStore{}, uploads).RegisterRoutes(r)

	resp := uploadFile(t, r, "leaf.png", bytes.Repeat([]byte{0xff}, 4096))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized upload, got %d", resp.Code)
	}

	var payload map[string]string
	json.Unmarshal(resp.Body.Bytes(), &payload)
	if payload["error"] != "upload exceeds the size limit" {
		t.Fatalf("unexpected error payload: %s", resp.Body.String())
	}
}

func TestResultsHistory(t *testing.T) {
	results := &memoryStore{}
	r, _ := setupRouter(t, &stubDetector{prediction: "Apple_Black_rot", confidence: 0.8}, results)

	// Empty history serves an empty array, not null.
	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := bytes.TrimSpace(resp.Body.Bytes()); !bytes.Equal(body, []byte("[]")) {
		t.Fatalf("expected empty array, got %s", body)
	}

	for i := 0; i < 3; i++ {
		if resp := uploadFile(t, r, "leaf.png", leafPNG(t)); resp.Code != http.StatusOK {
			t.Fatalf("upload %d failed: %d", i, resp.Code)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/results", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var history []store.Result
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("invalid history payload: %v", err)
	}
	if len(history) != 3 || history[0].ID != 3 {
		t.Fatalf("expected newest-first history of 3, got %+v", history)
	}
}

func TestResultByID(t *testing.T) {
	results := &memoryStore{}
	results.SaveResult(context.Background(), store.Result{Prediction: "Cherry_Powdery_mildew", Confidence: 0.91})
	r, _ := setupRouter(t, &stubDetector{}, results)

	req := httptest.NewRequest(http.MethodGet, "/result/1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result store.Result
	json.Unmarshal(resp.Body.Bytes(), &result)
	if result.Prediction != "Cherry_Powdery_mildew" {
		t.Fatalf("unexpected result: %+v", result)
	}

	req = httptest.NewRequest(http.MethodGet, "/result/99", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/result/abc", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.Code)
	}
}
