package diagnosis

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cropcareai/backend/internal/config"
	"github.com/cropcareai/backend/internal/store"
	"github.com/cropcareai/backend/pkg/utils"
)

const historyLimit = 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Detector classifies a stored leaf photo.
type Detector interface {
	Detect(ctx context.Context, imagePath string) (prediction string, confidence float64, err error)
}

// Handler serves the upload endpoint and the diagnosis history.
type Handler struct {
	detector Detector
	results  store.Store
	uploads  config.UploadConfig
}

// New creates the diagnosis handler.
func New(detector Detector, results store.Store, uploads config.UploadConfig) *Handler {
	return &Handler{
		detector: detector,
		results:  results,
		uploads:  uploads,
	}
}

// RegisterRoutes mounts the diagnosis endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.handleUpload)
	r.Get("/results", h.handleResults)
	r.Get("/result/{resultID}", h.handleResult)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		utils.RespondError(w, http.StatusBadRequest, "no file selected")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.RespondError(w, http.StatusBadRequest, "unsupported file type, expected an image")
		return
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	imagePath := filepath.Join(h.uploads.Dir, uuid.NewString()+ext)
	if err := writeUpload(imagePath, file); err != nil {
		log.Printf("[upload] failed to store %s: %v", header.Filename, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	prediction, confidence, err := h.detector.Detect(r.Context(), imagePath)
	if err != nil {
		// The stored file is useless without a diagnosis.
		os.Remove(imagePath)
		log.Printf("[upload] detection failed for %s: %v", imagePath, err)
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.results.SaveResult(r.Context(), store.Result{
		ImagePath:  imagePath,
		Prediction: prediction,
		Confidence: confidence,
	})
	if err != nil {
		log.Printf("[upload] failed to persist result for %s: %v", imagePath, err)
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[upload] diagnosed %s as %s (%.2f)", imagePath, prediction, confidence)
	utils.RespondJSON(w, http.StatusOK, result)
}

func writeUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.LatestResults(r.Context(), historyLimit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []store.Result{}
	}

	utils.RespondJSON(w, http.StatusOK, results)
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid result id")
		return
	}

	result, err := h.results.ResultByID(r.Context(), id)
	if err == store.ErrNotFound {
		utils.RespondError(w, http.StatusNotFound, "result not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
