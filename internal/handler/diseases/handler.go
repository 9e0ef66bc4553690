package diseases

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cropcareai/backend/internal/model/catalog"
	"github.com/cropcareai/backend/pkg/utils"
)

// Handler exposes the disease catalog to the frontend.
type Handler struct {
	diseases catalog.Store
}

// New creates the catalog handler.
func New(diseases catalog.Store) *Handler {
	return &Handler{diseases: diseases}
}

// RegisterRoutes mounts the catalog endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/diseases", h.handleListDiseases)
}

func (h *Handler) handleListDiseases(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.diseases.List())
}
