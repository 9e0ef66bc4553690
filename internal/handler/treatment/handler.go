package treatment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cropcareai/backend/internal/service/advisor"
	"github.com/cropcareai/backend/pkg/utils"
)

// Advisor is the slice of the advisor service this endpoint needs.
type Advisor interface {
	TreatmentFor(ctx context.Context, disease string) string
}

// Handler serves treatment recommendations for a diagnosed disease.
type Handler struct {
	advisor Advisor
}

// New creates the treatment handler. advisor may be nil; recommendations then
// come from the canned fallback.
func New(adv Advisor) *Handler {
	return &Handler{advisor: adv}
}

// RegisterRoutes mounts the treatment endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/get_treatment", h.handleGetTreatment)
}

func (h *Handler) handleGetTreatment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Disease string `json:"disease"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	disease := strings.TrimSpace(payload.Disease)
	if disease == "" {
		utils.RespondError(w, http.StatusBadRequest, "disease name is required")
		return
	}

	var treatment string
	if h.advisor != nil {
		treatment = h.advisor.TreatmentFor(r.Context(), disease)
	} else {
		treatment = advisor.FallbackTreatment(disease)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"treatment": treatment})
}
