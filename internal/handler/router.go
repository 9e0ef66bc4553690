package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cropcareai/backend/internal/config"
	chatHandler "github.com/cropcareai/backend/internal/handler/chat"
	"github.com/cropcareai/backend/internal/handler/diagnosis"
	"github.com/cropcareai/backend/internal/handler/diseases"
	"github.com/cropcareai/backend/internal/handler/live"
	"github.com/cropcareai/backend/internal/handler/stream"
	"github.com/cropcareai/backend/internal/handler/treatment"
	middlewarePkg "github.com/cropcareai/backend/internal/middleware"
	"github.com/cropcareai/backend/internal/model/catalog"
	advisorService "github.com/cropcareai/backend/internal/service/advisor"
	chatService "github.com/cropcareai/backend/internal/service/chat"
	"github.com/cropcareai/backend/internal/store"
	"github.com/cropcareai/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. advisorSvc may be nil when no
// model credentials are configured; chat and treatment then degrade to canned
// replies and the SSE endpoint reports unavailability.
func NewRouter(diseaseCatalog catalog.Store, chatSvc *chatService.Service, advisorSvc *advisorService.Service, detector diagnosis.Detector, results store.Store, uploads config.UploadConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// A nil *Service must not become a non-nil interface value.
	var chatAdvisor chatHandler.Advisor
	var treatmentAdvisor treatment.Advisor
	if advisorSvc != nil {
		chatAdvisor = advisorSvc
		treatmentAdvisor = advisorSvc
	}

	diseasesH := diseases.New(diseaseCatalog)
	chatH := chatHandler.New(chatSvc, chatAdvisor, diseaseCatalog)
	treatmentH := treatment.New(treatmentAdvisor)
	diagnosisH := diagnosis.New(detector, results, uploads)
	liveH := live.New(chatSvc, chatAdvisor, diseaseCatalog)

	var streamH *stream.Handler
	if advisorSvc != nil {
		streamH = stream.New(advisorSvc, chatSvc, diseaseCatalog)
	}

	r.Route("/api", func(api chi.Router) {
		diseasesH.RegisterRoutes(api)
		chatH.RegisterRoutes(api)
		treatmentH.RegisterRoutes(api)
		diagnosisH.RegisterRoutes(api)
		liveH.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamH == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamH.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
