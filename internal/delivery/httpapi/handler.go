// Package httpapi exposes the quiz engine and the offline cache controller over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
)

type Handler struct {
	quizService QuizService
	quizStorage QuizStorage
	surahRepo   SurahRepository
	reciterRepo ReciterRepository
	controller  OfflineController
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	logger      *zap.Logger
}

func NewHandler(
	quizService QuizService,
	quizStorage QuizStorage,
	surahRepo SurahRepository,
	reciterRepo ReciterRepository,
	controller OfflineController,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		quizService: quizService,
		quizStorage: quizStorage,
		surahRepo:   surahRepo,
		reciterRepo: reciterRepo,
		controller:  controller,
		metrics:     m,
		gatherer:    gatherer,
		logger:      logger,
	}
}

// Router builds the route table. Everything not matched by the API falls
// through to the offline cache controller.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/surahs", h.ListSurahs).Methods(http.MethodGet)
	api.HandleFunc("/reciters", h.ListReciters).Methods(http.MethodGet)

	api.HandleFunc("/quiz", h.StartQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quiz/{id}", h.GetQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quiz/{id}/next", h.NextQuestion).Methods(http.MethodPost)
	api.HandleFunc("/quiz/{id}/answer", h.SubmitAnswer).Methods(http.MethodPost)
	api.HandleFunc("/quiz/{id}/reveal", h.RevealAnswer).Methods(http.MethodPost)
	api.HandleFunc("/quiz/{id}/focus", h.FocusQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quiz/{id}/blur", h.BlurQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quiz/{id}/finish", h.FinishQuiz).Methods(http.MethodPost)

	r.HandleFunc("/sw/message", h.PostMessage).Methods(http.MethodPost)
	r.HandleFunc("/sw/status", h.CacheStatus).Methods(http.MethodGet)

	r.PathPrefix("/").Handler(h.controller)

	return r
}

// Server wraps the router with CORS for the given origins.
func (h *Handler) Server(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	return c.Handler(h.Router())
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListSurahs(w http.ResponseWriter, r *http.Request) {
	surahs, err := h.surahRepo.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surahs)
}

func (h *Handler) ListReciters(w http.ResponseWriter, r *http.Request) {
	reciters, err := h.reciterRepo.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reciters)
}
