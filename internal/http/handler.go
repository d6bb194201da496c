package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/musicnerd/musicnerd/internal/app"
	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/auth"
	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/http/dto"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
)

type Handler struct {
	Artists     *app.ArtistService
	UGC         *app.UGCService
	Leaderboard *app.LeaderboardService
	Users       *app.UserService
	Bio         *app.BioService
	Coverage    *app.CoverageService
	Logger      *logger.Logger

	// SecureCookies marks the session cookie Secure; off for local http.
	SecureCookies bool
}

// NewRouter mounts every route behind the shared middleware stack.
func NewRouter(h *Handler, authn *auth.Authenticator, m *metrics.Metrics, health func(r *http.Request) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(m.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware)
		h.RegisterRoutes(r)
	})
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/links/validate", h.ValidateLink)
	r.Get("/platforms", h.ListPlatforms)

	r.Route("/ugc", func(r chi.Router) {
		r.Post("/", h.SubmitUGC)
		r.Get("/pending", h.ListPendingUGC)
		r.Get("/mine", h.ListMyUGC)
		r.Post("/admin/approve", h.ApproveUGC)
		r.Post("/{id}/accept", h.AcceptUGC)
		r.Post("/{id}/reject", h.RejectUGC)
	})

	r.Get("/leaderboard", h.GetLeaderboard)

	r.Route("/artists", func(r chi.Router) {
		r.Post("/", h.AddArtist)
		r.Get("/search", h.SearchArtists)
		r.Post("/search-by-property", h.SearchByProperty)
		r.Get("/{id}", h.GetArtist)
		r.Get("/{id}/links", h.GetArtistLinks)
		r.Post("/{id}/links", h.AddArtistLink)
		r.Delete("/{id}/links/{site}", h.RemoveArtistLink)
		r.Get("/{id}/available-links", h.GetAvailableLinks)
		r.Get("/{id}/bio", h.GetBio)
		r.Post("/{id}/bio", h.RegenerateBio)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/nonce", h.Nonce)
		r.Post("/siwe", h.SignIn)
		r.Get("/me", h.Me)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/whitelist", h.ListWhitelist)
		r.Post("/whitelist", h.AddToWhitelist)
		r.Delete("/whitelist/{id}", h.RemoveFromWhitelist)
		r.Patch("/me", h.UpdateProfile)
	})

	r.Route("/coverage", func(r chi.Router) {
		r.Post("/", h.AppendCoverage)
		r.Get("/", h.ListCoverage)
	})
}

type errorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports typed errors with their own status and message; anything else
// is logged and hidden behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperr.StatusOf(err)
	msg := err.Error()
	if _, ok := apperr.As(err); !ok {
		h.Logger.Error("Request failed",
			"op", op,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Message: msg, Error: apperr.CodeOf(err)})
}

func writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Message: dto.ToResponse(errs),
		Error:   apperr.CodeInvalid,
		Fields:  dto.ToMap(errs),
	})
}

type validatable interface {
	Validate() []dto.ValidationError
}

// decode reads a bounded JSON body into v and runs its validation. It writes the
// 400 itself and returns false on any problem.
func decode(w http.ResponseWriter, r *http.Request, v validatable) bool {
	body := http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		msg := "malformed JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg, Error: apperr.CodeInvalid})
		return false
	}
	if errs := v.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return false
	}
	return true
}
