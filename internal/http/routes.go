package httpapp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/auth"
	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/http/dto"
)

func (h *Handler) ValidateLink(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateLinkRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Artists.ValidateLink(r.Context(), req.URL, req.PlatformHint)
	if err != nil {
		h.writeError(w, r, "validate_link", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Artists.ListPlatforms(r.Context())
	if err != nil {
		h.writeError(w, r, "list_platforms", err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

// Artists

func (h *Handler) SearchArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.Artists.SearchByName(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, "search_artists", err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

// SearchByProperty takes a single {"<column>": "<value>"} object.
func (h *Handler) SearchByProperty(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "body must be a JSON object of strings", Error: apperr.CodeInvalid})
		return
	}
	if len(body) != 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "exactly one property is required", Error: apperr.CodeInvalid})
		return
	}

	var column, value string
	for k, v := range body {
		column, value = k, v
	}
	artist, err := h.Artists.GetArtistByProperty(r.Context(), column, value)
	if err != nil {
		h.writeError(w, r, "search_by_property", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": artist})
}

func (h *Handler) AddArtist(w http.ResponseWriter, r *http.Request) {
	var req dto.AddArtistRequest
	if !decode(w, r, &req) {
		return
	}
	artist, created, err := h.Artists.AddArtist(r.Context(), auth.ActorFrom(r.Context()), req.SpotifyID)
	if err != nil {
		h.writeError(w, r, "add_artist", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, artist)
}

func (h *Handler) GetArtist(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Artists.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get_artist", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) GetArtistLinks(w http.ResponseWriter, r *http.Request) {
	artist, err := h.Artists.GetArtist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get_artist_links", err)
		return
	}
	links, err := h.Artists.GetArtistLinks(r.Context(), artist)
	if err != nil {
		h.writeError(w, r, "get_artist_links", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *Handler) GetAvailableLinks(w http.ResponseWriter, r *http.Request) {
	artist, err := h.Artists.GetArtist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get_available_links", err)
		return
	}
	configs, err := h.Artists.GetAvailableLinks(r.Context(), artist)
	if err != nil {
		h.writeError(w, r, "get_available_links", err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *Handler) AddArtistLink(w http.ResponseWriter, r *http.Request) {
	var req dto.AddLinkRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Artists.AddArtistData(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"), req.URL)
	if err != nil {
		h.writeError(w, r, "add_artist_data", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) RemoveArtistLink(w http.ResponseWriter, r *http.Request) {
	artist, err := h.Artists.RemoveArtistData(r.Context(), auth.ActorFrom(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "site"))
	if err != nil {
		h.writeError(w, r, "remove_artist_data", err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (h *Handler) GetBio(w http.ResponseWriter, r *http.Request) {
	bio, err := h.Bio.GetBio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get_bio", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"bio": bio})
}

func (h *Handler) RegenerateBio(w http.ResponseWriter, r *http.Request) {
	bio, err := h.Bio.RegenerateBio(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "regenerate_bio", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"bio": bio})
}

// UGC

// SubmitUGC reports domain failures in the body as status "error" while keeping the
// HTTP status of the failure.
func (h *Handler) SubmitUGC(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitUGCRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.UGC.Submit(r.Context(), auth.ActorFrom(r.Context()), req.ToSubmit())
	if err != nil {
		if e, ok := apperr.As(err); ok {
			writeJSON(w, e.Status, map[string]string{"status": "error", "message": e.Error(), "error": e.Code})
			return
		}
		h.writeError(w, r, "submit_ugc", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) AcceptUGC(w http.ResponseWriter, r *http.Request) {
	row, err := h.UGC.Accept(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "accept_ugc", err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *Handler) RejectUGC(w http.ResponseWriter, r *http.Request) {
	row, err := h.UGC.Reject(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "reject_ugc", err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *Handler) ApproveUGC(w http.ResponseWriter, r *http.Request) {
	var req dto.ApproveRequest
	if !decode(w, r, &req) {
		return
	}
	results, err := h.UGC.ApproveAdmin(r.Context(), auth.ActorFrom(r.Context()), req.UGCIDs)
	if err != nil {
		h.writeError(w, r, "approve_ugc", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) ListPendingUGC(w http.ResponseWriter, r *http.Request) {
	rows, err := h.UGC.ListPending(r.Context(), auth.ActorFrom(r.Context()), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, "list_pending_ugc", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListMyUGC(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFrom(r.Context())
	if actor == nil {
		h.writeError(w, r, "list_my_ugc", apperr.Unauthorized("not signed in"))
		return
	}
	rows, err := h.UGC.ListForUser(r.Context(), actor.ID, queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, "list_my_ugc", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Leaderboard

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, ferr := dto.ParseDateParam("from", q.Get("from"), false)
	to, terr := dto.ParseDateParam("to", q.Get("to"), true)
	var errs []dto.ValidationError
	for _, e := range []*dto.ValidationError{ferr, terr} {
		if e != nil {
			errs = append(errs, *e)
		}
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	entries, err := h.Leaderboard.GetLeaderboardInRange(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, "leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Auth and users

func (h *Handler) Nonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := h.Users.Nonce(r.Context())
	if err != nil {
		h.writeError(w, r, "nonce", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"nonce": nonce})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SIWERequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Users.Login(r.Context(), req.Message, req.Signature)
	if err != nil {
		h.writeError(w, r, "sign_in", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Me(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Users.UpdateProfile(r.Context(), auth.ActorFrom(r.Context()), req.ToUpdate())
	if err != nil {
		h.writeError(w, r, "update_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListWhitelist(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListWhitelist(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, "list_whitelist", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) AddToWhitelist(w http.ResponseWriter, r *http.Request) {
	var req dto.WhitelistRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Users.AddToWhitelist(r.Context(), auth.ActorFrom(r.Context()), req.Wallet)
	if err != nil {
		h.writeError(w, r, "add_to_whitelist", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) RemoveFromWhitelist(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.RemoveFromWhitelist(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, "remove_from_whitelist", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Coverage

// AppendCoverage is admin only; CI posts with an admin session token.
func (h *Handler) AppendCoverage(w http.ResponseWriter, r *http.Request) {
	if !auth.ActorFrom(r.Context()).CanAdmin() {
		h.writeError(w, r, "append_coverage", apperr.Forbidden("admin only"))
		return
	}
	var req dto.CoverageRequest
	if !decode(w, r, &req) {
		return
	}
	report := req.ToReport()
	if err := h.Coverage.Append(r.Context(), report); err != nil {
		h.writeError(w, r, "append_coverage", err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) ListCoverage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.Coverage.List(r.Context(), q.Get("repository"), q.Get("branch"), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, "list_coverage", err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}
