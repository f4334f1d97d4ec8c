// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"vpn_reviews/internal/app"
	"vpn_reviews/internal/domain"
)

// Submissions are small JSON documents; anything bigger is abuse.
const maxSubmitBody = 32 << 10

type Handlers struct {
	Sub      *app.SubmissionService
	Mod      *app.ModerationService
	Votes    *app.VotingService
	Q        *app.QueryService
	ModToken string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/providers/{slug}/reviews", h.submitReview)
	s.mux.Get("/v1/providers/{slug}/reviews", h.listReviews)
	s.mux.Post("/v1/reviews/{id}/votes", h.vote)

	s.mux.Route("/v1/moderation", func(r chi.Router) {
		r.Use(RequireToken(h.ModToken))
		r.Get("/reviews", h.listPending)
		r.Post("/reviews/{id}/approve", h.decision(h.Mod.Approve))
		r.Post("/reviews/{id}/reject", h.decision(h.Mod.Reject))
		r.Post("/reviews/{id}/feature", h.decision(h.Mod.Feature))
	})
}

func selectLocale(al string) string {
	s := strings.ToLower(al)
	if strings.HasPrefix(s, "fr") {
		return "fr"
	}
	if strings.HasPrefix(s, "es") {
		return "es"
	}
	return "en"
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainErr maps the error taxonomy onto status codes: validation 400,
// not found 404, invariant violations 409, anything else 500.
func writeDomainErr(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", ve.Reason)
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
	case errors.Is(err, domain.ErrInvariant):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

type submitRequest struct {
	AuthorName  string   `json:"authorName"`
	AuthorEmail string   `json:"authorEmail"`
	Rating      int      `json:"rating"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	UsageType   *string  `json:"usageType"`
	UsagePeriod *string  `json:"usagePeriod"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req submitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be a JSON review")
		return
	}

	id, err := h.Sub.Submit(r.Context(), domain.ReviewDraft{
		VPNSlug:     slug,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Rating:      req.Rating,
		Title:       req.Title,
		Content:     req.Content,
		UsageType:   req.UsageType,
		UsagePeriod: req.UsagePeriod,
		Pros:        req.Pros,
		Cons:        req.Cons,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = selectLocale(r.Header.Get("Accept-Language"))
	}

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}

	out, err := h.Q.ListApproved(r.Context(), slug, locale, limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

type voteRequest struct {
	Kind string `json:"kind"`
}

func (h *Handlers) vote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", `body must be {"kind":"helpful"|"unhelpful"}`)
		return
	}

	count, err := h.Votes.Vote(r.Context(), id, domain.VoteKind(req.Kind))
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]int64{"count": count})
}

func (h *Handlers) listPending(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	out, err := h.Q.ListPending(r.Context(), limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

// decision wraps the approve/reject/feature calls, which only differ in the
// service method.
func (h *Handlers) decision(fn func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
			return
		}
		if err := fn(r.Context(), id); err != nil {
			writeDomainErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
