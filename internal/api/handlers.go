package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/linkfinder/internal/apperr"
	"github.com/starford/linkfinder/internal/linkservice"
	"github.com/starford/linkfinder/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *linkservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *linkservice.Service) *Handler {
	return &Handler{svc: svc}
}

// documentPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes (e.g. topics%2Fnote.md).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Query handles GET /api/query.
//
//	@Summary		Ranked link targets for typed text
//	@Tags			links
//	@Produce		json
//	@Param			q	query		string	true	"Typed text"
//	@Success		200	{object}	QueryResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query [get]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeResponse(w, r, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	writeResponse(w, r, http.StatusOK, QueryResponse{
		Query:   q,
		Matches: h.svc.Query(r.Context(), q),
	})
}

// Resolve handles POST /api/resolve.
//
//	@Summary		Find the span to link around a cursor
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Line and cursor"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	span, ok := h.svc.Resolve(r.Context(), req.Line, req.Cursor)
	resp := ResolveResponse{Found: ok}
	if ok {
		resp.Span = &span
	}
	writeResponse(w, r, http.StatusOK, resp)
}

// Suggest handles POST /api/suggest.
//
//	@Summary		Resolve the span around a cursor and query it
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Line and cursor"
//	@Success		200		{object}	SuggestResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/suggest [post]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp := SuggestResponse{Matches: []models.Match{}}
	if s, ok := h.svc.Suggest(r.Context(), req.Line, req.Cursor); ok {
		resp.Found = true
		resp.Span = &s.Span
		resp.Matches = s.Matches
	}
	writeResponse(w, r, http.StatusOK, resp)
}

// Link handles POST /api/link.
//
//	@Summary		Format the link for an indexed entry
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LinkRequest	true	"Entry and label"
//	@Success		200		{object}	LinkResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/link [post]
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !h.decode(w, r, &req) {
		return
	}
	link, err := h.svc.FormatLink(r.Context(), req.Entry, req.Label)
	if err != nil {
		h.fail(w, r, "format link", err)
		return
	}
	writeResponse(w, r, http.StatusOK, LinkResponse{Link: link})
}

// ApplyLink handles POST /api/documents/*.
//
//	@Summary		Replace a span of a document line with a link
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string				true	"Document path"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		ApplyLinkRequest	true	"Span and entry"
//	@Success		200			{object}	ApplyLinkResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [post]
func (h *Handler) ApplyLink(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeResponse(w, r, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req ApplyLinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	res, err := h.svc.ApplyLink(r.Context(), linkservice.ApplyRequest{
		Path:    path,
		Line:    req.Line,
		Start:   req.Start,
		End:     req.End,
		Entry:   req.Entry,
		Label:   req.Label,
		IfMatch: ifMatch,
	})
	if err != nil {
		h.fail(w, r, "apply link", err)
		return
	}
	w.Header().Set("ETag", `"`+res.Checksum+`"`)
	writeResponse(w, r, http.StatusOK, res)
}

// Rebuild handles POST /api/rebuild.
//
//	@Summary		Rebuild the index from the vault
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	RebuildResponse
//	@Success		202	{object}	RebuildResponse	"A rebuild is already running"
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ran, err := h.svc.Rebuild(r.Context())
	if err != nil {
		h.fail(w, r, "rebuild", err)
		return
	}
	status := http.StatusOK
	if !ran {
		status = http.StatusAccepted
	}
	writeResponse(w, r, status, RebuildResponse{Started: ran, Stats: h.svc.Stats()})
}

// Stats handles GET /api/stats.
//
//	@Summary		Index counters
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	linkservice.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, h.svc.Stats())
}

// validatable is implemented by request DTOs.
type validatable interface {
	Validate() error
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v validatable) bool {
	if err := decodeBody(w, r, v); err != nil {
		writeResponse(w, r, http.StatusBadRequest, errorBody("invalid request body"))
		return false
	}
	if err := v.Validate(); err != nil {
		writeResponse(w, r, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeResponse(w, r, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrUnknownEntry):
		writeResponse(w, r, http.StatusNotFound, errorBody("unknown entry"))
	case errors.Is(err, apperr.ErrConflict):
		writeResponse(w, r, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrInvalidSpan):
		writeResponse(w, r, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeResponse(w, r, http.StatusInternalServerError, errorBody("internal error"))
	}
}
