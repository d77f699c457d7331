package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rdapgate/internal/audit"
	"rdapgate/internal/platform/middleware"
	"rdapgate/internal/rdap"
	dErrors "rdapgate/pkg/domain-errors"
)

// LookupService is the domain surface the transport depends on.
type LookupService interface {
	Lookup(ctx context.Context, qt rdap.QueryType, value string, sec rdap.SecurityContext) (rdap.NormalizedRecord, error)
	Invalidate(ctx context.Context, qt rdap.QueryType, value string, sec rdap.SecurityContext) error
}

// AuditReader exposes stored audit events to the admin surface.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	ListByCategory(ctx context.Context, category audit.EventCategory, limit int) ([]audit.Event, error)
}

// Handler is the thin HTTP layer. It delegates to the lookup service without
// embedding pipeline logic so transport concerns stay isolated.
type Handler struct {
	lookup              LookupService
	auditReader         AuditReader
	logger              *slog.Logger
	defaultJurisdiction string
}

func NewHandler(lookup LookupService, auditReader AuditReader, logger *slog.Logger, defaultJurisdiction string) *Handler {
	return &Handler{
		lookup:              lookup,
		auditReader:         auditReader,
		logger:              logger,
		defaultJurisdiction: defaultJurisdiction,
	}
}

// securityContext builds the per-request posture from query parameters.
// Redaction is on unless explicitly disabled.
func (h *Handler) securityContext(r *http.Request) rdap.SecurityContext {
	q := r.URL.Query()
	jurisdiction := q.Get("jurisdiction")
	if jurisdiction == "" {
		jurisdiction = h.defaultJurisdiction
	}
	return rdap.SecurityContext{
		Jurisdiction: strings.ToUpper(jurisdiction),
		LegalBasis:   q.Get("legal_basis"),
		RedactPII:    q.Get("redact") != "false",
	}
}

func (h *Handler) handleDomain(w http.ResponseWriter, r *http.Request) {
	h.serveLookup(w, r, rdap.QueryDomain, chi.URLParam(r, "name"))
}

func (h *Handler) handleIP(w http.ResponseWriter, r *http.Request) {
	// Prefix queries carry a slash ("192.0.2.0/24"), so the route is a
	// catch-all and the value is the remaining path.
	h.serveLookup(w, r, rdap.QueryIP, chi.URLParam(r, "*"))
}

func (h *Handler) handleAutnum(w http.ResponseWriter, r *http.Request) {
	h.serveLookup(w, r, rdap.QueryASN, chi.URLParam(r, "asn"))
}

func (h *Handler) serveLookup(w http.ResponseWriter, r *http.Request, qt rdap.QueryType, value string) {
	record, err := h.lookup.Lookup(r.Context(), qt, value, h.securityContext(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, record)
}

// handleCacheInvalidate drops a single cache entry. Admin only.
func (h *Handler) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	qt := rdap.QueryType(q.Get("type"))
	value := q.Get("value")
	if value == "" {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "missing value parameter"))
		return
	}
	sec := rdap.SecurityContext{
		Jurisdiction: strings.ToUpper(q.Get("jurisdiction")),
		RedactPII:    q.Get("redact") != "false",
	}
	if sec.Jurisdiction == "" {
		sec.Jurisdiction = h.defaultJurisdiction
	}
	if err := h.lookup.Invalidate(r.Context(), qt, value, sec); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "invalidated"})
}

// handleAuditEvents lists recent audit events. Admin only.
func (h *Handler) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 100
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 1000"))
			return
		}
		limit = parsed
	}

	var (
		events []audit.Event
		err    error
	)
	if category := q.Get("category"); category != "" {
		events, err = h.auditReader.ListByCategory(r.Context(), audit.EventCategory(category), limit)
	} else {
		events, err = h.auditReader.ListRecent(r.Context(), limit)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"code", code,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": string(code)})
}
