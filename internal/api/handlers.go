package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/signalweekly/newsletter/internal/export"
	"github.com/signalweekly/newsletter/internal/pkg/httputil"
	"github.com/signalweekly/newsletter/internal/service/newsletter"
	"github.com/signalweekly/newsletter/internal/wizard"
)

// Handlers provides HTTP handlers for the newsletter API.
type Handlers struct {
	svc *newsletter.Service
	wiz *wizard.Controller
}

// NewHandlers creates the API handler set.
func NewHandlers(svc *newsletter.Service, wiz *wizard.Controller) *Handlers {
	return &Handlers{svc: svc, wiz: wiz}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Age    int    `json:"age"`
	Source string `json:"source"`
}

// HandleSubscribe creates or reactivates a subscription. Public endpoint:
// the hero form and any future embed post here.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	sub, err := h.svc.Subscribe(r.Context(), req.Email, req.Age, req.Source)
	switch {
	case err == nil:
		httputil.Created(w, map[string]interface{}{
			"success": true,
			"message": "Successfully subscribed!",
			"email":   sub.Email,
		})
	case errors.Is(err, newsletter.ErrInvalidEmail), errors.Is(err, newsletter.ErrInvalidAge):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, newsletter.ErrAlreadySubscribed):
		httputil.Conflict(w, "Email already subscribed")
	default:
		httputil.InternalError(w, err)
	}
}

// HandleStats returns subscriber counts by status. Admin only (enforced by
// the RequireAdmin middleware on the route group).
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, stats)
}

// HandleListSubscribers returns a filtered, paginated subscriber list,
// newest first. Admin only.
func (h *Handlers) HandleListSubscribers(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilterFromQuery(w, r)
	if !ok {
		return
	}

	subs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, map[string]interface{}{
		"subscribers": subs,
		"count":       len(subs),
	})
}

// HandleDeleteSubscriber removes a subscriber by email. Admin only,
// idempotent: deleting an absent email still succeeds.
func (h *Handlers) HandleDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	err := h.svc.Delete(r.Context(), email)
	switch {
	case err == nil:
		httputil.OK(w, map[string]bool{"success": true})
	case errors.Is(err, newsletter.ErrInvalidEmail):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// HandleExportSubscribers streams the subscriber list as the dashboard's
// CSV artifact. Admin only. The same status filter as the list endpoint
// applies; the export is capped at 10000 rows per request.
func (h *Handlers) HandleExportSubscribers(w http.ResponseWriter, r *http.Request) {
	filter, ok := listFilterFromQuery(w, r)
	if !ok {
		return
	}
	if filter.Limit <= 0 {
		filter.Limit = 10000
	}

	subs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(export.SubscribersCSV(subs)))
}

func listFilterFromQuery(w http.ResponseWriter, r *http.Request) (newsletter.ListFilter, bool) {
	q := r.URL.Query()
	filter := newsletter.ListFilter{Status: q.Get("status")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return filter, false
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "offset must be a non-negative integer")
			return filter, false
		}
		filter.Offset = n
	}
	return filter, true
}
