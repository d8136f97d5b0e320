package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signalweekly/newsletter/internal/pkg/httputil"
	"github.com/signalweekly/newsletter/internal/wizard"
)

// wizardResponse is the envelope for all wizard endpoints: current state
// plus whatever assistant messages this request produced.
type wizardResponse struct {
	SessionID string           `json:"session_id"`
	State     wizard.State     `json:"state"`
	Messages  []wizard.Message `json:"messages"`
}

// HandleOpenWizard creates a fresh chat session. The response carries the
// greeting so the widget can render it immediately.
func (h *Handlers) HandleOpenWizard(w http.ResponseWriter, r *http.Request) {
	s, err := h.wiz.Open(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, wizardResponse{
		SessionID: s.ID,
		State:     s.State,
		Messages:  s.Transcript,
	})
}

// HandleGetWizard returns the session's current state and full transcript,
// used by the widget to re-hydrate after a page reload.
func (h *Handlers) HandleGetWizard(w http.ResponseWriter, r *http.Request) {
	s, err := h.wiz.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		httputil.OK(w, wizardResponse{SessionID: s.ID, State: s.State, Messages: s.Transcript})
	case errors.Is(err, wizard.ErrSessionNotFound):
		httputil.NotFound(w, "session not found")
	default:
		httputil.InternalError(w, err)
	}
}

type wizardMessageRequest struct {
	Content string `json:"content"`
}

// HandleWizardMessage feeds one visitor reply into the session's state
// machine and returns the assistant messages it produced. Invalid age or
// email input is not an HTTP error: the correction request comes back as a
// chat message with the state unchanged.
func (h *Handlers) HandleWizardMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req wizardMessageRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	s, msgs, err := h.wiz.HandleMessage(r.Context(), id, req.Content)
	switch {
	case err == nil:
		httputil.OK(w, wizardResponse{SessionID: s.ID, State: s.State, Messages: msgs})
	case errors.Is(err, wizard.ErrSessionNotFound):
		httputil.NotFound(w, "session not found")
	case errors.Is(err, wizard.ErrSessionComplete):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// HandleCloseWizard discards the session. Idempotent; the widget calls this
// on close regardless of how far the visitor got.
func (h *Handlers) HandleCloseWizard(w http.ResponseWriter, r *http.Request) {
	if err := h.wiz.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"success": true})
}
