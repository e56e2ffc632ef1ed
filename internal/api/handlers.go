package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	c *console.Console
}

// NewHandler creates a new Handler.
func NewHandler(c *console.Console) *Handler {
	return &Handler{c: c}
}

// Screen handles GET /api/screen.
//
//	@Summary		Current screen, navigation and notification
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	ScreenResponse
//	@Router			/screen [get]
func (h *Handler) Screen(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.c.Screen())
}

// Login handles POST /api/session/login. The response arrives after the
// simulated verification delay.
//
//	@Summary		Log in with the reference credentials
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	ScreenResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/session/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.c.Session.Login(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.c.Screen())
}

// Signup handles POST /api/session/signup.
//
//	@Summary		Create an account
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignupRequest	true	"Signup form"
//	@Success		200		{object}	ScreenResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/session/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.c.Session.Signup(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.c.Screen())
}

// ShowScreen handles POST /api/session/screen.
func (h *Handler) ShowScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.c.Session.Show(req.Screen); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.c.Screen())
}

// SubmitSuggestion handles POST /api/suggestions from the public form.
//
//	@Summary		Submit a lead from the public suggestion form
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Lead	true	"Lead"
//	@Success		201		{object}	models.Lead
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/suggestions [post]
func (h *Handler) SubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if !decodeBody(w, r, &lead) {
		return
	}
	added, err := h.c.SubmitSuggestion(lead)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// Logout handles POST /api/session/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.c.Session.Logout(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.c.Screen())
}

// Navigation handles GET /api/navigation.
func (h *Handler) Navigation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.c.Nav.State())
}

// Navigate handles POST /api/navigation.
//
//	@Summary		Switch the active view, optionally deep-linking into it
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NavigateRequest	true	"Target"
//	@Success		200		{object}	navigation.State
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/navigation [post]
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.c.Nav.Navigate(req.View, req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Acknowledge handles POST /api/navigation/ack.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	var req AcknowledgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"acknowledged": h.c.Nav.Acknowledge(req.ID),
		"state":        h.c.Nav.State(),
	})
}

// Sidebar handles POST /api/navigation/sidebar.
func (h *Handler) Sidebar(w http.ResponseWriter, r *http.Request) {
	var req SidebarRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Open == nil {
		writeJSON(w, http.StatusOK, h.c.Nav.ToggleSidebar())
		return
	}
	writeJSON(w, http.StatusOK, h.c.Nav.SetSidebarOpen(*req.Open))
}

// View handles GET /api/views/{view}: the view's capabilities, its pending
// action and the collections it reads.
//
//	@Summary		Render context of a feature view
//	@Tags			views
//	@Produce		json
//	@Param			view	path		string	true	"View"	Enums(Dashboard, Prospek, Klien, Proyek, Tim, Keuangan, Kalender, Paket, Pengaturan)
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view} [get]
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	vc, err := h.c.View(models.ViewType(chi.URLParam(r, "view")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := vc.Data()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ViewResponse{ViewContext: vc, Data: data})
}

// ClearViewAction handles POST /api/views/{view}/clear-action.
func (h *Handler) ClearViewAction(w http.ResponseWriter, r *http.Request) {
	vc, err := h.c.View(models.ViewType(chi.URLParam(r, "view")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": vc.ClearAction()})
}

// ReplaceViewCollection handles PUT /api/views/{view}/collections/{name}.
// Only collections the view may write are accepted.
func (h *Handler) ReplaceViewCollection(w http.ResponseWriter, r *http.Request) {
	vc, err := h.c.View(models.ViewType(chi.URLParam(r, "view")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := vc.Replace(name, body); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCollection(w, r, name)
}

// Notification handles GET /api/notifications.
func (h *Handler) Notification(w http.ResponseWriter, _ *http.Request) {
	n, ok := h.c.Notify.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"notification": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notification": n})
}

// ShowNotification handles POST /api/notifications.
func (h *Handler) ShowNotification(w http.ResponseWriter, r *http.Request) {
	var req NotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DurationMS < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("durationMs must not be negative"))
		return
	}
	if _, err := h.c.ShowNotification(req.Message, time.Duration(req.DurationMS)*time.Millisecond); err != nil {
		writeError(w, r, err)
		return
	}
	n, _ := h.c.Notify.Current()
	writeJSON(w, http.StatusCreated, n)
}
