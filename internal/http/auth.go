package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gestaozabele/farmdesk/internal/auth"
	httpmiddleware "github.com/gestaozabele/farmdesk/internal/http/middleware"
)

// userView é a sessão exposta ao cliente; tokens ficam só no armazenamento de sessão.
type userView struct {
	ID            string    `json:"id,omitempty"`
	Email         string    `json:"email,omitempty"`
	Role          auth.Role `json:"role,omitempty"`
	Authenticated bool      `json:"authenticated"`
	Provider      auth.Kind `json:"provider"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

func newUserView(m *auth.Manager, s auth.Session) userView {
	return userView{
		ID:            s.UserID,
		Email:         s.Email,
		Role:          s.Role,
		Authenticated: s.Authenticated,
		Provider:      m.Kind(),
		ExpiresAt:     s.ExpiresAt,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) readCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var payload credentials
	if !decodeJSON(w, r, &payload) {
		return payload, false
	}
	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" || payload.Password == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return payload, false
	}
	return payload, true
}

// Login autentica pelo provedor configurado e grava a sessão do cliente.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	m := httpmiddleware.GetManager(r.Context())
	s, err := m.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newUserView(m, s))
}

// Signup cadastra pelo provedor quando ele aceita cadastro.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	m := httpmiddleware.GetManager(r.Context())
	s, err := m.Signup(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, newUserView(m, s))
}

// Logout encerra a sessão do cliente. Sem sessão ativa também responde sucesso.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	m := httpmiddleware.GetManager(r.Context())
	if err := m.Logout(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Refresh renova os tokens da sessão. O corpo é opcional.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &payload) {
		return
	}

	m := httpmiddleware.GetManager(r.Context())
	s, err := m.RefreshSession(r.Context(), strings.TrimSpace(payload.RefreshToken))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newUserView(m, s))
}

// Me devolve o usuário da sessão corrente.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	m := httpmiddleware.GetManager(r.Context())
	WriteJSON(w, http.StatusOK, newUserView(m, httpmiddleware.GetSession(r.Context())))
}
