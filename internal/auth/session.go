package auth

import (
	"context"
	"sync"
	"time"
)

// Session descreve o usuário autenticado. O valor zero é a sessão anônima.
type Session struct {
	UserID        string    `json:"id,omitempty"`
	Email         string    `json:"email,omitempty"`
	Role          Role      `json:"role,omitempty"`
	AccessToken   string    `json:"access_token,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Expired informa se a sessão tem validade conhecida e já passou.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionStore guarda a sessão corrente de um cliente.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// MemoryStore guarda uma única sessão em memória, compartilhada pelo processo.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewMemoryStore cria um armazenamento vazio (anônimo).
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}
