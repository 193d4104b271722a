package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Manager mantém o provedor ativo e a sessão corrente. É construído uma vez na
// inicialização; Bind produz visões com armazenamento de sessão por cliente.
type Manager struct {
	provider Provider
	sessions SessionStore
	now      func() time.Time
}

// NewManager cria o gerenciador com sessão em memória para o processo.
func NewManager(provider Provider) *Manager {
	return &Manager{provider: provider, sessions: NewMemoryStore(), now: time.Now}
}

// Bind devolve um Manager que compartilha o provedor e usa o armazenamento informado.
func (m *Manager) Bind(sessions SessionStore) *Manager {
	return &Manager{provider: m.provider, sessions: sessions, now: m.now}
}

// Kind devolve o tipo do provedor ativo.
func (m *Manager) Kind() Kind { return m.provider.Kind() }

// Login autentica e grava a sessão. Falha mantém a sessão anterior.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	s, err := m.provider.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if err := m.sessions.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("gravar sessão: %w", err)
	}
	log.Info().Str("user_id", s.UserID).Str("role", string(s.Role)).Msg("login efetuado")
	return s, nil
}

// Logout encerra a sessão no provedor (best-effort) e volta ao estado anônimo.
func (m *Manager) Logout(ctx context.Context) error {
	current, err := m.sessions.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("falha ao ler sessão no logout")
	}
	if current.Authenticated {
		if err := m.provider.Logout(ctx, current); err != nil {
			log.Warn().Err(err).Str("user_id", current.UserID).Msg("logout no provedor falhou")
		}
	}
	return m.sessions.Clear(ctx)
}

// RefreshSession renova os tokens. Sem argumento usa o refresh token da sessão corrente,
// que precisa estar autenticada.
// Refresh token rejeitado limpa a sessão.
func (m *Manager) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	current, err := m.sessions.Load(ctx)
	if err != nil {
		return Session{}, err
	}
	if refreshToken == "" {
		if !current.Authenticated {
			return Session{}, ErrNotAuthenticated
		}
		refreshToken = current.RefreshToken
	}

	s, err := m.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshFailed) {
			_ = m.sessions.Clear(ctx)
		}
		return Session{}, err
	}
	if err := m.sessions.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("gravar sessão: %w", err)
	}
	return s, nil
}

// GetUserRole consulta o papel no provedor; nunca falha.
func (m *Manager) GetUserRole(ctx context.Context, userID string) Role {
	return m.provider.GetUserRole(ctx, userID)
}

// CurrentUser devolve a sessão corrente, ou a anônima.
func (m *Manager) CurrentUser(ctx context.Context) Session {
	s, err := m.sessions.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("falha ao ler sessão")
		return Session{}
	}
	return s
}

// IsAuthenticated informa se existe sessão autenticada e não expirada.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	s := m.CurrentUser(ctx)
	return s.Authenticated && !s.Expired(m.now())
}

// CheckRole informa se o usuário corrente atende ao papel exigido.
// Sessão anônima não atende nenhum papel.
func (m *Manager) CheckRole(ctx context.Context, required Role) bool {
	if !m.IsAuthenticated(ctx) {
		return false
	}
	return m.CurrentUser(ctx).Role.Satisfies(required)
}

// Signup cadastra pelo provedor quando suportado. Sessão autenticada devolvida pelo
// serviço é gravada como sessão corrente.
func (m *Manager) Signup(ctx context.Context, email, password string) (Session, error) {
	signer, ok := m.provider.(Signer)
	if !ok {
		return Session{}, ErrUnsupported
	}
	s, err := signer.Signup(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if s.Authenticated {
		if err := m.sessions.Save(ctx, s); err != nil {
			return Session{}, fmt.Errorf("gravar sessão: %w", err)
		}
	}
	return s, nil
}
