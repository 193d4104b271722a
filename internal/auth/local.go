package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
)

// LocalProvider valida credenciais na tabela profiles do banco local. Não emite tokens.
type LocalProvider struct {
	profiles store.Adapter
	logger   zerolog.Logger
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider cria o provedor sobre o adapter que contém a tabela profiles.
func NewLocalProvider(profiles store.Adapter) *LocalProvider {
	return &LocalProvider{
		profiles: profiles,
		logger:   log.With().Str("component", "auth.local").Logger(),
	}
}

func (p *LocalProvider) Kind() Kind { return KindLocal }

// Login compara a senha com o valor armazenado. Email inexistente e senha
// errada devolvem o mesmo ErrInvalidCredentials.
func (p *LocalProvider) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	rows, err := p.profiles.Query(ctx, repo.TableProfiles, store.Query{
		Columns: []string{"id", "email", "password", "role"},
		Filters: store.Filters{"email": email},
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("falha ao consultar perfis")
		return Session{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if len(rows) == 0 {
		return Session{}, ErrInvalidCredentials
	}

	profile := rows[0]
	ok, err := CheckPassword(password, profile.String("password"))
	if err != nil {
		p.logger.Warn().Err(err).Str("email", email).Msg("hash de senha ilegível")
		return Session{}, ErrInvalidCredentials
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	return Session{
		UserID:        profile.String("id"),
		Email:         profile.String("email"),
		Role:          ParseRole(profile.String("role")),
		Authenticated: true,
	}, nil
}

// Logout não tem efeito remoto no provedor local.
func (p *LocalProvider) Logout(context.Context, Session) error {
	return nil
}

func (p *LocalProvider) RefreshSession(context.Context, string) (Session, error) {
	return Session{}, ErrUnsupported
}

func (p *LocalProvider) GetUserRole(ctx context.Context, userID string) Role {
	role, err := lookupRole(ctx, p.profiles, userID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("falha ao consultar papel; usando padrão")
	}
	return role
}
