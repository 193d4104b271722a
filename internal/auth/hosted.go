package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/gotrue"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/util"
)

// HostedProvider delega credenciais e tokens ao serviço hospedado e resolve o
// papel na tabela profiles, que fica separada da identidade.
type HostedProvider struct {
	client        *gotrue.Client
	profiles      store.Adapter
	allowedDomain string
	logger        zerolog.Logger
	now           func() time.Time
}

var _ Provider = (*HostedProvider)(nil)
var _ Signer = (*HostedProvider)(nil)

// NewHostedProvider cria o provedor. allowedDomain vazio desabilita o cadastro.
func NewHostedProvider(client *gotrue.Client, profiles store.Adapter, allowedDomain string) *HostedProvider {
	return &HostedProvider{
		client:        client,
		profiles:      profiles,
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
		logger:        log.With().Str("component", "auth.hosted").Logger(),
		now:           time.Now,
	}
}

func (p *HostedProvider) Kind() Kind { return KindSupabase }

func (p *HostedProvider) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	resp, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Session{}, p.classify(err, ErrInvalidCredentials)
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return Session{}, fmt.Errorf("%w: resposta sem sessão", ErrConfiguration)
	}
	return p.session(ctx, resp), nil
}

// Logout revoga a sessão remota; falhas são apenas registradas.
func (p *HostedProvider) Logout(ctx context.Context, s Session) error {
	if s.AccessToken == "" {
		return nil
	}
	if err := p.client.SignOut(ctx, s.AccessToken); err != nil {
		p.logger.Warn().Err(err).Str("user_id", s.UserID).Msg("falha ao encerrar sessão remota")
	}
	return nil
}

func (p *HostedProvider) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, ErrRefreshFailed
	}
	resp, err := p.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		return Session{}, p.classify(err, ErrRefreshFailed)
	}
	if resp.AccessToken == "" {
		return Session{}, ErrRefreshFailed
	}
	return p.session(ctx, resp), nil
}

func (p *HostedProvider) GetUserRole(ctx context.Context, userID string) Role {
	role, err := lookupRole(ctx, p.profiles, userID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("falha ao consultar papel; usando padrão")
	}
	return role
}

// Signup valida o domínio do email antes de qualquer chamada remota. Quando o
// serviço exige confirmação, a sessão devolvida não está autenticada.
func (p *HostedProvider) Signup(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := util.ValidateEmail(email); err != nil {
		return Session{}, err
	}
	if p.allowedDomain == "" || util.EmailDomain(email) != p.allowedDomain {
		return Session{}, fmt.Errorf("%w: apenas emails @%s", ErrDomainNotAllowed, p.allowedDomain)
	}
	if err := util.ValidatePassword(password); err != nil {
		return Session{}, err
	}

	resp, err := p.client.SignUp(ctx, email, password)
	if err != nil {
		var apiErr *gotrue.APIError
		if errors.As(err, &apiErr) && (apiErr.Contains("already registered") || apiErr.Contains("user_already_exists")) {
			return Session{}, ErrAlreadyRegistered
		}
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
			return Session{}, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return Session{}, util.ValidationError(strings.ToLower(apiErr.Error()))
		}
		return Session{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if resp.AccessToken == "" {
		return Session{UserID: resp.User.ID, Email: resp.User.Email, Role: DefaultRole}, nil
	}
	return p.session(ctx, resp), nil
}

func (p *HostedProvider) session(ctx context.Context, resp *gotrue.Session) Session {
	s := Session{
		UserID:        resp.User.ID,
		Email:         resp.User.Email,
		Role:          p.GetUserRole(ctx, resp.User.ID),
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		Authenticated: true,
	}
	if exp, ok := TokenExpiry(resp.AccessToken); ok {
		s.ExpiresAt = exp
	} else if resp.ExpiresIn > 0 {
		s.ExpiresAt = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return s
}

// classify converte a resposta do serviço: 429 vira ErrRateLimited, demais 4xx
// viram rejected, email não confirmado tem erro próprio e falhas de rede viram
// ErrConfiguration.
func (p *HostedProvider) classify(err error, rejected error) error {
	var apiErr *gotrue.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusTooManyRequests:
			p.logger.Warn().Err(err).Msg("serviço de autenticação limitou as requisições")
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case apiErr.Contains("email not confirmed"):
			return ErrEmailNotConfirmed
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return rejected
		}
	}
	p.logger.Error().Err(err).Msg("serviço de autenticação indisponível")
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}
