package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gestaozabele/farmdesk/internal/gotrue"
	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
)

// Kind identifica o provedor de autenticação.
type Kind string

const (
	KindLocal    Kind = "local"
	KindSupabase Kind = "supabase"
	KindEntra    Kind = "entra"
)

// Provider é o contrato comum dos provedores. Provedores não guardam sessão;
// isso é responsabilidade do Manager.
type Provider interface {
	Kind() Kind
	Login(ctx context.Context, email, password string) (Session, error)
	// Logout é best-effort e não falha por erro remoto.
	Logout(ctx context.Context, s Session) error
	RefreshSession(ctx context.Context, refreshToken string) (Session, error)
	// GetUserRole nunca falha: qualquer erro resulta em DefaultRole.
	GetUserRole(ctx context.Context, userID string) Role
}

// Signer é implementado por provedores que aceitam cadastro.
type Signer interface {
	Signup(ctx context.Context, email, password string) (Session, error)
}

// Deps reúne as dependências necessárias para construir os provedores.
type Deps struct {
	// Profiles acessa a tabela de perfis (papéis e, no provedor local, senhas).
	Profiles store.Adapter

	HostedURL     string
	HostedAPIKey  string
	AllowedDomain string
	HTTPClient    *http.Client
}

// ParseKind converte o valor de configuração por correspondência exata.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindLocal, KindSupabase, KindEntra:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("%w: provedor %q desconhecido", ErrConfiguration, value)
	}
}

// NewProvider seleciona o provedor pelo tipo configurado. Valor desconhecido é fatal.
func NewProvider(kind string, deps Deps) (Provider, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	switch k {
	case KindLocal:
		if deps.Profiles == nil {
			return nil, fmt.Errorf("%w: provedor local exige banco de perfis", ErrConfiguration)
		}
		return NewLocalProvider(deps.Profiles), nil
	case KindSupabase:
		if deps.Profiles == nil {
			return nil, fmt.Errorf("%w: provedor hospedado exige banco de perfis", ErrConfiguration)
		}
		client, err := gotrue.New(gotrue.Config{
			URL:        deps.HostedURL,
			APIKey:     deps.HostedAPIKey,
			HTTPClient: deps.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return NewHostedProvider(client, deps.Profiles, deps.AllowedDomain), nil
	default:
		return DeferredProvider{}, nil
	}
}

func lookupRole(ctx context.Context, profiles store.Adapter, userID string) (Role, error) {
	if strings.TrimSpace(userID) == "" {
		return DefaultRole, nil
	}
	rows, err := profiles.Query(ctx, repo.TableProfiles, store.Query{
		Columns: []string{"role"},
		Filters: store.Filters{"id": userID},
	})
	if err != nil {
		return DefaultRole, err
	}
	if len(rows) == 0 {
		return DefaultRole, nil
	}
	return ParseRole(rows[0].String("role")), nil
}
