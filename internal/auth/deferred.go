package auth

import "context"

// DeferredProvider reserva o tipo "entra" até existir integração; tudo devolve ErrNotImplemented.
type DeferredProvider struct{}

var _ Provider = DeferredProvider{}
var _ Signer = DeferredProvider{}

func (DeferredProvider) Kind() Kind { return KindEntra }

func (DeferredProvider) Login(context.Context, string, string) (Session, error) {
	return Session{}, ErrNotImplemented
}

func (DeferredProvider) Logout(context.Context, Session) error {
	return ErrNotImplemented
}

func (DeferredProvider) RefreshSession(context.Context, string) (Session, error) {
	return Session{}, ErrNotImplemented
}

// GetUserRole devolve DefaultRole; o contrato de papel não admite falha.
func (DeferredProvider) GetUserRole(context.Context, string) Role {
	return DefaultRole
}

func (DeferredProvider) Signup(context.Context, string, string) (Session, error) {
	return Session{}, ErrNotImplemented
}
