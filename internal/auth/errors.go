package auth

import "errors"

var (
	// ErrInvalidCredentials é devolvido para email inexistente e senha errada, sem distinção.
	ErrInvalidCredentials = errors.New("email ou senha inválidos")
	// ErrUnsupported indica operação que o provedor ativo não oferece.
	ErrUnsupported = errors.New("operação não suportada pelo provedor")
	// ErrConfiguration indica provedor mal configurado ou backend inacessível.
	ErrConfiguration = errors.New("autenticação não configurada")
	// ErrRefreshFailed indica refresh token inválido ou expirado.
	ErrRefreshFailed = errors.New("não foi possível renovar a sessão")
	// ErrNotImplemented é devolvido pelo provedor reservado.
	ErrNotImplemented = errors.New("provedor não implementado")
	// ErrDomainNotAllowed indica email fora do domínio permitido no cadastro.
	ErrDomainNotAllowed = errors.New("domínio de email não permitido")
	// ErrEmailNotConfirmed indica cadastro pendente de confirmação.
	ErrEmailNotConfirmed = errors.New("email não confirmado")
	// ErrAlreadyRegistered indica email já cadastrado.
	ErrAlreadyRegistered = errors.New("email já cadastrado")
	// ErrRateLimited indica que o serviço hospedado recusou por excesso de requisições.
	ErrRateLimited = errors.New("serviço de autenticação limitou as requisições")
	// ErrNotAuthenticated indica ausência de sessão ativa.
	ErrNotAuthenticated = errors.New("sessão não autenticada")
)
