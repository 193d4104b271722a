package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrValidation agrupa as falhas de validação de entrada.
var ErrValidation = errors.New("dados inválidos")

// ValidationError descreve uma falha de validação e casa com ErrValidation via errors.Is.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ValidationError("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ValidationError("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError(field + " obrigatório")
	}
	return nil
}

// EmailDomain devolve o domínio em minúsculas, ou "" quando o endereço não tem @.
func EmailDomain(email string) string {
	email = strings.TrimSpace(email)
	idx := strings.LastIndex(email, "@")
	if idx < 0 || idx == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[idx+1:])
}
