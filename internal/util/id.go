package util

import "github.com/google/uuid"

// NewID gera um UUID v4 em formato canônico, usado como chave textual das entidades.
func NewID() string {
	return uuid.NewString()
}
