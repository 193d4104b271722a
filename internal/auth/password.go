package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

const argon2idPrefix = "$argon2id$"

// Hash gera um hash Argon2id (inclui os parâmetros dentro do próprio hash).
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// IsHash informa se o valor armazenado é um hash Argon2id.
func IsHash(stored string) bool {
	return strings.HasPrefix(stored, argon2idPrefix)
}

// CheckPassword compara a senha com o valor armazenado. Valores sem o prefixo
// Argon2id são comparados em texto puro, aceitável apenas em desenvolvimento.
func CheckPassword(password, stored string) (bool, error) {
	if stored == "" {
		return false, nil
	}
	if IsHash(stored) {
		return argon2id.ComparePasswordAndHash(password, stored)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}
