package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry lê a claim exp do access token sem validar a assinatura; a
// validação cabe ao serviço que emitiu o token.
func TokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// NewOpaqueToken cria token aleatório seguro e seu hash persistível.
func NewOpaqueToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashOpaqueToken(raw)
	return raw, hashed, nil
}

// HashOpaqueToken produz hash SHA-256 base64.
func HashOpaqueToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
