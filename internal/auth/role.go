package auth

import "strings"

// Role é o papel de autorização do usuário.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
)

// DefaultRole é o papel de menor privilégio, usado quando a consulta falha.
const DefaultRole = RoleViewer

var roleLevels = map[Role]int{
	RoleViewer: 1,
	RoleUser:   2,
	RoleAdmin:  3,
}

// Level devolve o nível numérico do papel, ou 0 quando desconhecido.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid informa se o papel pertence à hierarquia.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// Satisfies informa se o papel atende ao requisito. Requisito desconhecido nunca é atendido.
func (r Role) Satisfies(required Role) bool {
	need := required.Level()
	if need == 0 {
		return false
	}
	return r.Level() >= need
}

// ParseRole normaliza o valor lido do armazenamento; desconhecido vira DefaultRole.
func ParseRole(value string) Role {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return DefaultRole
	}
	return role
}
