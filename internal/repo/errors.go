package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrReadOnlyField indica tentativa de alterar campo imutável.
	ErrReadOnlyField = errors.New("campo somente leitura")
	// ErrUnknownSatellite indica tabela fora da lista de satélites 1:1.
	ErrUnknownSatellite = errors.New("tabela satélite desconhecida")
	// ErrUnknownRole indica papel inexistente na tabela de papéis.
	ErrUnknownRole = errors.New("papel desconhecido")
	// ErrUnknownTable indica tabela fora do catálogo conhecido.
	ErrUnknownTable = errors.New("tabela desconhecida")
)
