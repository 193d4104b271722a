package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable indica falha de conexão com o backend durante uma chamada.
	ErrUnavailable = errors.New("backend indisponível")
	// ErrInvalidQuery indica identificador inválido ou operação malformada.
	ErrInvalidQuery = errors.New("consulta inválida")
	// ErrConfiguration indica configuração ausente ou inválida do backend.
	ErrConfiguration = errors.New("configuração de backend inválida")
	// ErrConflict indica violação de unicidade.
	ErrConflict = errors.New("registro duplicado")
	// ErrUndefinedTable indica tabela inexistente no backend.
	ErrUndefinedTable = errors.New("tabela inexistente")
)

// Kind identifica a implementação de backend ativa.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindSupabase Kind = "supabase"
)

// Row é uma linha retornada pelo backend, indexada pelo nome da coluna.
type Row map[string]any

// Filters combina igualdades estritas com AND.
type Filters map[string]any

// Query descreve uma leitura simples sobre uma tabela.
type Query struct {
	// Columns vazio equivale a "*".
	Columns []string
	Filters Filters
	// OrderBy aceita uma coluna, opcionalmente com sufixo " desc".
	OrderBy string
}

// Adapter é o contrato mínimo que cada backend implementa.
type Adapter interface {
	Kind() Kind
	Query(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, data Row) (Row, error)
	Update(ctx context.Context, table string, filters Filters, data Row) (int64, error)
	Delete(ctx context.Context, table string, filters Filters) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Via descreve uma leitura de Target através de uma tabela de ligação.
//
//	SELECT t.* FROM Target t JOIN Link l ON l.LinkKey = t.TargetKey WHERE l.<filtros>
type Via struct {
	Target    string
	TargetKey string
	Link      string
	LinkKey   string
	Filters   Filters
}

// Joiner é implementado por backends capazes de resolver Via em uma única consulta.
type Joiner interface {
	QueryVia(ctx context.Context, v Via) ([]Row, error)
}

// TableStat resume uma tabela do backend.
type TableStat struct {
	TableName   string `json:"table_name"`
	ColumnCount int    `json:"column_count"`
	RowCount    int64  `json:"row_count"`
}

// Inspector é implementado por backends que listam estatísticas das tabelas.
type Inspector interface {
	TableStats(ctx context.Context) ([]TableStat, error)
}

// Config seleciona e parametriza o backend.
type Config struct {
	Kind Kind
	// SQLitePath é o arquivo local (Kind sqlite).
	SQLitePath string
	// SQLiteCreate permite criar o arquivo quando ausente.
	SQLiteCreate bool
	// PostgresDSN é a string de conexão do serviço hospedado (Kind supabase).
	PostgresDSN string
}

// ParseKind converte o valor de configuração por correspondência exata.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindSQLite, KindSupabase:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("%w: tipo de banco %q não suportado", ErrConfiguration, value)
	}
}

// Open cria o adapter configurado. Falhas aqui são fatais para o processo.
func Open(ctx context.Context, cfg Config) (Adapter, error) {
	switch cfg.Kind {
	case KindSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("%w: DB_PATH obrigatório", ErrConfiguration)
		}
		adapter, err := OpenSQLite(cfg.SQLitePath, cfg.SQLiteCreate)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	case KindSupabase:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("%w: DB_DSN obrigatório", ErrConfiguration)
		}
		adapter, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("%w: tipo de banco %q não suportado", ErrConfiguration, cfg.Kind)
	}
}
