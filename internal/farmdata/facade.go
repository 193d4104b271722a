// Package farmdata concentra o acesso aos dados das usinas sobre um store.Adapter.
//
// Falhas do backend nunca interrompem a leitura: cada operação devolve o valor
// degradado (nil, lista vazia ou agregado parcial) junto com o erro, para que o
// chamador consiga exibir o restante e também reportar a falha.
package farmdata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/store"
)

// Facade expõe CRUD genérico e leituras agregadas.
type Facade struct {
	adapter  store.Adapter
	logger   zerolog.Logger
	roles    sync.Map
	cacheTTL time.Duration
}

type cachedRole struct {
	id       int64
	expireAt time.Time
}

// New cria a fachada sobre o adapter configurado.
func New(adapter store.Adapter) *Facade {
	return &Facade{
		adapter:  adapter,
		logger:   log.With().Str("component", "farmdata").Logger(),
		cacheTTL: 5 * time.Minute,
	}
}

// Adapter devolve o backend subjacente.
func (f *Facade) Adapter() store.Adapter { return f.adapter }

// ExecuteQuery executa uma leitura genérica. Em falha devolve lista vazia e o erro.
func (f *Facade) ExecuteQuery(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	rows, err := f.adapter.Query(ctx, table, q)
	if err != nil {
		f.fail("query", table, err)
		return []store.Row{}, err
	}
	return rows, nil
}

// InsertRecord insere e devolve a linha gravada.
func (f *Facade) InsertRecord(ctx context.Context, table string, data store.Row) (store.Row, error) {
	row, err := f.adapter.Insert(ctx, table, data)
	if err != nil {
		f.fail("insert", table, err)
		return nil, err
	}
	return row, nil
}

// UpdateRecord altera todas as linhas que casam com os filtros.
func (f *Facade) UpdateRecord(ctx context.Context, table string, filters store.Filters, data store.Row) (int64, error) {
	affected, err := f.adapter.Update(ctx, table, filters, data)
	if err != nil {
		f.fail("update", table, err)
		return 0, err
	}
	if affected != 1 {
		f.logger.Warn().Str("table", table).Int64("affected", affected).Interface("filters", filters).Msg("update não afetou exatamente uma linha")
	}
	return affected, nil
}

// DeleteRecord remove todas as linhas que casam com os filtros.
func (f *Facade) DeleteRecord(ctx context.Context, table string, filters store.Filters) (int64, error) {
	affected, err := f.adapter.Delete(ctx, table, filters)
	if err != nil {
		f.fail("delete", table, err)
		return 0, err
	}
	if affected != 1 {
		f.logger.Warn().Str("table", table).Int64("affected", affected).Interface("filters", filters).Msg("delete não afetou exatamente uma linha")
	}
	return affected, nil
}

// Status mede a latência de um ping ao backend.
type Status struct {
	Kind         store.Kind `json:"kind"`
	Connected    bool       `json:"connected"`
	ResponseTime string     `json:"response_time"`
	Error        string     `json:"error,omitempty"`
}

// Status verifica a conectividade com o backend.
func (f *Facade) Status(ctx context.Context) Status {
	start := time.Now()
	err := f.adapter.Ping(ctx)
	st := Status{
		Kind:         f.adapter.Kind(),
		Connected:    err == nil,
		ResponseTime: time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		f.fail("ping", "", err)
		st.Error = err.Error()
	}
	return st
}

// ErrStatsUnsupported indica backend sem listagem de tabelas.
var ErrStatsUnsupported = errors.New("backend não lista tabelas")

// TableStats lista as tabelas quando o backend oferece essa capacidade.
func (f *Facade) TableStats(ctx context.Context) ([]store.TableStat, error) {
	inspector, ok := f.adapter.(store.Inspector)
	if !ok {
		return []store.TableStat{}, ErrStatsUnsupported
	}
	stats, err := inspector.TableStats(ctx)
	if err != nil {
		f.fail("stats", "", err)
		return []store.TableStat{}, err
	}
	if stats == nil {
		stats = []store.TableStat{}
	}
	return stats, nil
}

func (f *Facade) fail(op, table string, err error) {
	f.logger.Error().Err(err).Str("op", op).Str("table", table).Msg("falha no backend")
}

func (f *Facade) fetchOne(ctx context.Context, table string, filters store.Filters) (store.Row, error) {
	rows, err := f.adapter.Query(ctx, table, store.Query{Filters: filters})
	if err != nil {
		f.fail("query", table, err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (f *Facade) fetchAll(ctx context.Context, table string, filters store.Filters, orderBy string) ([]store.Row, error) {
	rows, err := f.adapter.Query(ctx, table, store.Query{Filters: filters, OrderBy: orderBy})
	if err != nil {
		f.fail("query", table, err)
		return []store.Row{}, err
	}
	if rows == nil {
		rows = []store.Row{}
	}
	return rows, nil
}

// roleID resolve o nome do papel para o id; ok falso quando o papel não existe.
func (f *Facade) roleID(ctx context.Context, table, name string) (int64, bool, error) {
	key := table + ":" + name
	if v, ok := f.roles.Load(key); ok {
		entry := v.(cachedRole)
		if time.Now().Before(entry.expireAt) {
			return entry.id, true, nil
		}
		f.roles.Delete(key)
	}

	row, err := f.fetchOne(ctx, table, store.Filters{"role_name": name})
	if err != nil || row == nil {
		return 0, false, err
	}
	id, ok := row.Int64("id")
	if !ok {
		return 0, false, nil
	}
	f.roles.Store(key, cachedRole{id: id, expireAt: time.Now().Add(f.cacheTTL)})
	return id, true, nil
}
