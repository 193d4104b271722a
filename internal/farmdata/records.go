package farmdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/util"
)

// UpsertSatellite grava a linha 1:1 da usina na tabela satélite, inserindo ou
// atualizando conforme a existência da linha. farm_uuid e farm_code vêm da usina.
func (f *Facade) UpsertSatellite(ctx context.Context, farmUUID, table string, data store.Row) (store.Row, error) {
	if !repo.IsSatellite(table) {
		return nil, fmt.Errorf("%w: %s", repo.ErrUnknownSatellite, table)
	}
	farm, err := f.GetFarm(ctx, farmUUID)
	if err != nil {
		return nil, err
	}
	if farm == nil {
		return nil, fmt.Errorf("usina %s: %w", farmUUID, repo.ErrNotFound)
	}

	values := make(store.Row, len(data)+2)
	for k, v := range data {
		values[k] = v
	}
	values["farm_uuid"] = farmUUID
	values["farm_code"] = farm.String("code")

	key := store.Filters{"farm_uuid": farmUUID}
	existing, err := f.fetchOne(ctx, table, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return f.InsertRecord(ctx, table, values)
	}

	delete(values, "farm_uuid")
	if _, err := f.UpdateRecord(ctx, table, key, values); err != nil {
		return nil, err
	}
	return f.fetchOne(ctx, table, key)
}

// CreateFarm cadastra uma usina. O uuid é gerado quando não informado.
func (f *Facade) CreateFarm(ctx context.Context, data store.Row) (store.Row, error) {
	code, _ := data["code"].(string)
	if err := util.RequireString(code, "code"); err != nil {
		return nil, err
	}

	values := make(store.Row, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	values["code"] = strings.TrimSpace(code)
	if id, _ := values["uuid"].(string); strings.TrimSpace(id) == "" {
		values["uuid"] = util.NewID()
	}
	return f.InsertRecord(ctx, repo.TableFarms, values)
}

// UpdateFarm altera os dados da usina. O código é imutável depois de criado.
func (f *Facade) UpdateFarm(ctx context.Context, farmUUID string, data store.Row) (store.Row, error) {
	if _, ok := data["code"]; ok {
		return nil, fmt.Errorf("%w: code", repo.ErrReadOnlyField)
	}
	if _, ok := data["uuid"]; ok {
		return nil, fmt.Errorf("%w: uuid", repo.ErrReadOnlyField)
	}

	affected, err := f.UpdateRecord(ctx, repo.TableFarms, store.Filters{"uuid": farmUUID}, data)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("usina %s: %w", farmUUID, repo.ErrNotFound)
	}
	return f.GetFarm(ctx, farmUUID)
}

// CreatePerson cadastra uma pessoa independente de usina.
func (f *Facade) CreatePerson(ctx context.Context, data store.Row) (store.Row, error) {
	first, _ := data["first_name"].(string)
	last, _ := data["last_name"].(string)
	if err := util.RequireString(first, "first_name"); err != nil {
		return nil, err
	}
	if err := util.RequireString(last, "last_name"); err != nil {
		return nil, err
	}
	if email, _ := data["email"].(string); email != "" {
		if err := util.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	values := make(store.Row, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	values["uuid"] = util.NewID()
	return f.InsertRecord(ctx, repo.TablePersons, values)
}

// ListPersons lista as pessoas ordenadas pelo sobrenome.
func (f *Facade) ListPersons(ctx context.Context) ([]store.Row, error) {
	return f.fetchAll(ctx, repo.TablePersons, nil, "last_name")
}
