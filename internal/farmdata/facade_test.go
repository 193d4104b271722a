package farmdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/store/storetest"
)

func newFacade(t *testing.T) (*Facade, store.Adapter) {
	t.Helper()
	adapter := storetest.NewSQLite(t)
	return New(adapter), adapter
}

func seedFarm(t *testing.T, f *Facade, uuid, code string) {
	t.Helper()
	_, err := f.InsertRecord(context.Background(), repo.TableFarms, store.Row{
		"uuid": uuid, "code": code, "project": "Projeto " + code, "spv": "SPV " + code, "farm_type_id": 1,
	})
	require.NoError(t, err)
}

func TestGeneralInfoWithoutSatellites(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	info, err := f.GetFarmGeneralInfo(ctx, "F1")
	require.NoError(t, err)
	require.NotNil(t, info.Farm)
	assert.Equal(t, "WF01", info.Farm.String("code"))
	assert.Equal(t, "Wind", info.FarmType.String("type_title"))
	assert.Nil(t, info.Status)
	assert.Nil(t, info.Location)
}

func TestGeneralInfoMissingFarmSkipsDependents(t *testing.T) {
	adapter := &countingAdapter{}
	f := New(adapter)

	info, err := f.GetFarmGeneralInfo(context.Background(), "ausente")
	require.NoError(t, err)
	assert.Nil(t, info.Farm)
	assert.Nil(t, info.FarmType)
	assert.Equal(t, []string{repo.TableFarms}, adapter.tables)
}

func TestGeneralInfoNullFarmTypeSkipsLookup(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	_, err := f.InsertRecord(ctx, repo.TableFarms, store.Row{"uuid": "F2", "code": "WF02"})
	require.NoError(t, err)
	_, err = f.InsertRecord(ctx, repo.TableFarmStatuses, store.Row{"farm_uuid": "F2", "farm_code": "WF02", "farm_status": "Operating"})
	require.NoError(t, err)

	info, err := f.GetFarmGeneralInfo(ctx, "F2")
	require.NoError(t, err)
	assert.Nil(t, info.FarmType)
	assert.Equal(t, "Operating", info.Status.String("farm_status"))
}

func TestGetFarmByCode(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	farm, err := f.GetFarmByCode(ctx, "WF99")
	require.NoError(t, err)
	assert.Nil(t, farm)

	farm, err = f.GetFarmByCode(ctx, "WF01")
	require.NoError(t, err)
	assert.Equal(t, "F1", farm.String("uuid"))
}

func TestFarmUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	before, err := f.GetFarmByCode(ctx, "WF01")
	require.NoError(t, err)

	affected, err := f.UpdateRecord(ctx, repo.TableFarms, store.Filters{"uuid": "F1"}, store.Row{"project": "X"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	after, err := f.GetFarmByCode(ctx, "WF01")
	require.NoError(t, err)
	assert.Equal(t, "X", after.String("project"))

	before["project"] = "X"
	assert.Equal(t, before, after)
}

func TestGetAllFarmsOrderedByCode(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F2", "WF02")
	seedFarm(t, f, "F1", "WF01")

	farms, err := f.GetAllFarms(ctx)
	require.NoError(t, err)
	require.Len(t, farms, 2)
	assert.Equal(t, "WF01", farms[0].String("code"))
	assert.ElementsMatch(t, []string{"uuid", "code", "project", "spv"}, keys(farms[0]))
}

func TestPerformanceDataEmptyListsNeverNil(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	data, err := f.GetFarmPerformanceData(ctx, "F1")
	require.NoError(t, err)
	assert.NotNil(t, data.ActualPerformances)
	assert.NotNil(t, data.TargetPerformances)
	assert.NotNil(t, data.Tariffs)
	assert.Empty(t, data.ActualPerformances)
	assert.Empty(t, data.TargetPerformances)
	assert.Empty(t, data.Tariffs)
}

func TestPerformanceDataOrdering(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	for _, year := range []int{2024, 2022, 2023} {
		_, err := f.InsertRecord(ctx, repo.TableFarmActualPerformances, store.Row{"farm_uuid": "F1", "farm_code": "WF01", "year": year, "amount": 1.5})
		require.NoError(t, err)
	}
	for _, start := range []string{"2021-01-01", "2015-06-01"} {
		_, err := f.InsertRecord(ctx, repo.TableFarmTariffs, store.Row{"farm_uuid": "F1", "farm_code": "WF01", "tariff_start_date": start})
		require.NoError(t, err)
	}

	data, err := f.GetFarmPerformanceData(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, data.ActualPerformances, 3)
	first, _ := data.ActualPerformances[0].Int64("year")
	last, _ := data.ActualPerformances[2].Int64("year")
	assert.Equal(t, int64(2022), first)
	assert.Equal(t, int64(2024), last)
	require.Len(t, data.Tariffs, 2)
	assert.Equal(t, "2015-06-01", data.Tariffs[0].String("tariff_start_date"))
}

func TestContractsAdminSevenKeys(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	_, err := f.InsertRecord(ctx, repo.TableFarmOMContracts, store.Row{"farm_uuid": "F1", "farm_code": "WF01", "service_contract_type": "Full"})
	require.NoError(t, err)

	contracts, err := f.GetFarmContractsAdmin(ctx, "F1")
	require.NoError(t, err)
	assert.Len(t, contracts, 7)
	assert.ElementsMatch(t, []string{
		"administrations", "om_contracts", "tcma_contracts", "electrical_delegations",
		"environmental_installations", "financial_guarantees", "substation_details",
	}, mapKeys(contracts))

	for key, row := range contracts {
		if key == "om_contracts" {
			assert.Equal(t, "Full", row.String("service_contract_type"))
			continue
		}
		assert.Nil(t, row, key)
	}
}

func TestTechnicalDetails(t *testing.T) {
	ctx := context.Background()
	f, adapter := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	seedTechnical(t, adapter)

	details, err := f.GetFarmTechnicalDetails(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, "Vestas", details.TurbineDetails.String("manufacturer"))
	assert.Len(t, details.Substations, 1)
	assert.Len(t, details.WTGs, 2)
	require.Len(t, details.IceSystems, 1)
	assert.Equal(t, "Labko", details.IceSystems[0].String("name"))
}

func TestTechnicalDetailsFallbackWithoutJoiner(t *testing.T) {
	ctx := context.Background()
	adapter := storetest.NewSQLite(t)
	f := New(plainAdapter{adapter})
	seedFarm(t, f, "F1", "WF01")
	seedTechnical(t, adapter)

	details, err := f.GetFarmTechnicalDetails(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, details.IceSystems, 1)
	assert.Equal(t, "I1", details.IceSystems[0].String("uuid"))
}

func TestTechnicalDetailsEmptyFarm(t *testing.T) {
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	details, err := f.GetFarmTechnicalDetails(context.Background(), "F1")
	require.NoError(t, err)
	assert.Nil(t, details.TurbineDetails)
	assert.NotNil(t, details.Substations)
	assert.NotNil(t, details.WTGs)
	assert.NotNil(t, details.IceSystems)
}

func TestPersonByRoleScenario(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	_, err := f.InsertRecord(ctx, repo.TablePersons, store.Row{"uuid": "P1", "first_name": "Ana", "last_name": "Martin"})
	require.NoError(t, err)

	person, err := f.GetPersonByRole(ctx, "F1", "Technical Manager")
	require.NoError(t, err)
	assert.Equal(t, store.Row{}, person)

	_, err = f.InsertRecord(ctx, repo.TableFarmReferents, store.Row{
		"uuid": "R1", "farm_uuid": "F1", "farm_code": "WF01", "person_role_id": 1, "person_uuid": "P1",
	})
	require.NoError(t, err)

	person, err = f.GetPersonByRole(ctx, "F1", "Technical Manager")
	require.NoError(t, err)
	assert.Equal(t, "P1", person.String("uuid"))
	assert.Equal(t, "Ana", person.String("first_name"))
}

func TestPersonByRoleDegrades(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	person, err := f.GetPersonByRole(ctx, "F1", "NonexistentRole")
	require.NoError(t, err)
	assert.NotNil(t, person)
	assert.Empty(t, person)

	person, err = f.GetPersonByRole(ctx, "qualquer", "NonexistentRole")
	require.NoError(t, err)
	assert.Empty(t, person)

	// Referente apontando para pessoa inexistente.
	_, err = f.InsertRecord(ctx, repo.TableFarmReferents, store.Row{
		"uuid": "R1", "farm_uuid": "F1", "farm_code": "WF01", "person_role_id": 2, "person_uuid": "P-removida",
	})
	require.NoError(t, err)
	person, err = f.GetPersonByRole(ctx, "F1", "Substitute Technical Manager")
	require.NoError(t, err)
	assert.Empty(t, person)

	// Referente sem pessoa.
	_, err = f.InsertRecord(ctx, repo.TableFarmReferents, store.Row{
		"uuid": "R2", "farm_uuid": "F1", "farm_code": "WF01", "person_role_id": 3,
	})
	require.NoError(t, err)
	person, err = f.GetPersonByRole(ctx, "F1", "Key Account Manager")
	require.NoError(t, err)
	assert.Empty(t, person)
}

func TestSetReferentFlow(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	for _, id := range []string{"P1", "P2"} {
		_, err := f.InsertRecord(ctx, repo.TablePersons, store.Row{"uuid": id, "first_name": id, "last_name": "Teste"})
		require.NoError(t, err)
	}

	require.NoError(t, f.SetReferent(ctx, "F1", "Electrical Manager", "P1"))
	person, err := f.GetPersonByRole(ctx, "F1", "Electrical Manager")
	require.NoError(t, err)
	assert.Equal(t, "P1", person.String("uuid"))

	require.NoError(t, f.SetReferent(ctx, "F1", "Electrical Manager", "P2"))
	rows, err := f.ExecuteQuery(ctx, repo.TableFarmReferents, store.Query{Filters: store.Filters{"farm_uuid": "F1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P2", rows[0].String("person_uuid"))
	assert.Equal(t, "WF01", rows[0].String("farm_code"))

	require.NoError(t, f.SetReferent(ctx, "F1", "Electrical Manager", ""))
	rows, err = f.ExecuteQuery(ctx, repo.TableFarmReferents, store.Query{Filters: store.Filters{"farm_uuid": "F1"}})
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, f.SetReferent(ctx, "F1", "Electrical Manager", ""))

	err = f.SetReferent(ctx, "F1", "Chef", "P1")
	assert.True(t, errors.Is(err, repo.ErrUnknownRole))

	err = f.SetReferent(ctx, "F9", "Electrical Manager", "P1")
	assert.True(t, errors.Is(err, repo.ErrNotFound))
}

func TestListReferents(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	_, err := f.InsertRecord(ctx, repo.TablePersons, store.Row{"uuid": "P1", "first_name": "Ana", "last_name": "Martin"})
	require.NoError(t, err)
	require.NoError(t, f.SetReferent(ctx, "F1", "Overseer", "P1"))

	refs, err := f.ListReferents(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, refs, 14)
	assert.Equal(t, "Technical Manager", refs[0].RoleName)
	assert.Empty(t, refs[0].Person)
	assert.Equal(t, "Overseer", refs[13].RoleName)
	assert.Equal(t, "P1", refs[13].Person.String("uuid"))
}

func TestServiceCompanies(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")
	_, err := f.InsertRecord(ctx, repo.TableCompanies, store.Row{"uuid": "C1", "name": "Enedis"})
	require.NoError(t, err)

	company, err := f.GetCompanyByRole(ctx, "F1", "Grid Operator")
	require.NoError(t, err)
	assert.Empty(t, company)

	require.NoError(t, f.SetServiceCompany(ctx, "F1", "Grid Operator", "C1"))
	company, err = f.GetCompanyByRole(ctx, "F1", "Grid Operator")
	require.NoError(t, err)
	assert.Equal(t, "Enedis", company.String("name"))

	services, err := f.ListServiceCompanies(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, services, 7)
	assert.Equal(t, "Enedis", services[4].Company.String("name"))

	company, err = f.GetCompanyByRole(ctx, "F1", "Desconhecido")
	require.NoError(t, err)
	assert.Empty(t, company)
}

func TestUpsertSatellite(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)
	seedFarm(t, f, "F1", "WF01")

	row, err := f.UpsertSatellite(ctx, "F1", repo.TableFarmLocations, store.Row{"country": "France", "farm_uuid": "outra"})
	require.NoError(t, err)
	assert.Equal(t, "F1", row.String("farm_uuid"))
	assert.Equal(t, "WF01", row.String("farm_code"))

	row, err = f.UpsertSatellite(ctx, "F1", repo.TableFarmLocations, store.Row{"region": "Bretagne"})
	require.NoError(t, err)
	assert.Equal(t, "France", row.String("country"))
	assert.Equal(t, "Bretagne", row.String("region"))

	rows, err := f.ExecuteQuery(ctx, repo.TableFarmLocations, store.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = f.UpsertSatellite(ctx, "F1", repo.TablePersons, store.Row{"x": 1})
	assert.True(t, errors.Is(err, repo.ErrUnknownSatellite))

	_, err = f.UpsertSatellite(ctx, "F9", repo.TableFarmStatuses, store.Row{"farm_status": "x"})
	assert.True(t, errors.Is(err, repo.ErrNotFound))
}

func TestCreateAndUpdateFarm(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)

	_, err := f.CreateFarm(ctx, store.Row{"project": "Sem código"})
	require.Error(t, err)

	farm, err := f.CreateFarm(ctx, store.Row{"code": " WF07 ", "project": "Parc"})
	require.NoError(t, err)
	assert.Len(t, farm.String("uuid"), 36)
	assert.Equal(t, "WF07", farm.String("code"))

	_, err = f.UpdateFarm(ctx, farm.String("uuid"), store.Row{"code": "WF08"})
	assert.True(t, errors.Is(err, repo.ErrReadOnlyField))

	updated, err := f.UpdateFarm(ctx, farm.String("uuid"), store.Row{"spv": "SPV Parc"})
	require.NoError(t, err)
	assert.Equal(t, "SPV Parc", updated.String("spv"))
	assert.Equal(t, "WF07", updated.String("code"))

	_, err = f.UpdateFarm(ctx, "ausente", store.Row{"spv": "x"})
	assert.True(t, errors.Is(err, repo.ErrNotFound))

	_, err = f.CreateFarm(ctx, store.Row{"code": "WF07"})
	assert.True(t, errors.Is(err, store.ErrConflict))
}

func TestPersons(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)

	_, err := f.CreatePerson(ctx, store.Row{"first_name": "Ana"})
	require.Error(t, err)
	_, err = f.CreatePerson(ctx, store.Row{"first_name": "Ana", "last_name": "Martin", "email": "nao-e-email"})
	require.Error(t, err)

	_, err = f.CreatePerson(ctx, store.Row{"first_name": "Zoé", "last_name": "Bernard"})
	require.NoError(t, err)
	_, err = f.CreatePerson(ctx, store.Row{"first_name": "Ana", "last_name": "Martin", "email": "ana@wpd.fr"})
	require.NoError(t, err)

	persons, err := f.ListPersons(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, "Bernard", persons[0].String("last_name"))
}

func TestBackendFailureDegrades(t *testing.T) {
	ctx := context.Background()
	f := New(failingAdapter{})

	farms, err := f.GetAllFarms(ctx)
	assert.True(t, errors.Is(err, store.ErrUnavailable))
	assert.NotNil(t, farms)
	assert.Empty(t, farms)

	farm, err := f.GetFarmByCode(ctx, "WF01")
	assert.Error(t, err)
	assert.Nil(t, farm)

	perf, err := f.GetFarmPerformanceData(ctx, "F1")
	assert.True(t, errors.Is(err, store.ErrUnavailable))
	assert.NotNil(t, perf.ActualPerformances)
	assert.NotNil(t, perf.TargetPerformances)
	assert.NotNil(t, perf.Tariffs)

	contracts, err := f.GetFarmContractsAdmin(ctx, "F1")
	assert.Error(t, err)
	assert.Len(t, contracts, 7)

	person, err := f.GetPersonByRole(ctx, "F1", "Technical Manager")
	assert.Error(t, err)
	assert.Empty(t, person)

	status := f.Status(ctx)
	assert.False(t, status.Connected)
	assert.NotEmpty(t, status.Error)

	_, err = f.TableStats(ctx)
	assert.True(t, errors.Is(err, ErrStatsUnsupported))
}

func TestStatusAndStats(t *testing.T) {
	ctx := context.Background()
	f, _ := newFacade(t)

	status := f.Status(ctx)
	assert.True(t, status.Connected)
	assert.Equal(t, store.KindSQLite, status.Kind)

	stats, err := f.TableStats(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stats)
}

func seedTechnical(t *testing.T, adapter store.Adapter) {
	t.Helper()
	ctx := context.Background()
	inserts := []struct {
		table string
		row   store.Row
	}{
		{repo.TableFarmTurbineDetails, store.Row{"wind_farm_uuid": "F1", "wind_farm_code": "WF01", "manufacturer": "Vestas", "turbine_count": 2}},
		{repo.TableSubstations, store.Row{"uuid": "S1", "farm_uuid": "F1", "farm_code": "WF01", "substation_name": "PDL 1"}},
		{repo.TableWindTurbineGenerators, store.Row{"uuid": "T1", "farm_uuid": "F1", "farm_code": "WF01", "wtg_number": "E01"}},
		{repo.TableWindTurbineGenerators, store.Row{"uuid": "T2", "farm_uuid": "F1", "farm_code": "WF01", "wtg_number": "E02"}},
		{repo.TableIceDetectionSystems, store.Row{"uuid": "I1", "name": "Labko"}},
		{repo.TableFarmIceDetectionSystems, store.Row{"farm_uuid": "F1", "farm_code": "WF01", "ice_detection_system_uuid": "I1"}},
		{repo.TableFarmIceDetectionSystems, store.Row{"farm_uuid": "F1", "farm_code": "WF01", "ice_detection_system_uuid": "I-ausente"}},
	}
	for _, in := range inserts {
		_, err := adapter.Insert(ctx, in.table, in.row)
		require.NoError(t, err, in.table)
	}
}

func keys(row store.Row) []string {
	out := make([]string, 0, len(row))
	for k := range row {
		out = append(out, k)
	}
	return out
}

func mapKeys(m repo.ContractsAdmin) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// plainAdapter esconde as capacidades opcionais do adapter embutido.
type plainAdapter struct {
	store.Adapter
}

type countingAdapter struct {
	tables []string
}

func (c *countingAdapter) Kind() store.Kind { return store.KindSQLite }
func (c *countingAdapter) Query(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	c.tables = append(c.tables, table)
	return []store.Row{}, nil
}
func (c *countingAdapter) Insert(ctx context.Context, table string, data store.Row) (store.Row, error) {
	return data, nil
}
func (c *countingAdapter) Update(ctx context.Context, table string, filters store.Filters, data store.Row) (int64, error) {
	return 0, nil
}
func (c *countingAdapter) Delete(ctx context.Context, table string, filters store.Filters) (int64, error) {
	return 0, nil
}
func (c *countingAdapter) Ping(ctx context.Context) error { return nil }
func (c *countingAdapter) Close() error                   { return nil }

type failingAdapter struct{}

var errDown = errors.Join(store.ErrUnavailable, errors.New("connection refused"))

func (failingAdapter) Kind() store.Kind { return store.KindSupabase }
func (failingAdapter) Query(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	return nil, errDown
}
func (failingAdapter) Insert(ctx context.Context, table string, data store.Row) (store.Row, error) {
	return nil, errDown
}
func (failingAdapter) Update(ctx context.Context, table string, filters store.Filters, data store.Row) (int64, error) {
	return 0, errDown
}
func (failingAdapter) Delete(ctx context.Context, table string, filters store.Filters) (int64, error) {
	return 0, errDown
}
func (failingAdapter) Ping(ctx context.Context) error { return errDown }
func (failingAdapter) Close() error                   { return nil }
