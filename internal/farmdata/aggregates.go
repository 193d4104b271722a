package farmdata

import (
	"context"
	"errors"

	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
)

// GetAllFarms lista as usinas ordenadas por código.
func (f *Facade) GetAllFarms(ctx context.Context) ([]store.Row, error) {
	rows, err := f.adapter.Query(ctx, repo.TableFarms, store.Query{
		Columns: []string{"uuid", "code", "project", "spv"},
		OrderBy: "code",
	})
	if err != nil {
		f.fail("query", repo.TableFarms, err)
		return []store.Row{}, err
	}
	return rows, nil
}

// GetFarmByCode devolve a usina com o código informado, ou nil.
func (f *Facade) GetFarmByCode(ctx context.Context, code string) (store.Row, error) {
	return f.fetchOne(ctx, repo.TableFarms, store.Filters{"code": code})
}

// GetFarm devolve a usina pelo uuid, ou nil.
func (f *Facade) GetFarm(ctx context.Context, farmUUID string) (store.Row, error) {
	return f.fetchOne(ctx, repo.TableFarms, store.Filters{"uuid": farmUUID})
}

// GetFarmGeneralInfo agrega usina, tipo, status e localização.
// Usina ausente devolve apenas Farm nil, sem buscar dependentes.
func (f *Facade) GetFarmGeneralInfo(ctx context.Context, farmUUID string) (repo.GeneralInfo, error) {
	var info repo.GeneralInfo

	farm, err := f.GetFarm(ctx, farmUUID)
	if err != nil || farm == nil {
		return info, err
	}
	info.Farm = farm

	var errs []error
	if typeID, ok := farm.Int64("farm_type_id"); ok {
		info.FarmType, err = f.fetchOne(ctx, repo.TableFarmTypes, store.Filters{"id": typeID})
		errs = append(errs, err)
	}
	info.Status, err = f.fetchOne(ctx, repo.TableFarmStatuses, store.Filters{"farm_uuid": farmUUID})
	errs = append(errs, err)
	info.Location, err = f.fetchOne(ctx, repo.TableFarmLocations, store.Filters{"farm_uuid": farmUUID})
	errs = append(errs, err)

	return info, errors.Join(errs...)
}

// GetFarmTechnicalDetails agrega turbinas, subestações, aerogeradores e sistemas antigelo.
func (f *Facade) GetFarmTechnicalDetails(ctx context.Context, farmUUID string) (repo.TechnicalDetails, error) {
	var (
		details repo.TechnicalDetails
		errs    []error
		err     error
	)

	details.TurbineDetails, err = f.fetchOne(ctx, repo.TableFarmTurbineDetails, store.Filters{"wind_farm_uuid": farmUUID})
	errs = append(errs, err)
	details.Substations, err = f.fetchAll(ctx, repo.TableSubstations, store.Filters{"farm_uuid": farmUUID}, "")
	errs = append(errs, err)
	details.WTGs, err = f.fetchAll(ctx, repo.TableWindTurbineGenerators, store.Filters{"farm_uuid": farmUUID}, "")
	errs = append(errs, err)
	details.IceSystems, err = f.iceSystems(ctx, farmUUID)
	errs = append(errs, err)

	return details, errors.Join(errs...)
}

func (f *Facade) iceSystems(ctx context.Context, farmUUID string) ([]store.Row, error) {
	if joiner, ok := f.adapter.(store.Joiner); ok {
		rows, err := joiner.QueryVia(ctx, store.Via{
			Target:    repo.TableIceDetectionSystems,
			TargetKey: "uuid",
			Link:      repo.TableFarmIceDetectionSystems,
			LinkKey:   "ice_detection_system_uuid",
			Filters:   store.Filters{"farm_uuid": farmUUID},
		})
		if err != nil {
			f.fail("query_via", repo.TableIceDetectionSystems, err)
			return []store.Row{}, err
		}
		return rows, nil
	}

	links, err := f.fetchAll(ctx, repo.TableFarmIceDetectionSystems, store.Filters{"farm_uuid": farmUUID}, "")
	if err != nil {
		return []store.Row{}, err
	}
	systems := make([]store.Row, 0, len(links))
	var errs []error
	for _, link := range links {
		target := link.String("ice_detection_system_uuid")
		if target == "" {
			continue
		}
		system, err := f.fetchOne(ctx, repo.TableIceDetectionSystems, store.Filters{"uuid": target})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if system != nil {
			systems = append(systems, system)
		}
	}
	return systems, errors.Join(errs...)
}

// GetFarmContractsAdmin devolve as sete chaves de contratos e administração,
// cada uma com a linha do satélite ou nil.
func (f *Facade) GetFarmContractsAdmin(ctx context.Context, farmUUID string) (repo.ContractsAdmin, error) {
	result := make(repo.ContractsAdmin, len(repo.ContractSatellites))
	var errs []error
	for _, sat := range repo.ContractSatellites {
		row, err := f.fetchOne(ctx, sat.Table, store.Filters{"farm_uuid": farmUUID})
		errs = append(errs, err)
		result[sat.Key] = row
	}
	return result, errors.Join(errs...)
}

// GetFarmPerformanceData devolve desempenho real, metas e tarifas. Listas nunca são nil.
func (f *Facade) GetFarmPerformanceData(ctx context.Context, farmUUID string) (repo.PerformanceData, error) {
	var (
		data repo.PerformanceData
		errs []error
		err  error
	)
	filters := store.Filters{"farm_uuid": farmUUID}

	data.ActualPerformances, err = f.fetchAll(ctx, repo.TableFarmActualPerformances, filters, "year")
	errs = append(errs, err)
	data.TargetPerformances, err = f.fetchAll(ctx, repo.TableFarmTargetPerformances, filters, "year")
	errs = append(errs, err)
	data.Tariffs, err = f.fetchAll(ctx, repo.TableFarmTariffs, filters, "tariff_start_date")
	errs = append(errs, err)

	return data, errors.Join(errs...)
}

// GetAllFarmData compõe os quatro agregados da usina.
func (f *Facade) GetAllFarmData(ctx context.Context, farmUUID string) (repo.FarmData, error) {
	var (
		data repo.FarmData
		errs []error
		err  error
	)

	data.GeneralInfo, err = f.GetFarmGeneralInfo(ctx, farmUUID)
	errs = append(errs, err)
	data.TechnicalDetails, err = f.GetFarmTechnicalDetails(ctx, farmUUID)
	errs = append(errs, err)
	data.ContractsAdmin, err = f.GetFarmContractsAdmin(ctx, farmUUID)
	errs = append(errs, err)
	data.PerformanceData, err = f.GetFarmPerformanceData(ctx, farmUUID)
	errs = append(errs, err)

	return data, errors.Join(errs...)
}
