package repo

// Nomes das tabelas do catálogo.
const (
	TableFarms                          = "farms"
	TableFarmTypes                      = "farm_types"
	TableFarmStatuses                   = "farm_statuses"
	TableFarmLocations                  = "farm_locations"
	TableFarmAdministrations            = "farm_administrations"
	TableFarmOMContracts                = "farm_om_contracts"
	TableFarmTCMAContracts              = "farm_tcma_contracts"
	TableFarmElectricalDelegations      = "farm_electrical_delegations"
	TableFarmEnvironmentalInstallations = "farm_environmental_installations"
	TableFarmFinancialGuarantees        = "farm_financial_guarantees"
	TableFarmSubstationDetails          = "farm_substation_details"
	TableFarmTurbineDetails             = "farm_turbine_details"
	TableSubstations                    = "substations"
	TableWindTurbineGenerators          = "wind_turbine_generators"
	TableIceDetectionSystems            = "ice_detection_systems"
	TableFarmIceDetectionSystems        = "farm_ice_detection_systems"
	TableFarmActualPerformances         = "farm_actual_performances"
	TableFarmTargetPerformances         = "farm_target_performances"
	TableFarmTariffs                    = "farm_tariffs"
	TablePersons                        = "persons"
	TablePersonRoles                    = "person_roles"
	TableCompanyRoles                   = "company_roles"
	TableCompanies                      = "companies"
	TableFarmReferents                  = "farm_referents"
	TableFarmCompanyRoles               = "farm_company_roles"
	TableProfiles                       = "profiles"
)

// Satellite liga uma tabela 1:1 da usina à chave usada nos agregados.
type Satellite struct {
	Table string
	Key   string
}

// ContractSatellites é a lista fixa do agregado de contratos e administração.
var ContractSatellites = []Satellite{
	{TableFarmAdministrations, "administrations"},
	{TableFarmOMContracts, "om_contracts"},
	{TableFarmTCMAContracts, "tcma_contracts"},
	{TableFarmElectricalDelegations, "electrical_delegations"},
	{TableFarmEnvironmentalInstallations, "environmental_installations"},
	{TableFarmFinancialGuarantees, "financial_guarantees"},
	{TableFarmSubstationDetails, "substation_details"},
}

// IsSatellite informa se a tabela é um satélite 1:1 chaveado por farm_uuid.
func IsSatellite(table string) bool {
	if table == TableFarmStatuses || table == TableFarmLocations {
		return true
	}
	for _, s := range ContractSatellites {
		if s.Table == table {
			return true
		}
	}
	return false
}

var knownTables = map[string]struct{}{
	TableFarms: {}, TableFarmTypes: {}, TableFarmStatuses: {}, TableFarmLocations: {},
	TableFarmAdministrations: {}, TableFarmOMContracts: {}, TableFarmTCMAContracts: {},
	TableFarmElectricalDelegations: {}, TableFarmEnvironmentalInstallations: {},
	TableFarmFinancialGuarantees: {}, TableFarmSubstationDetails: {}, TableFarmTurbineDetails: {},
	TableSubstations: {}, TableWindTurbineGenerators: {}, TableIceDetectionSystems: {},
	TableFarmIceDetectionSystems: {}, TableFarmActualPerformances: {}, TableFarmTargetPerformances: {},
	TableFarmTariffs: {}, TablePersons: {}, TablePersonRoles: {}, TableCompanyRoles: {},
	TableCompanies: {}, TableFarmReferents: {}, TableFarmCompanyRoles: {},
}

// IsKnownTable informa se a tabela pertence ao catálogo exposto pela API genérica.
// profiles fica de fora porque guarda credenciais.
func IsKnownTable(table string) bool {
	_, ok := knownTables[table]
	return ok
}
