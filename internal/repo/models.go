package repo

import "github.com/gestaozabele/farmdesk/internal/store"

// GeneralInfo agrega usina, tipo, status e localização.
type GeneralInfo struct {
	Farm     store.Row `json:"farm"`
	FarmType store.Row `json:"farm_type"`
	Status   store.Row `json:"status"`
	Location store.Row `json:"location"`
}

// TechnicalDetails agrega turbinas, subestações, aerogeradores e sistemas antigelo.
type TechnicalDetails struct {
	TurbineDetails store.Row   `json:"turbine_details"`
	Substations    []store.Row `json:"substations"`
	WTGs           []store.Row `json:"wtgs"`
	IceSystems     []store.Row `json:"ice_systems"`
}

// ContractsAdmin mapeia a chave curta do satélite para a linha, ou nil.
type ContractsAdmin map[string]store.Row

// PerformanceData agrega as séries anuais e as tarifas. As listas nunca são nil.
type PerformanceData struct {
	ActualPerformances []store.Row `json:"actual_performances"`
	TargetPerformances []store.Row `json:"target_performances"`
	Tariffs            []store.Row `json:"tariffs"`
}

// FarmData compõe os quatro agregados de uma usina.
type FarmData struct {
	GeneralInfo      GeneralInfo      `json:"general_info"`
	TechnicalDetails TechnicalDetails `json:"technical_details"`
	ContractsAdmin   ContractsAdmin   `json:"contracts_admin"`
	PerformanceData  PerformanceData  `json:"performance_data"`
}

// Referent associa um papel à pessoa designada; Person vazio indica papel sem referente.
type Referent struct {
	RoleID   int64     `json:"role_id"`
	RoleName string    `json:"role_name"`
	Person   store.Row `json:"person"`
}

// ServiceCompany associa um papel de empresa à empresa prestadora.
type ServiceCompany struct {
	RoleID   int64     `json:"role_id"`
	RoleName string    `json:"role_name"`
	Company  store.Row `json:"company"`
}
