package http

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/farmdesk/internal/store"
)

// ListFarms lista as usinas para o seletor.
func (h *Handler) ListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := h.facade.GetAllFarms(r.Context())
	writeResult(w, r, farms, err)
}

// GetFarmByCode busca a usina pelo código.
func (h *Handler) GetFarmByCode(w http.ResponseWriter, r *http.Request) {
	farm, err := h.facade.GetFarmByCode(r.Context(), pathParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if farm == nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usina não encontrada", nil)
		return
	}
	WriteJSON(w, http.StatusOK, farm)
}

// GetFarmData devolve os quatro agregados da usina.
func (h *Handler) GetFarmData(w http.ResponseWriter, r *http.Request) {
	data, err := h.facade.GetAllFarmData(r.Context(), chi.URLParam(r, "uuid"))
	if err == nil && data.GeneralInfo.Farm == nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usina não encontrada", nil)
		return
	}
	writeResult(w, r, data, err)
}

// GetGeneralInfo devolve usina, tipo, status e localização.
func (h *Handler) GetGeneralInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.facade.GetFarmGeneralInfo(r.Context(), chi.URLParam(r, "uuid"))
	if err == nil && info.Farm == nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usina não encontrada", nil)
		return
	}
	writeResult(w, r, info, err)
}

func (h *Handler) GetTechnicalDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.facade.GetFarmTechnicalDetails(r.Context(), chi.URLParam(r, "uuid"))
	writeResult(w, r, details, err)
}

func (h *Handler) GetContractsAdmin(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.facade.GetFarmContractsAdmin(r.Context(), chi.URLParam(r, "uuid"))
	writeResult(w, r, contracts, err)
}

func (h *Handler) GetPerformanceData(w http.ResponseWriter, r *http.Request) {
	perf, err := h.facade.GetFarmPerformanceData(r.Context(), chi.URLParam(r, "uuid"))
	writeResult(w, r, perf, err)
}

func (h *Handler) ListReferents(w http.ResponseWriter, r *http.Request) {
	refs, err := h.facade.ListReferents(r.Context(), chi.URLParam(r, "uuid"))
	writeResult(w, r, refs, err)
}

// GetReferent devolve a pessoa do papel, ou objeto vazio quando não há.
func (h *Handler) GetReferent(w http.ResponseWriter, r *http.Request) {
	person, err := h.facade.GetPersonByRole(r.Context(), chi.URLParam(r, "uuid"), pathParam(r, "role"))
	writeResult(w, r, person, err)
}

func (h *Handler) ListServiceCompanies(w http.ResponseWriter, r *http.Request) {
	services, err := h.facade.ListServiceCompanies(r.Context(), chi.URLParam(r, "uuid"))
	writeResult(w, r, services, err)
}

func (h *Handler) GetServiceCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.facade.GetCompanyByRole(r.Context(), chi.URLParam(r, "uuid"), pathParam(r, "role"))
	writeResult(w, r, company, err)
}

func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.facade.ListPersons(r.Context())
	writeResult(w, r, persons, err)
}

// CreateFarm cadastra uma usina.
func (h *Handler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRow(w, r)
	if !ok {
		return
	}
	farm, err := h.facade.CreateFarm(r.Context(), data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, farm)
}

// UpdateFarm altera campos da usina; code e uuid são recusados.
func (h *Handler) UpdateFarm(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRow(w, r)
	if !ok {
		return
	}
	farm, err := h.facade.UpdateFarm(r.Context(), chi.URLParam(r, "uuid"), data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, farm)
}

// UpsertSatellite grava a linha 1:1 da usina na tabela satélite.
func (h *Handler) UpsertSatellite(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRow(w, r)
	if !ok {
		return
	}
	row, err := h.facade.UpsertSatellite(r.Context(), chi.URLParam(r, "uuid"), chi.URLParam(r, "table"), data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

// SetReferent atribui (ou remove, com person_uuid vazio) o referente do papel.
func (h *Handler) SetReferent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonUUID string `json:"person_uuid"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	farmUUID, role := chi.URLParam(r, "uuid"), pathParam(r, "role")
	if err := h.facade.SetReferent(r.Context(), farmUUID, role, payload.PersonUUID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	person, err := h.facade.GetPersonByRole(r.Context(), farmUUID, role)
	writeResult(w, r, person, err)
}

// SetServiceCompany atribui (ou remove, com company_uuid vazio) a prestadora do papel.
func (h *Handler) SetServiceCompany(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CompanyUUID string `json:"company_uuid"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	farmUUID, role := chi.URLParam(r, "uuid"), pathParam(r, "role")
	if err := h.facade.SetServiceCompany(r.Context(), farmUUID, role, payload.CompanyUUID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	company, err := h.facade.GetCompanyByRole(r.Context(), farmUUID, role)
	writeResult(w, r, company, err)
}

// CreatePerson cadastra uma pessoa.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRow(w, r)
	if !ok {
		return
	}
	person, err := h.facade.CreatePerson(r.Context(), data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, person)
}

// pathParam devolve o parâmetro de rota já decodificado (papéis têm espaços).
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func decodeRow(w http.ResponseWriter, r *http.Request) (store.Row, bool) {
	var data store.Row
	if !decodeJSON(w, r, &data) {
		return nil, false
	}
	if data == nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "objeto JSON esperado", nil)
		return nil, false
	}
	return normalizeNumbers(data), true
}

// normalizeNumbers converte json.Number em int64 quando inteiro, senão float64.
func normalizeNumbers(row store.Row) store.Row {
	for k, v := range row {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			row[k] = i
		} else if f, err := n.Float64(); err == nil {
			row[k] = f
		}
	}
	return row
}
