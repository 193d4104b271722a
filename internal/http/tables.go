package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
)

// Parâmetros reservados da consulta genérica; o resto vira filtro de igualdade.
const (
	paramColumns = "columns"
	paramOrder   = "order"
)

func (h *Handler) table(w http.ResponseWriter, r *http.Request) (string, bool) {
	table := chi.URLParam(r, "table")
	if !repo.IsKnownTable(table) {
		writeServiceError(w, r, fmt.Errorf("%w: %s", repo.ErrUnknownTable, table))
		return "", false
	}
	return table, true
}

// filtersFromQuery monta filtros a partir da query string, ignorando os reservados.
func filtersFromQuery(r *http.Request) store.Filters {
	filters := store.Filters{}
	for key, values := range r.URL.Query() {
		if key == paramColumns || key == paramOrder || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	return filters
}

// QueryTable executa a leitura genérica: ?col=valor&columns=a,b&order=col desc.
func (h *Handler) QueryTable(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}

	q := store.Query{Filters: filtersFromQuery(r), OrderBy: r.URL.Query().Get(paramOrder)}
	if cols := strings.TrimSpace(r.URL.Query().Get(paramColumns)); cols != "" {
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Columns = append(q.Columns, c)
			}
		}
	}

	rows, err := h.facade.ExecuteQuery(r.Context(), table, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

// InsertTable insere uma linha e devolve o registro gravado.
func (h *Handler) InsertTable(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	data, ok := decodeRow(w, r)
	if !ok {
		return
	}

	row, err := h.facade.InsertRecord(r.Context(), table, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, row)
}

// UpdateTable altera as linhas que casam com filters: {"filters": {...}, "data": {...}}.
func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	var payload struct {
		Filters store.Filters `json:"filters"`
		Data    store.Row     `json:"data"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if len(payload.Data) == 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data é obrigatório", nil)
		return
	}

	filters := store.Filters(normalizeNumbers(store.Row(payload.Filters)))
	affected, err := h.facade.UpdateRecord(r.Context(), table, filters, normalizeNumbers(payload.Data))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}

// DeleteTable remove as linhas que casam com os filtros da query string.
func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}

	affected, err := h.facade.DeleteRecord(r.Context(), table, filtersFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}
