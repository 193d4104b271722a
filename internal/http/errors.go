package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/auth"
	"github.com/gestaozabele/farmdesk/internal/farmdata"
	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/util"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	exposed bool
}

// A ordem importa: o primeiro alvo reconhecido por errors.Is vence.
var errorMappings = []errorMapping{
	{util.ErrValidation, http.StatusBadRequest, "VALIDATION", true},
	{store.ErrInvalidQuery, http.StatusBadRequest, "VALIDATION", true},
	{repo.ErrReadOnlyField, http.StatusBadRequest, "VALIDATION", true},
	{repo.ErrUnknownSatellite, http.StatusBadRequest, "VALIDATION", true},
	{repo.ErrUnknownRole, http.StatusBadRequest, "VALIDATION", true},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "AUTH", true},
	{auth.ErrRefreshFailed, http.StatusUnauthorized, "AUTH", true},
	{auth.ErrNotAuthenticated, http.StatusUnauthorized, "AUTH", true},
	{auth.ErrDomainNotAllowed, http.StatusForbidden, "FORBIDDEN", true},
	{auth.ErrEmailNotConfirmed, http.StatusForbidden, "FORBIDDEN", true},
	{repo.ErrNotFound, http.StatusNotFound, "NOT_FOUND", true},
	{repo.ErrUnknownTable, http.StatusNotFound, "NOT_FOUND", true},
	{store.ErrUndefinedTable, http.StatusNotFound, "NOT_FOUND", false},
	{store.ErrConflict, http.StatusConflict, "CONFLICT", true},
	{auth.ErrAlreadyRegistered, http.StatusConflict, "CONFLICT", true},
	{auth.ErrUnsupported, http.StatusNotImplemented, "NOT_IMPLEMENTED", true},
	{auth.ErrNotImplemented, http.StatusNotImplemented, "NOT_IMPLEMENTED", true},
	{farmdata.ErrStatsUnsupported, http.StatusNotImplemented, "NOT_IMPLEMENTED", true},
	{auth.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMIT", true},
	{store.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE", false},
}

// errorBody converte um erro de domínio em status HTTP e corpo normalizado.
// Erros não mapeados viram INTERNAL sem expor a mensagem do erro.
func errorBody(err error) (int, *ErrorBody) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		if m.exposed {
			msg = err.Error()
		}
		return m.status, &ErrorBody{Code: m.code, Message: msg}
	}
	return http.StatusInternalServerError, &ErrorBody{Code: "INTERNAL", Message: "erro interno"}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("falha ao atender requisição")
	}
	WriteError(w, status, body.Code, body.Message, nil)
}

// writeResult responde com os dados e, quando houve falha parcial, com o erro
// que os degradou no mesmo envelope.
func writeResult(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err == nil {
		WriteJSON(w, http.StatusOK, data)
		return
	}
	status, body := errorBody(err)
	log.Warn().Err(err).Str("path", r.URL.Path).Msg("resposta degradada")
	WriteEnvelope(w, status, data, body)
}
