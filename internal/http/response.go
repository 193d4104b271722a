package http

import (
	"encoding/json"
	"net/http"
)

// Envelope é o formato único das respostas: data em sucesso, error em falha,
// ambos quando a resposta foi degradada.
type Envelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	WriteEnvelope(w, status, data, nil)
}

// WriteError escreve envelope de erro.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteEnvelope(w, status, nil, &ErrorBody{Code: code, Message: message, Details: details})
}

// WriteEnvelope escreve dados e erro no mesmo corpo.
func WriteEnvelope(w http.ResponseWriter, status int, data any, body *ErrorBody) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Data: data, Error: body})
}
