// Package response writes the flat JSON bodies the listings API speaks:
// {"error": "..."} for failures and {"message": "..."} for acknowledgements.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the failure payload.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the acknowledgement payload.
type MessageBody struct {
	Message string `json:"message"`
}

// FieldsBody is a 400 payload naming each rejected field.
type FieldsBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 with data as the whole body.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 with data as the whole body.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Message sends {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error sends {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// Invalid sends a 400 with per-field messages.
func Invalid(w http.ResponseWriter, msg string, fields map[string]string) {
	JSON(w, http.StatusBadRequest, FieldsBody{Error: msg, Fields: fields})
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

// InternalError sends a 500 with an opaque message.
func InternalError(w http.ResponseWriter, msg string) {
	Error(w, http.StatusInternalServerError, msg)
}
