// Package httperr carries the error taxonomy surfaced to API callers and the
// JSON shape every failure response uses.
package httperr

import (
	"encoding/json"
	"net/http"
)

// Canonical failure messages. These are wire values; clients match on them.
const (
	MsgTokenNotProvided   = "TokenNotProvided"
	MsgInvalidToken       = "InvalidToken"
	MsgUserNoLongerExists = "UserNoLongerExists"
	MsgPermissionDenied   = "PermissionDenied"
	MsgWrongCredentials   = "WrongCredentials"
	MsgEmailExists        = "EmailExists"
	MsgServerError        = "ServerError"
)

// Error is a failure with an HTTP status and a client-facing message. It is
// terminal: nothing in the core retries, callers receive it as-is.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// New returns an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest is an input-validation failure.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized covers missing/invalid credentials and permission denials.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotFound is an unknown role, invite target, or resource.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict is a unique-constraint violation surfaced to the caller.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// ServerError wraps an uncategorized store failure.
func ServerError(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Write renders err as the standard {"status":"failed","message":...} body.
// Non-*Error values are masked as a ServerError so internals never leak.
func Write(w http.ResponseWriter, err error) {
	he, ok := err.(*Error)
	if !ok {
		he = ServerError(MsgServerError)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.Status)
	_ = json.NewEncoder(w).Encode(errorBody{Status: "failed", Message: he.Message})
}

// WriteJSON renders v with the given status as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SimpleResponse is the success envelope for operations that return no data.
type SimpleResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteMessage renders a success envelope with the given message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, SimpleResponse{Status: "success", Message: message})
}
