// Package apierr defines the closed error taxonomy shared by every
// service (spec §7): a fixed set of kinds, each with a known HTTP status
// and retriability, so handlers never invent ad-hoc error shapes.
package apierr

import (
	"encoding/json"
	"net/http"
)

type Kind string

const (
	AuthMissing         Kind = "AuthMissing"
	AuthInvalid         Kind = "AuthInvalid"
	AuthInactive        Kind = "AuthInactive"
	AuthForbiddenRole   Kind = "AuthForbiddenRole"
	NotFound            Kind = "NotFound"
	ValidationErr       Kind = "ValidationError"
	RateLimited         Kind = "RateLimited"
	UpstreamTimeout     Kind = "UpstreamTimeout"
	UpstreamUnavailable Kind = "UpstreamUnavailable"
	UpstreamOther       Kind = "UpstreamOther"
	MachineStateConflict Kind = "MachineStateConflict"
	LLMModeration       Kind = "LLMModeration"
	Internal            Kind = "Internal"
)

var statusByKind = map[Kind]int{
	AuthMissing:          http.StatusUnauthorized,
	AuthInvalid:          http.StatusUnauthorized,
	AuthInactive:         http.StatusForbidden,
	AuthForbiddenRole:    http.StatusForbidden,
	NotFound:             http.StatusNotFound,
	ValidationErr:        http.StatusBadRequest,
	RateLimited:          http.StatusTooManyRequests,
	UpstreamTimeout:      http.StatusGatewayTimeout,
	UpstreamUnavailable:  http.StatusServiceUnavailable,
	UpstreamOther:        http.StatusBadGateway,
	MachineStateConflict: http.StatusConflict,
	LLMModeration:        http.StatusOK,
	Internal:             http.StatusInternalServerError,
}

var retriableByKind = map[Kind]bool{
	RateLimited:         true,
	UpstreamTimeout:     true,
	UpstreamUnavailable: true,
}

// Error is the one error shape every handler in the platform returns.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Status resolves the HTTP status for this error's Kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retriable reports whether callers may safely retry.
func (e *Error) Retriable() bool {
	return retriableByKind[e.Kind]
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Field(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// WriteJSON writes the error as the standard JSON error body and sets the
// matching HTTP status, plus WWW-Authenticate for auth failures per §4.1.
func WriteJSON(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	if err.Kind == AuthMissing || err.Kind == AuthInvalid {
		w.Header().Set("WWW-Authenticate", `Bearer realm="orqestra"`)
	}
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": err,
	})
}

// As extracts an *Error from err if possible, else wraps it as Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(Internal, err.Error())
}
