// Package models contains the request and response payloads of the
// public API together with their validation tags.
package models

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse is the generic `{message}` payload used for errors and
// for the protected/unprotected endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenCarrier is the optional body of a protected-resource request. The
// token field, when present, takes precedence over the Authorization
// header and the session cookie.
type TokenCarrier struct {
	Token string `json:"token"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
