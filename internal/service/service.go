// Package service implements the request pipeline shared by both
// transport bindings: validate the assembled payload, consult the
// credential store, and have the token issuer sign the session token.
// Transports only assemble bodies and map the returned errors to
// statuses via StatusForError/MessageForError.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/sessiond/internal/models"
	"github.com/patric-chuzhbe/sessiond/internal/token"
	"github.com/patric-chuzhbe/sessiond/internal/user"
	"github.com/patric-chuzhbe/sessiond/internal/userstore"
)

// ErrShapeInvalid is returned when a request payload fails schema
// validation.
var ErrShapeInvalid = errors.New("invalid schema")

type credentialStore interface {
	Insert(ctx context.Context, credential userstore.Credential) (*user.User, error)
	Verify(ctx context.Context, credential userstore.Credential) (*user.User, error)
	Find(ctx context.Context, selector userstore.Selector) (*user.User, error)
	Remove(ctx context.Context, selector userstore.Selector) error
	Ping(ctx context.Context) error
}

type tokenIssuer interface {
	Issue(email string) (string, error)
	Verify(tokenString string) (string, error)
}

// Service owns the store and the token issuer and exposes the per
// endpoint pipelines.
type Service struct {
	db       credentialStore
	issuer   tokenIssuer
	validate *validator.Validate
}

// New creates a Service.
func New(db credentialStore, issuer tokenIssuer) *Service {
	return &Service{
		db:       db,
		issuer:   issuer,
		validate: validator.New(),
	}
}

// SignUp validates the payload, inserts the credential and issues a
// token for the new record. A duplicate email surfaces as
// userstore.ErrAlreadyExists.
func (s *Service) SignUp(ctx context.Context, request models.SignupRequest) (string, error) {
	if err := s.validate.Struct(request); err != nil {
		return "", fmt.Errorf("%w: %v", ErrShapeInvalid, err)
	}

	_, err := s.db.Insert(ctx, userstore.Credential{
		Email:    request.Email,
		Password: request.Password,
		Name:     request.Name,
	})
	if err != nil {
		return "", err
	}

	return s.issuer.Issue(request.Email)
}

// SignIn validates the payload, verifies the credential against the
// store and issues a token. The store distinguishes ErrNotFound from
// ErrInvalidCredentials; both map to the same boundary message.
func (s *Service) SignIn(ctx context.Context, request models.LoginRequest) (string, error) {
	if err := s.validate.Struct(request); err != nil {
		return "", fmt.Errorf("%w: %v", ErrShapeInvalid, err)
	}

	record, err := s.db.Verify(ctx, userstore.Credential{
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		return "", err
	}

	return s.issuer.Issue(record.Email)
}

// CheckToken verifies a bearer token and returns its subject email.
func (s *Service) CheckToken(tokenString string) (string, error) {
	return s.issuer.Verify(tokenString)
}

// FindUser exposes the store's selector lookup.
func (s *Service) FindUser(ctx context.Context, selector userstore.Selector) (*user.User, error) {
	return s.db.Find(ctx, selector)
}

// RemoveUser exposes the store's selector removal.
func (s *Service) RemoveUser(ctx context.Context, selector userstore.Selector) error {
	return s.db.Remove(ctx, selector)
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// StatusForError maps a pipeline error to the HTTP status code both
// transport bindings must emit.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrShapeInvalid),
		errors.Is(err, userstore.ErrAlreadyExists),
		errors.Is(err, userstore.ErrNotFound),
		errors.Is(err, userstore.ErrInvalidCredentials):
		return http.StatusBadRequest

	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}

// MessageForError maps a pipeline error to the externally visible
// message. ErrNotFound and ErrInvalidCredentials share one message so
// the login endpoint does not allow email enumeration; internal detail
// never leaks for server-side faults.
func MessageForError(err error) string {
	switch {
	case errors.Is(err, ErrShapeInvalid):
		return "Invalid schema."

	case errors.Is(err, userstore.ErrAlreadyExists):
		return "Failed to store user."

	case errors.Is(err, userstore.ErrNotFound),
		errors.Is(err, userstore.ErrInvalidCredentials):
		return "Failed to get user."

	case errors.Is(err, token.ErrInvalidToken):
		return "Unauthorized."

	default:
		return "Internal server error"
	}
}
