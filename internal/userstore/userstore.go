// Package userstore defines the credential store contract implemented by
// the jsonfile, memorystore and postgresdb backends, together with the
// transient credential and selector types and the store error taxonomy.
package userstore

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/sessiond/internal/user"
)

// Credential is the request-scoped email/password pair supplied by a
// caller. It is consumed by hashing or verification and never stored.
type Credential struct {
	Email    string
	Password string
	Name     string
}

// Selector addresses a single record for Find and Remove. Exactly one
// field must be set; they are checked in the order ID, Name, Email.
type Selector struct {
	ID    string
	Name  string
	Email string
}

// ErrAlreadyExists is returned by Insert when a record with the same
// email is already present.
var ErrAlreadyExists = errors.New("user already exists")

// ErrNotFound is returned when no record matches the given email or
// selector.
var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned by Verify when the record exists but
// the password does not match the stored hash.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidSelector is returned by Find and Remove when the selector has
// no field set.
var ErrInvalidSelector = errors.New("invalid selector")

// Store is the credential store contract. Insert and Remove serialize the
// uniqueness check and the mutation; Find and Verify may run concurrently
// with each other.
type Store interface {
	Insert(ctx context.Context, credential Credential) (*user.User, error)

	Verify(ctx context.Context, credential Credential) (*user.User, error)

	Find(ctx context.Context, selector Selector) (*user.User, error)

	Remove(ctx context.Context, selector Selector) error

	Load(ctx context.Context) error

	Save(ctx context.Context) error

	Ping(ctx context.Context) error

	Close() error
}
