// Package mockstore provides a testify-based mock implementation of the
// credential store contract. It is used for unit testing the transport
// bindings by simulating storage behavior.
package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/sessiond/internal/user"
	"github.com/patric-chuzhbe/sessiond/internal/userstore"
)

// StoreMock is a testify mock that implements userstore.Store.
type StoreMock struct {
	mock.Mock
}

// Insert mocks the insert-with-uniqueness-check operation.
func (m *StoreMock) Insert(ctx context.Context, credential userstore.Credential) (*user.User, error) {
	args := m.Called(ctx, credential)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// Verify mocks credential verification.
func (m *StoreMock) Verify(ctx context.Context, credential userstore.Credential) (*user.User, error) {
	args := m.Called(ctx, credential)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// Find mocks the selector lookup.
func (m *StoreMock) Find(ctx context.Context, selector userstore.Selector) (*user.User, error) {
	args := m.Called(ctx, selector)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// Remove mocks the selector removal.
func (m *StoreMock) Remove(ctx context.Context, selector userstore.Selector) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

// Load mocks replacing the table with the snapshot contents.
func (m *StoreMock) Load(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Save mocks the whole-table snapshot write.
func (m *StoreMock) Save(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Ping mocks the health check.
func (m *StoreMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the store.
func (m *StoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ userstore.Store = (*StoreMock)(nil)
