package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/sessiond/internal/models"
	"github.com/patric-chuzhbe/sessiond/internal/token"
	"github.com/patric-chuzhbe/sessiond/internal/userstore"
	"github.com/patric-chuzhbe/sessiond/internal/userstore/jsonfile"
	"github.com/patric-chuzhbe/sessiond/internal/userstore/memorystore"
)

func newTestService(t *testing.T) (*Service, *token.Issuer) {
	t.Helper()

	theStorage, err := memorystore.New(jsonfile.WithBCryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	issuer := token.New([]byte("test secret"), "token", time.Hour)

	return New(theStorage, issuer), issuer
}

func TestSignUpIssuesVerifiableToken(t *testing.T) {
	svc, issuer := newTestService(t)

	tokenString, err := svc.SignUp(context.Background(), models.SignupRequest{
		Email:    "a@x.com",
		Password: "longenough1",
		Name:     "A",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	subject, err := issuer.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestSignUpDuplicate(t *testing.T) {
	svc, _ := newTestService(t)

	request := models.SignupRequest{
		Email:    "a@x.com",
		Password: "longenough1",
		Name:     "A",
	}

	_, err := svc.SignUp(context.Background(), request)
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), request)
	assert.ErrorIs(t, err, userstore.ErrAlreadyExists)
}

func TestSignUpShapeValidation(t *testing.T) {
	svc, _ := newTestService(t)

	testCases := []struct {
		name    string
		request models.SignupRequest
	}{
		{"missing email", models.SignupRequest{Password: "longenough1", Name: "A"}},
		{"invalid email", models.SignupRequest{Email: "not-an-email", Password: "longenough1", Name: "A"}},
		{"short password", models.SignupRequest{Email: "a@x.com", Password: "short", Name: "A"}},
		{"missing name", models.SignupRequest{Email: "a@x.com", Password: "longenough1"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), testCase.request)
			assert.ErrorIs(t, err, ErrShapeInvalid)
		})
	}
}

func TestSignInRoundTrip(t *testing.T) {
	svc, issuer := newTestService(t)

	_, err := svc.SignUp(context.Background(), models.SignupRequest{
		Email:    "a@x.com",
		Password: "longenough1",
		Name:     "A",
	})
	require.NoError(t, err)

	tokenString, err := svc.SignIn(context.Background(), models.LoginRequest{
		Email:    "a@x.com",
		Password: "longenough1",
	})
	require.NoError(t, err)

	subject, err := issuer.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)

	_, err = svc.CheckToken(tokenString)
	assert.NoError(t, err)
}

func TestSignInFailures(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), models.SignupRequest{
		Email:    "a@x.com",
		Password: "longenough1",
		Name:     "A",
	})
	require.NoError(t, err)

	_, err = svc.SignIn(context.Background(), models.LoginRequest{
		Email:    "a@x.com",
		Password: "wrongpassword",
	})
	assert.ErrorIs(t, err, userstore.ErrInvalidCredentials)

	_, err = svc.SignIn(context.Background(), models.LoginRequest{
		Email:    "unknown@x.com",
		Password: "longenough1",
	})
	assert.ErrorIs(t, err, userstore.ErrNotFound)
}

func TestFindAndRemoveUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), models.SignupRequest{
		Email:    "a@x.com",
		Password: "longenough1",
		Name:     "A",
	})
	require.NoError(t, err)

	record, err := svc.FindUser(context.Background(), userstore.Selector{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "A", record.Name)

	err = svc.RemoveUser(context.Background(), userstore.Selector{Name: "A"})
	require.NoError(t, err)

	_, err = svc.FindUser(context.Background(), userstore.Selector{Email: "a@x.com"})
	assert.ErrorIs(t, err, userstore.ErrNotFound)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForError(ErrShapeInvalid))
	assert.Equal(t, http.StatusBadRequest, StatusForError(userstore.ErrAlreadyExists))
	assert.Equal(t, http.StatusBadRequest, StatusForError(userstore.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusForError(userstore.ErrInvalidCredentials))
	assert.Equal(t, http.StatusUnauthorized, StatusForError(token.ErrInvalidToken))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(token.ErrSignerFailure))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("anything else")))
}

func TestMessageForErrorHidesInternals(t *testing.T) {
	assert.Equal(t, "Invalid schema.", MessageForError(ErrShapeInvalid))
	assert.Equal(t, "Failed to store user.", MessageForError(userstore.ErrAlreadyExists))

	// NotFound and InvalidCredentials must be indistinguishable at the
	// boundary so login cannot be used for email enumeration.
	assert.Equal(t, MessageForError(userstore.ErrNotFound), MessageForError(userstore.ErrInvalidCredentials))

	assert.Equal(t, "Internal server error", MessageForError(errors.New("secret database detail")))
	assert.NotContains(t, MessageForError(errors.New("secret database detail")), "secret")
}
