package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookieName = "token"

func TestIssueAndVerify(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, time.Hour)

	tokenString, err := issuer.Issue("a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	subject, err := issuer.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, time.Hour)
	foreign := New([]byte("another secret"), testCookieName, time.Hour)

	tokenString, err := foreign.Issue("a@x.com")
	require.NoError(t, err)

	_, err = issuer.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, -time.Minute)

	tokenString, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	_, err = issuer.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, time.Hour)

	_, err := issuer.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromPartsPrecedence(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, time.Hour)

	assert.Equal(
		t,
		"from-body",
		issuer.FromParts("from-body", "Bearer from-header", "from-cookie"),
		"the body field must win over header and cookie",
	)

	assert.Equal(
		t,
		"from-header",
		issuer.FromParts("", "Bearer from-header", "from-cookie"),
		"the bearer header must win over the cookie",
	)

	assert.Equal(
		t,
		"",
		issuer.FromParts("", "malformed-header", "from-cookie"),
		"a non-bearer Authorization header must not fall through to the cookie",
	)

	assert.Equal(t, "from-cookie", issuer.FromParts("", "", "from-cookie"))

	assert.Equal(t, "", issuer.FromParts("", "", ""))
}

func TestFromRequest(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, time.Hour)

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer from-header")
	request.AddCookie(&http.Cookie{Name: testCookieName, Value: "from-cookie"})

	assert.Equal(t, "from-header", issuer.FromRequest(request, ""))
	assert.Equal(t, "from-body", issuer.FromRequest(request, "from-body"))

	request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.AddCookie(&http.Cookie{Name: testCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", issuer.FromRequest(request, ""))
}

func TestSetCookieAttributes(t *testing.T) {
	issuer := New([]byte("test secret"), testCookieName, time.Hour)

	recorder := httptest.NewRecorder()
	issuer.SetCookie(recorder, "some token")

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, testCookieName, cookie.Name)
	assert.Equal(t, "some token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}
