package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/handlers"
	"storefront/middleware"
	"storefront/oauth"
	"storefront/queue"
	"storefront/repository"
)

// fakeProvider accepts the code "good" and answers with its profile.
type fakeProvider struct {
	name    string
	profile repository.OAuthProfile
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://provider.test/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Profile(_ context.Context, code string) (*repository.OAuthProfile, error) {
	if code != "good" {
		return nil, errors.New("bad code")
	}
	profile := p.profile
	profile.Provider = p.name
	return &profile, nil
}

func withGoogle(profile repository.OAuthProfile) func(*handlers.Deps) {
	return func(d *handlers.Deps) {
		d.Providers = []oauth.Provider{&fakeProvider{name: repository.ProviderGoogle, profile: profile}}
	}
}

var googleProfile = repository.OAuthProfile{ProviderID: "g-1", Email: "grace@example.com", EmailVerified: true, FirstName: "Grace", LastName: "Hopper"}

func TestOAuthRedirectFlow(t *testing.T) {
	e := newEnv(t, withGoogle(googleProfile))

	w := e.do(http.MethodGet, "/api/auth/google", nil, "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	w = e.do(http.MethodGet, "/api/auth/google/callback?code=good&state="+url.QueryEscape(state), nil, "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost:3000/auth/success", w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, []string{queue.KeyUserRegistered}, e.events.Keys())

	user, err := e.users.GetByEmail(context.Background(), "grace@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "g-1", *user.GoogleID)
}

func TestOAuthCallbackFailures(t *testing.T) {
	e := newEnv(t, withGoogle(googleProfile))
	failed := "http://localhost:3000/login?error=oauth_failed"

	cases := []string{
		"/api/auth/google/callback?code=good&state=forged",
		"/api/auth/google/callback?error=access_denied",
		"/api/auth/facebook/callback?code=good",
	}
	for _, path := range cases {
		w := e.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, failed, w.Header().Get("Location"), path)
	}
	assert.Empty(t, e.events.Keys())
}

func TestOAuthCodeExchange(t *testing.T) {
	e := newEnv(t, withGoogle(googleProfile))
	existing, _ := e.user("grace@example.com", "customer")

	w := e.do(http.MethodPost, "/api/auth/google", map[string]any{"code": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/google", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/auth/google", map[string]any{"code": "good"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(existing.ID), user["id"])
	assert.Equal(t, "g-1", user["googleId"])
	assert.Empty(t, e.events.Keys())

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/auth/facebook", map[string]any{"code": "good"}, "").Code)
}

func TestOAuthDeactivatedAccount(t *testing.T) {
	e := newEnv(t, withGoogle(googleProfile))
	u, _ := e.user("grace@example.com", "customer")
	u.IsActive = false
	require.NoError(t, e.users.Save(context.Background(), u))

	w := e.do(http.MethodPost, "/api/auth/google", map[string]any{"code": "good"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "account is deactivated", decode(t, w)["message"])
}

func TestOAuthUnverifiedEmailDoesNotLink(t *testing.T) {
	unverified := googleProfile
	unverified.EmailVerified = false
	e := newEnv(t, withGoogle(unverified))
	existing, _ := e.user("grace@example.com", "customer")

	w := e.do(http.MethodPost, "/api/auth/google", map[string]any{"code": "good"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Result().Cookies())

	user, err := e.users.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Nil(t, user.GoogleID)
}

func TestChangePasswordAfterOAuthLink(t *testing.T) {
	e := newEnv(t, withGoogle(googleProfile))
	local, token := e.user("grace@example.com", "customer")

	w := e.do(http.MethodPost, "/api/auth/google", map[string]any{"code": "good"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// linking a provider does not waive the current password
	w = e.do(http.MethodPut, "/api/profile/password", map[string]any{"newPassword": "Hijacked99"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "current password is incorrect", decode(t, w)["message"])

	user, err := e.users.GetByID(context.Background(), local.ID)
	require.NoError(t, err)
	assert.True(t, repository.CheckPassword(user.Password, testPassword))
}

func TestOAuthAccountSetsFirstPassword(t *testing.T) {
	e := newEnv(t, withGoogle(googleProfile))

	w := e.do(http.MethodPost, "/api/auth/google", map[string]any{"code": "good"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["token"].(string)

	w = e.do(http.MethodPut, "/api/profile/password", map[string]any{"newPassword": "Chosen123"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// from now on the chosen password is required
	w = e.do(http.MethodPut, "/api/profile/password", map[string]any{"newPassword": "Another123"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "grace@example.com", "password": "Chosen123"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
