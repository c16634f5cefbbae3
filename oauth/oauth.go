package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"storefront/repository"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/v18.0/me?fields=id,email,first_name,last_name,picture.type(large)"

	stateMaxAge = 10 * time.Minute
)

var (
	ErrBadState  = errors.New("oauth state is invalid or expired")
	ErrNoProfile = errors.New("oauth provider returned no usable profile")
)

// Provider is one OAuth login option.
type Provider interface {
	Name() string
	AuthURL(state string) string
	// Profile exchanges an authorization code and fetches who signed in.
	Profile(ctx context.Context, code string) (*repository.OAuthProfile, error)
}

type provider struct {
	name       string
	cfg        *oauth2.Config
	profileURL string
	parse      func([]byte) (*repository.OAuthProfile, error)
}

func NewGoogle(clientID, clientSecret, redirectURI string) Provider {
	return &provider{
		name: repository.ProviderGoogle,
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		profileURL: googleUserInfoURL,
		parse:      parseGoogle,
	}
}

func NewFacebook(appID, appSecret, redirectURI string) Provider {
	return &provider{
		name: repository.ProviderFacebook,
		cfg: &oauth2.Config{
			ClientID:     appID,
			ClientSecret: appSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     endpoints.Facebook,
		},
		profileURL: facebookUserInfoURL,
		parse:      parseFacebook,
	}
}

func (p *provider) Name() string { return p.name }

func (p *provider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *provider) Profile(ctx context.Context, code string) (*repository.OAuthProfile, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("authorization code is required")
	}
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s code exchange: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s profile: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s profile: status %d", p.name, resp.StatusCode)
	}

	profile, err := p.parse(body)
	if err != nil {
		return nil, err
	}
	profile.Provider = p.name
	return profile, nil
}

// claimBool decodes a boolean claim sent either as true or as "true".
type claimBool bool

func (b *claimBool) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(strings.Trim(string(data), `"`))
	if err != nil {
		return fmt.Errorf("invalid boolean claim %s", data)
	}
	*b = claimBool(v)
	return nil
}

func parseGoogle(body []byte) (*repository.OAuthProfile, error) {
	var u struct {
		Sub           string    `json:"sub"`
		Email         string    `json:"email"`
		EmailVerified claimBool `json:"email_verified"`
		GivenName     string    `json:"given_name"`
		FamilyName    string    `json:"family_name"`
		Picture       string    `json:"picture"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	if u.Sub == "" {
		return nil, ErrNoProfile
	}
	return &repository.OAuthProfile{
		ProviderID:    u.Sub,
		Email:         u.Email,
		EmailVerified: bool(u.EmailVerified) && u.Email != "",
		FirstName:     u.GivenName,
		LastName:      u.FamilyName,
		Avatar:        u.Picture,
	}, nil
}

func parseFacebook(body []byte) (*repository.OAuthProfile, error) {
	var u struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Picture   struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, ErrNoProfile
	}
	// the Graph API only returns an email once the person has confirmed it
	return &repository.OAuthProfile{
		ProviderID:    u.ID,
		Email:         u.Email,
		EmailVerified: u.Email != "",
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Avatar:        u.Picture.Data.URL,
	}, nil
}

// StateSigner makes and checks the HMAC-signed state parameter that guards the callback.
type StateSigner struct {
	key []byte
	now func() time.Time
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{key: []byte(secret), now: time.Now}
}

func (s *StateSigner) sign(raw string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// MakeState returns "<provider>.<nonce>.<unix>.<sig>".
func (s *StateSigner) MakeState(provider string) string {
	raw := provider + "." + strings.ReplaceAll(uuid.NewString(), "-", "") + "." + strconv.FormatInt(s.now().Unix(), 10)
	return raw + "." + s.sign(raw)
}

func (s *StateSigner) VerifyState(provider, state string) error {
	i := strings.LastIndexByte(state, '.')
	if i < 0 {
		return ErrBadState
	}
	raw, sig := state[:i], state[i+1:]
	if !hmac.Equal([]byte(s.sign(raw)), []byte(sig)) {
		return ErrBadState
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] != provider {
		return ErrBadState
	}
	issued, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ErrBadState
	}
	if age := s.now().Sub(time.Unix(issued, 0)); age < 0 || age > stateMaxAge {
		return ErrBadState
	}
	return nil
}
