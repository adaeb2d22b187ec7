// Package oauth runs the Google sign-in handshake and hands the
// resulting identity to the storefront for session exchange.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"brewcart/internal/api"
	"brewcart/internal/models"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// exchangeTimeout bounds the token exchange and the user info fetch.
const exchangeTimeout = 10 * time.Second

// ErrStateMismatch rejects a callback whose state does not match the
// one issued when the flow started.
var ErrStateMismatch = errors.New("oauth state mismatch")

// UserInfo is the identity Google reports for the signed-in account.
type UserInfo struct {
	Subject string
	Email   string
	Name    string
}

// StorefrontAPI is the slice of the remote client the flow needs.
type StorefrontAPI interface {
	GoogleLogin(ctx context.Context, req api.GoogleLoginRequest) (*api.GoogleAuthResult, error)
}

// Sessions installs the exchanged session.
type Sessions interface {
	InstallExternal(token string, identity models.Identity) error
}

// Google drives one sign-in handshake: build the consent URL, exchange
// the callback code, fetch the profile, and trade it for a storefront
// session.
type Google struct {
	config      *oauth2.Config
	api         StorefrontAPI
	userInfoURL string
}

func NewGoogle(clientID, clientSecret, redirectURL string, remote StorefrontAPI) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		api:         remote,
		userInfoURL: googleUserInfoURL,
	}
}

// Configured reports whether credentials are present. Unconfigured
// flows hide the Google button rather than failing later.
func (g *Google) Configured() bool {
	return g.config.ClientID != "" && g.config.ClientSecret != ""
}

// Begin returns the consent URL and the state the callback must echo.
func (g *Google) Begin() (authURL, state string) {
	state = uuid.New().String()
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline), state
}

// Complete verifies the callback, fetches the Google profile, and
// exchanges it for a storefront session.
func (g *Google) Complete(ctx context.Context, wantState, gotState, code string) (*api.GoogleAuthResult, error) {
	if gotState == "" || gotState != wantState {
		return nil, ErrStateMismatch
	}
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	info, err := g.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	return g.api.GoogleLogin(ctx, api.GoogleLoginRequest{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
	})
}

func (g *Google) fetchUser(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to fetch Google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("failed to fetch Google user info: status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return UserInfo{}, fmt.Errorf("failed to parse Google user info: %w", err)
	}

	return UserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}
