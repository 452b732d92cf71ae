package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/noah-isme/eduvita-api/internal/models"
)

// SocialProvider is an OAuth2 identity provider that can resolve an
// authorization code into a profile.
type SocialProvider interface {
	Name() string
	Configured() bool
	AuthCodeURL(state string) string
	Profile(ctx context.Context, code string) (*models.SocialProfile, error)
}

// OAuthClientConfig carries the client registration of one provider.
type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider signs users in with Google accounts.
type GoogleProvider struct {
	config      *oauth2.Config
	UserInfoURL string
}

// NewGoogleProvider builds a Google provider using the OpenID scopes.
func NewGoogleProvider(cfg OAuthClientConfig) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleProvider) Profile(ctx context.Context, code string) (*models.SocialProfile, error) {
	client, err := exchange(ctx, p.config, code)
	if err != nil {
		return nil, err
	}
	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := getJSON(ctx, client, p.UserInfoURL, &info); err != nil {
		return nil, err
	}
	profile := &models.SocialProfile{Provider: p.Name(), ProviderID: info.Sub, Name: info.Name}
	if info.EmailVerified {
		profile.Email = strings.ToLower(info.Email)
	}
	return profile, nil
}

// GitHubProvider signs users in with GitHub accounts.
type GitHubProvider struct {
	config    *oauth2.Config
	UserURL   string
	EmailsURL string
}

// NewGitHubProvider builds a GitHub provider that can read private emails.
func NewGitHubProvider(cfg OAuthClientConfig) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
		UserURL:   "https://api.github.com/user",
		EmailsURL: "https://api.github.com/user/emails",
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) Profile(ctx context.Context, code string) (*models.SocialProfile, error) {
	client, err := exchange(ctx, p.config, code)
	if err != nil {
		return nil, err
	}
	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, p.UserURL, &user); err != nil {
		return nil, err
	}
	name := user.Name
	if name == "" {
		name = user.Login
	}
	profile := &models.SocialProfile{Provider: p.Name(), ProviderID: strconv.FormatInt(user.ID, 10), Name: name, Email: strings.ToLower(user.Email)}
	if profile.Email != "" {
		return profile, nil
	}

	// Private addresses are only listed on the emails endpoint.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, p.EmailsURL, &emails); err != nil {
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			profile.Email = strings.ToLower(e.Email)
			break
		}
	}
	return profile, nil
}

func exchange(ctx context.Context, cfg *oauth2.Config, code string) (*http.Client, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return cfg.Client(ctx, token), nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch profile: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	return nil
}
