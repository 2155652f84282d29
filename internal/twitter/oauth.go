package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"layeredge/internal/models"

	"golang.org/x/oauth2"
)

// OAuthConfig drives the authorization-code + PKCE login flow.
type OAuthConfig struct {
	config *oauth2.Config
}

func NewOAuthConfig(clientID string, clientSecret string, redirectURL string) *OAuthConfig {
	return &OAuthConfig{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"tweet.read", "users.read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://twitter.com/i/oauth2/authorize",
				TokenURL:  "https://api.twitter.com/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

// AuthCodeURL builds the consent URL for a state and its PKCE verifier.
func (o *OAuthConfig) AuthCodeURL(state string, verifier string) string {
	return o.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (o *OAuthConfig) Exchange(ctx context.Context, code string, verifier string) (*oauth2.Token, error) {
	token, err := o.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	return token, nil
}

type meResponse struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

// FetchAuthenticatedUser resolves the identity behind a fresh token.
func (o *OAuthConfig) FetchAuthenticatedUser(ctx context.Context, token *oauth2.Token) (*models.UserFromAuth, error) {
	client := o.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		DefaultAPIBaseURL+"/2/users/me?user.fields=profile_image_url", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var body meResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &NetworkError{Err: err}
	}

	return &models.UserFromAuth{
		TwitterID:   body.Data.ID,
		Username:    body.Data.Username,
		DisplayName: body.Data.Name,
		Avatar:      body.Data.ProfileImageURL,
	}, nil
}
