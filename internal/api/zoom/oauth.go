package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oshokin/room-monitor/internal/httpkit"
)

// Credentials are the server-to-server OAuth app credentials.
type Credentials struct {
	// AccountID is the Zoom account the token is issued for.
	AccountID string
	// ClientID is the OAuth client id.
	ClientID string
	// ClientSecret is the OAuth client secret.
	ClientSecret string
}

// errEmptyToken is returned when the token endpoint answers 200 without a token.
var errEmptyToken = errors.New("token endpoint returned no access token")

// tokenResponse is the token endpoint answer.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// FetchAccessToken exchanges the account credentials for an access token.
// Any non-200 answer is returned wrapped in ErrAuth.
func FetchAccessToken(ctx context.Context, httpClient *http.Client, oauthURL string, creds Credentials) (string, error) {
	if httpClient == nil {
		httpClient = httpkit.NewClient(defaultCallTimeout)
	}

	endpoint, err := url.Parse(oauthURL)
	if err != nil {
		return "", fmt.Errorf("parse oauth url: %w", err)
	}

	query := endpoint.Query()
	query.Set("grant_type", "account_credentials")
	query.Set("account_id", creds.AccountID)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w: %w", ErrAuth, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", newStatusError("fetch access token", resp, ErrAuth)
	}

	var token tokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode access token: %w: %w", ErrAuth, err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: %w", ErrAuth, errEmptyToken)
	}

	return token.AccessToken, nil
}
