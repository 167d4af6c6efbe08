// Package messaging talks to the messaging platform Graph API used by the
// WhatsApp Business integration.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/formula-lab/crm-api/internal/config"
)

// ErrMissingToken is returned before any call when no access token is set
var ErrMissingToken = errors.New("access token is required")

// Client is a thin Graph API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
}

// Profile is the token owner returned by /me
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BusinessAccount is the WhatsApp Business account profile
type BusinessAccount struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Currency                 string `json:"currency,omitempty"`
	TimezoneID               string `json:"timezone_id,omitempty"`
	MessageTemplateNamespace string `json:"message_template_namespace,omitempty"`
}

// TokenInfo is the data block of /debug_token
type TokenInfo struct {
	AppID       string   `json:"app_id"`
	Type        string   `json:"type"`
	Application string   `json:"application"`
	ExpiresAt   int64    `json:"expires_at"`
	IsValid     bool     `json:"is_valid"`
	Scopes      []string `json:"scopes"`
	UserID      string   `json:"user_id,omitempty"`
}

// APIError is the error body the Graph API returns
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Graph API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("Graph API error (%d): %s - %s", e.StatusCode, e.Type, e.Message)
}

// NewClient creates a Graph API client from config
func NewClient(cfg *config.MessagingConfig) *Client {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.GraphBaseURL, "/"),
		version:    cfg.GraphVersion,
	}
}

// Me validates the token by fetching its owner
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "me", accessToken, url.Values{"fields": {"id,name"}}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// BusinessAccount fetches the WhatsApp Business account profile
func (c *Client) BusinessAccount(ctx context.Context, accessToken, accountID string) (*BusinessAccount, error) {
	if accountID == "" {
		return nil, errors.New("business account id is required")
	}
	var account BusinessAccount
	query := url.Values{"fields": {"id,name,currency,timezone_id,message_template_namespace"}}
	if err := c.get(ctx, url.PathEscape(accountID), accessToken, query, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DebugToken inspects inputToken using the app access token appID|appSecret
func (c *Client) DebugToken(ctx context.Context, inputToken, appID, appSecret string) (*TokenInfo, error) {
	if appID == "" || appSecret == "" {
		return nil, errors.New("app id and app secret are required")
	}
	var body struct {
		Data TokenInfo `json:"data"`
	}
	query := url.Values{"input_token": {inputToken}}
	if err := c.get(ctx, "debug_token", appID+"|"+appSecret, query, &body); err != nil {
		return nil, err
	}
	return &body.Data, nil
}

func (c *Client) get(ctx context.Context, path, accessToken string, query url.Values, out interface{}) error {
	if accessToken == "" {
		return ErrMissingToken
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Graph API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errorResp struct {
			Error *APIError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil && errorResp.Error != nil {
			apiErr.Message = errorResp.Error.Message
			apiErr.Type = errorResp.Error.Type
			apiErr.Code = errorResp.Error.Code
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Graph API response: %w", err)
	}
	return nil
}
