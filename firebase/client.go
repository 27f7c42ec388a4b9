// Package firebase implements the identity-provider contract against the
// Firebase Auth (Identity Toolkit v1) REST API, authorized with a Google
// service-account bearer token.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/uxbase/moviefavs"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com"

// TokenSource yields a bearer token for Identity Toolkit admin calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	projectID string
	tokens    TokenSource
}

func NewClient(projectID string, tokens TokenSource) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		projectID:  projectID,
		tokens:     tokens,
	}
}

type accountResponse struct {
	LocalID string `json:"localId"`
}

type lookupResponse struct {
	Users []accountResponse `json:"users"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateAccount registers the identifier with the provider and returns the
// provider-assigned user id.
func (c *Client) CreateAccount(ctx context.Context, identifier, secret string) (string, error) {
	var res accountResponse
	err := c.post(ctx, "accounts", map[string]interface{}{
		"email":    identifier,
		"password": secret,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.LocalID, nil
}

// VerifyIdentity resolves the identifier to a provider account. The secret
// is not validated here; the admin lookup only confirms the account exists.
func (c *Client) VerifyIdentity(ctx context.Context, identifier, _ string) (string, error) {
	var res lookupResponse
	err := c.post(ctx, "accounts:lookup", map[string]interface{}{
		"email": []string{identifier},
	}, &res)
	if err != nil {
		return "", err
	}
	if len(res.Users) == 0 {
		return "", moviefavs.ErrNotFound
	}
	return res.Users[0].LocalID, nil
}

// DeleteAccount resolves the identifier and removes the account.
func (c *Client) DeleteAccount(ctx context.Context, identifier string) error {
	uid, err := c.VerifyIdentity(ctx, identifier, "")
	if err != nil {
		return err
	}
	return c.post(ctx, "accounts:delete", map[string]interface{}{
		"localId": uid,
	}, &struct{}{})
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/projects/%s/%s", c.BaseURL, c.projectID, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", moviefavs.ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", moviefavs.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return mapAPIError(resp.StatusCode, apiErr.Error.Message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// mapAPIError translates Identity Toolkit error codes onto the service's
// error taxonomy. Codes arrive either bare ("EMAIL_EXISTS") or with a
// trailing explanation ("WEAK_PASSWORD : ...").
func mapAPIError(status int, message string) error {
	code := message
	if i := strings.IndexAny(message, " :"); i > 0 {
		code = message[:i]
	}

	switch code {
	case "EMAIL_EXISTS", "DUPLICATE_EMAIL":
		return moviefavs.ErrDuplicateIdentifier
	case "WEAK_PASSWORD", "INVALID_PASSWORD", "MISSING_PASSWORD", "INVALID_EMAIL", "MISSING_EMAIL":
		return moviefavs.ErrInvalidCredential
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return moviefavs.ErrNotFound
	}
	return fmt.Errorf("%w: status %d: %s", moviefavs.ErrProviderUnavailable, status, message)
}
