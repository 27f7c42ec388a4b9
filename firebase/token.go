package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const identityToolkitScope = "https://www.googleapis.com/auth/identitytoolkit"

// ServiceAccount holds the fields of a Google service-account key file that
// the token exchange needs.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// LoadServiceAccount reads a service-account JSON key file.
func LoadServiceAccount(path string) (ServiceAccount, error) {
	var account ServiceAccount
	data, err := os.ReadFile(path)
	if err != nil {
		return account, err
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return account, err
	}
	if account.ClientEmail == "" || account.PrivateKey == "" {
		return account, errors.New("service account file missing client_email or private_key")
	}
	if account.TokenURI == "" {
		account.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return account, nil
}

// serviceAccountTokenSource signs an RS256 assertion with the service
// account's key and exchanges it for an access token via the OAuth2
// JWT-bearer grant. Tokens are cached until shortly before expiry.
type serviceAccountTokenSource struct {
	account    ServiceAccount
	httpClient *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewServiceAccountTokenSource(account ServiceAccount) TokenSource {
	return &serviceAccountTokenSource{
		account:    account,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *serviceAccountTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiry.Add(-time.Minute)) {
		return s.token, nil
	}

	assertion, err := s.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.account.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("token exchange returned no access token")
	}

	s.token = body.AccessToken
	s.expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return s.token, nil
}

func (s *serviceAccountTokenSource) signAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.account.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("invalid service account private key: %v", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": identityToolkitScope,
		"aud":   s.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}
