// Package linkedin implements the remote platform adapters: token and
// identity handling, the two-phase asset upload protocol, the UGC
// publish call and the engagement metrics lookups.
package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"postpilot/internal/core/domain"
)

const defaultBaseURL = "https://api.linkedin.com/v2"

// Auth supplies request headers and the posting author's URN. The access
// token comes from configuration; the person URN is used as configured
// when it looks valid and is otherwise fetched from the platform.
type Auth struct {
	accessToken string
	baseURL     string
	client      *http.Client

	mu        sync.Mutex
	personURN string
}

// NewAuth returns an Auth. baseURL may be empty to use the production
// endpoint. The token is checked at first use, not at construction, so
// a dry-run deployment can run without credentials.
func NewAuth(accessToken, personURN, baseURL string, timeout time.Duration) *Auth {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Auth{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: timeout},
		personURN:   personURN,
	}
}

// Headers returns the request headers for authenticated API calls.
func (a *Auth) Headers() (map[string]string, error) {
	if err := a.requireToken(); err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization":             "Bearer " + a.accessToken,
		"Content-Type":              "application/json",
		"X-Restli-Protocol-Version": "2.0.0",
	}, nil
}

func (a *Auth) requireToken() error {
	if a.accessToken == "" || a.accessToken == "your_access_token_here" {
		return fmt.Errorf("%w: access token not configured", domain.ErrAuthentication)
	}
	return nil
}

// AuthorURN returns the configured person URN when it is usable, and
// otherwise resolves it via /userinfo (openid scope) with a /me
// (r_liteprofile scope) fallback. The resolved value is cached.
func (a *Auth) AuthorURN(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if urnLooksValid(a.personURN) {
		return a.personURN, nil
	}

	// Try 1: /userinfo returns the member id in "sub".
	var userinfo struct {
		Sub string `json:"sub"`
	}
	if err := a.getJSON(ctx, a.baseURL+"/userinfo", &userinfo); err == nil && userinfo.Sub != "" {
		a.personURN = "urn:li:person:" + userinfo.Sub
		return a.personURN, nil
	}

	// Try 2: /me returns it in "id".
	var me struct {
		ID string `json:"id"`
	}
	if err := a.getJSON(ctx, a.baseURL+"/me", &me); err == nil && me.ID != "" {
		a.personURN = "urn:li:person:" + me.ID
		return a.personURN, nil
	}

	return "", fmt.Errorf("%w: could not resolve person URN, token is missing the openid or r_liteprofile scope", domain.ErrAuthentication)
}

// VerifyToken checks token validity and returns the member's display
// name. Used by the -verify diagnostic; never publishes anything.
func (a *Auth) VerifyToken(ctx context.Context) (string, error) {
	var userinfo struct {
		Name string `json:"name"`
		Sub  string `json:"sub"`
	}
	if err := a.getJSON(ctx, a.baseURL+"/userinfo", &userinfo); err == nil {
		return userinfo.Name, nil
	}

	var me struct {
		FirstName string `json:"localizedFirstName"`
		LastName  string `json:"localizedLastName"`
	}
	if err := a.getJSON(ctx, a.baseURL+"/me", &me); err == nil {
		return strings.TrimSpace(me.FirstName + " " + me.LastName), nil
	}

	return "", fmt.Errorf("%w: token rejected by userinfo and me endpoints", domain.ErrAuthentication)
}

func (a *Auth) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	headers, err := a.Headers()
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "auth lookup", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &domain.PlatformError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// urnLooksValid rejects placeholders and pasted profile URLs.
func urnLooksValid(urn string) bool {
	return urn != "" &&
		urn != "urn:li:person:YOUR_ID_HERE" &&
		!strings.Contains(urn, "linkedin.com") &&
		!strings.Contains(urn, "/") &&
		strings.TrimSpace(urn) != ""
}
