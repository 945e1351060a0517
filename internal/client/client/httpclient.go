package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/passvault/internal/client/models"
	"github.com/dmitrijs2005/passvault/internal/common"
)

// maxResponseBytes bounds response bodies read from the server.
const maxResponseBytes = 4 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) LoggedIn() bool { return c.accessToken() != "" }

// Logout forgets the session token. Tokens are not revoked server-side.
func (c *HTTPClient) Logout() { c.setToken("") }

// do sends in as JSON and decodes a 2xx response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token := c.accessToken()
		if token == "" {
			return fmt.Errorf("%w: not logged in", ErrUnauthorized)
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email string, password []byte) (*models.User, error) {
	in := map[string]string{"name": name, "email": email, "password": string(password)}
	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/api/register", false, in, &s); err != nil {
		return nil, err
	}
	c.setToken(s.Token)
	return s.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	in := map[string]string{"email": email, "password": string(password)}
	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/api/login", false, in, &s); err != nil {
		return nil, err
	}
	c.setToken(s.Token)
	return s.User, nil
}

// Ping checks that the server is up and its datastore is connected.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", false, nil, nil)
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile", true, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) List(ctx context.Context) ([]*models.Credential, error) {
	var out []*models.Credential
	if err := c.do(ctx, http.MethodGet, "/api/passwords", true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Create(ctx context.Context, cr *models.Credential) (*models.Credential, error) {
	var out models.Credential
	if err := c.do(ctx, http.MethodPost, "/api/passwords", true, cr, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Update(ctx context.Context, cr *models.Credential) (*models.Credential, error) {
	var out models.Credential
	if err := c.do(ctx, http.MethodPut, "/api/passwords", true, cr, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) (*models.Credential, error) {
	var out models.Credential
	if err := c.do(ctx, http.MethodDelete, "/api/passwords", true, map[string]string{"id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Export(ctx context.Context) (*models.Export, error) {
	var out models.Export
	if err := c.do(ctx, http.MethodPost, "/api/passwords/export", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
