package pipedream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMCPURL   = "https://remote.mcp.pipedream.net"
	DefaultTokenURL = "https://api.pipedream.com/v1/oauth/token"

	// Gateway headers
	HeaderProjectID      = "x-pd-project-id"
	HeaderEnvironment    = "x-pd-environment"
	HeaderExternalUserID = "x-pd-external-user-id"
	HeaderAppSlug        = "x-pd-app-slug"

	probeTimeout = 30 * time.Second
	tokenTimeout = 30 * time.Second
)

// Config contains Pipedream Connect settings
type Config struct {
	ClientID       string
	ClientSecret   string
	ProjectID      string
	Environment    string
	ExternalUserID string
	AppSlug        string
	MCPURL         string
	TokenURL       string
}

// Client talks to the Pipedream remote MCP gateway
type Client struct {
	cfg        Config
	cc         *clientcredentials.Config
	httpClient *http.Client

	// One fetch at a time, waiters give up with their own context
	tokenSem *semaphore.Weighted
	token    *oauth2.Token
}

// NewClient creates a new Pipedream client.
// The bearer token is fetched lazily and refreshed once it expires.
func NewClient(cfg Config) *Client {
	if cfg.MCPURL == "" {
		cfg.MCPURL = DefaultMCPURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &Client{
		cfg:        cfg,
		cc:         cc,
		httpClient: &http.Client{Timeout: tokenTimeout},
		tokenSem:   semaphore.NewWeighted(1),
	}
}

// AppSlug returns the app the gateway is scoped to
func (c *Client) AppSlug() string {
	return c.cfg.AppSlug
}

// MCPURL returns the gateway address
func (c *Client) MCPURL() string {
	return c.cfg.MCPURL
}

// AccessToken returns a valid access token, fetching a new one under ctx
// when the cached token is missing or expired
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if err := c.tokenSem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer c.tokenSem.Release(1)

	if c.token.Valid() {
		return c.token.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	c.token = tok
	return tok.AccessToken, nil
}

// Headers builds the gateway headers for a token
func (c *Client) Headers(token string) map[string]string {
	return map[string]string{
		"Authorization":      "Bearer " + token,
		HeaderProjectID:      c.cfg.ProjectID,
		HeaderEnvironment:    c.cfg.Environment,
		HeaderExternalUserID: c.cfg.ExternalUserID,
		HeaderAppSlug:        c.cfg.AppSlug,
	}
}

// ListTools connects to the gateway over streamable HTTP and lists its tools
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	httpClient := &http.Client{
		Transport: &headerTransport{base: http.DefaultTransport, headers: c.Headers(token)},
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "discord-mcp-relay", Version: "v1.0.0"}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   c.cfg.MCPURL,
		HTTPClient: httpClient,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect mcp gateway: %w", err)
	}
	defer session.Close()

	var tools []*mcp.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		tools = append(tools, res.Tools...)
		if res.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
	return tools, nil
}

// headerTransport adds fixed headers to every request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
