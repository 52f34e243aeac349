// Package fulcrum provides a Go client for the Fulcrum storage/compute platform API.
//
// Basic usage:
//
//	client, err := fulcrum.NewClient(
//	    fulcrum.WithBaseURL("https://api.fulcrum.example.com"),
//	    fulcrum.WithToken(token),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// List documents using iterator
//	for doc, err := range client.Documents.List(ctx, filter) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(doc.Name)
//	}
package fulcrum

import (
	"net/http"
	"time"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
	"github.com/fulcrumapi/go-fulcrum/internal/auth"
)

// Default configuration values.
const defaultTimeout = 30 * time.Second

// Client is the Fulcrum API client.
type Client struct {
	// Identities provides access to identity operations.
	Identities IdentityService

	// Documents provides access to document operations, including
	// streaming download and multipart upload.
	Documents DocumentService

	// Apps provides access to app operations.
	Apps AppService

	// Grants provides access to grant operations.
	Grants GrantService

	// Permissions provides access to permission operations.
	Permissions PermissionService

	// Jobs provides access to job operations.
	Jobs JobService

	// Databases provides access to database metadata operations.
	Databases DatabaseService

	transport *api.Transport
}

// NewClient creates a new Fulcrum client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	if cfg.token == "" {
		return nil, ErrNoToken
	}

	creds := &auth.Credentials{
		Token: cfg.token,
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}

	transport, err := api.NewTransport(cfg.baseURL, creds, httpClient)
	if err != nil {
		return nil, err
	}

	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}
	if cfg.logger != nil {
		transport.Logger = cfg.logger
	}

	client := &Client{
		transport: transport,
	}

	// Initialize services
	client.Identities = newIdentityService(transport)
	client.Documents = newDocumentService(transport)
	client.Apps = newAppService(transport)
	client.Grants = newGrantService(transport)
	client.Permissions = newPermissionService(transport)
	client.Jobs = newJobService(transport)
	client.Databases = newDatabaseService(transport)

	return client, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}
