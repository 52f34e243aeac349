// Package auth applies Fulcrum API credentials to outgoing requests.
package auth

import "net/http"

// Credentials holds a Fulcrum API bearer token.
type Credentials struct {
	Token string
}

// Apply adds the Authorization header to an HTTP request.
func (c *Credentials) Apply(req *http.Request) {
	if c == nil || c.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
}

// Valid reports whether credentials are configured.
func (c *Credentials) Valid() bool {
	return c != nil && c.Token != ""
}
