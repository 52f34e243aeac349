package fulcrum

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// IdentityService provides operations on Fulcrum identities.
type IdentityService interface {
	// Get retrieves a single identity by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Identity, error)

	// Create creates a new identity.
	Create(ctx context.Context, req *CreateIdentityRequest, opts ...RequestOption) (*Identity, error)

	// Update modifies an existing identity.
	Update(ctx context.Context, id string, req *UpdateIdentityRequest, opts ...RequestOption) (*Identity, error)

	// Delete removes an identity by ID.
	Delete(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all identities matching the filter.
	List(ctx context.Context, filter *IdentityFilter, opts ...RequestOption) iter.Seq2[*Identity, error]

	// ListPage returns a single page of identities.
	ListPage(ctx context.Context, filter *IdentityFilter, page *PageOptions, opts ...RequestOption) (*IdentityPage, error)
}

// identityService implements IdentityService.
type identityService struct {
	transport *api.Transport
}

func newIdentityService(transport *api.Transport) *identityService {
	return &identityService{transport: transport}
}

func validateIdentityID(id string) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "identity ID cannot be empty"},
		}
	}
	return nil
}

func validateCreateIdentityRequest(req *CreateIdentityRequest) error {
	if req == nil {
		return &ValidationError{
			APIError: APIError{Message: "create request cannot be nil"},
		}
	}
	if req.Name == "" {
		return &ValidationError{
			APIError: APIError{Message: "identity name is required"},
		}
	}
	return nil
}

// Get retrieves a single identity by ID.
func (s *identityService) Get(ctx context.Context, id string, opts ...RequestOption) (*Identity, error) {
	if err := validateIdentityID(id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Identity
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/identities/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "identity not found"},
			ResourceType: "identity",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Create creates a new identity.
func (s *identityService) Create(ctx context.Context, req *CreateIdentityRequest, opts ...RequestOption) (*Identity, error) {
	if err := validateCreateIdentityRequest(req); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Identity
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/identities",
		Body:    req,
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Update modifies an existing identity.
func (s *identityService) Update(ctx context.Context, id string, req *UpdateIdentityRequest, opts ...RequestOption) (*Identity, error) {
	if err := validateIdentityID(id); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "update request cannot be nil"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Identity
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPatch,
		Path:    fmt.Sprintf("/identities/%s", url.PathEscape(id)),
		Body:    req,
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "identity not found"},
			ResourceType: "identity",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Delete removes an identity by ID.
func (s *identityService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	if err := validateIdentityID(id); err != nil {
		return err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/identities/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "identity not found"},
			ResourceType: "identity",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all identities matching the filter.
func (s *identityService) List(ctx context.Context, filter *IdentityFilter, opts ...RequestOption) iter.Seq2[*Identity, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*IdentityPage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of identities.
func (s *identityService) ListPage(ctx context.Context, filter *IdentityFilter, page *PageOptions, opts ...RequestOption) (*IdentityPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result IdentityPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/identities",
		Query:   q,
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}
