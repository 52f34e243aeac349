package fulcrum

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// GrantService provides operations on Fulcrum grants. Grants are immutable
// once issued; revoke by deleting.
type GrantService interface {
	// Create issues a new grant.
	Create(ctx context.Context, req *CreateGrantRequest, opts ...RequestOption) (*Grant, error)

	// Delete revokes a grant by ID.
	Delete(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all grants matching the filter.
	List(ctx context.Context, filter *GrantFilter, opts ...RequestOption) iter.Seq2[*Grant, error]

	// ListPage returns a single page of grants.
	ListPage(ctx context.Context, filter *GrantFilter, page *PageOptions, opts ...RequestOption) (*GrantPage, error)
}

// grantService implements GrantService.
type grantService struct {
	transport *api.Transport
}

func newGrantService(transport *api.Transport) *grantService {
	return &grantService{transport: transport}
}

// Create issues a new grant.
func (s *grantService) Create(ctx context.Context, req *CreateGrantRequest, opts ...RequestOption) (*Grant, error) {
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "create request cannot be nil"},
		}
	}
	if req.Identity == "" || req.ToApp == "" {
		return nil, &ValidationError{
			APIError: APIError{Message: "grant identity and toApp are required"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Grant
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/grants",
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

// Delete revokes a grant by ID.
func (s *grantService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "grant ID cannot be empty"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/grants/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "grant not found"},
			ResourceType: "grant",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all grants matching the filter.
func (s *grantService) List(ctx context.Context, filter *GrantFilter, opts ...RequestOption) iter.Seq2[*Grant, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*GrantPage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of grants.
func (s *grantService) ListPage(ctx context.Context, filter *GrantFilter, page *PageOptions, opts ...RequestOption) (*GrantPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result GrantPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/grants",
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
