package fulcrum

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// PermissionService provides operations on Fulcrum permissions.
type PermissionService interface {
	// Get retrieves a single permission by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Permission, error)

	// Create creates a new permission.
	Create(ctx context.Context, req *CreatePermissionRequest, opts ...RequestOption) (*Permission, error)

	// Delete removes a permission by ID.
	Delete(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all permissions matching the filter.
	List(ctx context.Context, filter *PermissionFilter, opts ...RequestOption) iter.Seq2[*Permission, error]

	// ListPage returns a single page of permissions.
	ListPage(ctx context.Context, filter *PermissionFilter, page *PageOptions, opts ...RequestOption) (*PermissionPage, error)
}

// permissionService implements PermissionService.
type permissionService struct {
	transport *api.Transport
}

func newPermissionService(transport *api.Transport) *permissionService {
	return &permissionService{transport: transport}
}

func validatePermissionID(id string) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "permission ID cannot be empty"},
		}
	}
	return nil
}

// Get retrieves a single permission by ID.
func (s *permissionService) Get(ctx context.Context, id string, opts ...RequestOption) (*Permission, error) {
	if err := validatePermissionID(id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Permission
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/permissions/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "permission not found"},
			ResourceType: "permission",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Create creates a new permission.
func (s *permissionService) Create(ctx context.Context, req *CreatePermissionRequest, opts ...RequestOption) (*Permission, error) {
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "create request cannot be nil"},
		}
	}
	if req.Name == "" {
		return nil, &ValidationError{
			APIError: APIError{Message: "permission name is required"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Permission
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/permissions",
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

// Delete removes a permission by ID.
func (s *permissionService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	if err := validatePermissionID(id); err != nil {
		return err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/permissions/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "permission not found"},
			ResourceType: "permission",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all permissions matching the filter.
func (s *permissionService) List(ctx context.Context, filter *PermissionFilter, opts ...RequestOption) iter.Seq2[*Permission, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*PermissionPage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of permissions.
func (s *permissionService) ListPage(ctx context.Context, filter *PermissionFilter, page *PageOptions, opts ...RequestOption) (*PermissionPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result PermissionPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/permissions",
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
