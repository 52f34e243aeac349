package fulcrum

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// AppService provides operations on Fulcrum apps.
type AppService interface {
	// Get retrieves a single app by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*App, error)

	// Create registers a new app.
	Create(ctx context.Context, req *CreateAppRequest, opts ...RequestOption) (*App, error)

	// Update modifies an existing app.
	Update(ctx context.Context, id string, req *UpdateAppRequest, opts ...RequestOption) (*App, error)

	// Delete removes an app by ID.
	Delete(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all apps matching the filter.
	List(ctx context.Context, filter *AppFilter, opts ...RequestOption) iter.Seq2[*App, error]

	// ListPage returns a single page of apps.
	ListPage(ctx context.Context, filter *AppFilter, page *PageOptions, opts ...RequestOption) (*AppPage, error)
}

// appService implements AppService.
type appService struct {
	transport *api.Transport
}

func newAppService(transport *api.Transport) *appService {
	return &appService{transport: transport}
}

func validateAppID(id string) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "app ID cannot be empty"},
		}
	}
	return nil
}

// Get retrieves a single app by ID.
func (s *appService) Get(ctx context.Context, id string, opts ...RequestOption) (*App, error) {
	if err := validateAppID(id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result App
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/apps/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "app not found"},
			ResourceType: "app",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Create registers a new app.
func (s *appService) Create(ctx context.Context, req *CreateAppRequest, opts ...RequestOption) (*App, error) {
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "create request cannot be nil"},
		}
	}
	if req.Name == "" {
		return nil, &ValidationError{
			APIError: APIError{Message: "app name is required"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result App
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/apps",
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

// Update modifies an existing app.
func (s *appService) Update(ctx context.Context, id string, req *UpdateAppRequest, opts ...RequestOption) (*App, error) {
	if err := validateAppID(id); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "update request cannot be nil"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result App
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPatch,
		Path:    fmt.Sprintf("/apps/%s", url.PathEscape(id)),
		Body:    req,
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "app not found"},
			ResourceType: "app",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Delete removes an app by ID.
func (s *appService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	if err := validateAppID(id); err != nil {
		return err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/apps/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "app not found"},
			ResourceType: "app",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all apps matching the filter.
func (s *appService) List(ctx context.Context, filter *AppFilter, opts ...RequestOption) iter.Seq2[*App, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*AppPage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of apps.
func (s *appService) ListPage(ctx context.Context, filter *AppFilter, page *PageOptions, opts ...RequestOption) (*AppPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result AppPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/apps",
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
