package fulcrum

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// DatabaseService provides metadata operations on Fulcrum databases.
// Query execution happens server-side and is not exposed here.
type DatabaseService interface {
	// Get retrieves a single database by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Database, error)

	// Create creates a new database.
	Create(ctx context.Context, req *CreateDatabaseRequest, opts ...RequestOption) (*Database, error)

	// Delete removes a database by ID.
	Delete(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all databases matching the filter.
	List(ctx context.Context, filter *DatabaseFilter, opts ...RequestOption) iter.Seq2[*Database, error]

	// ListPage returns a single page of databases.
	ListPage(ctx context.Context, filter *DatabaseFilter, page *PageOptions, opts ...RequestOption) (*DatabasePage, error)
}

// databaseService implements DatabaseService.
type databaseService struct {
	transport *api.Transport
}

func newDatabaseService(transport *api.Transport) *databaseService {
	return &databaseService{transport: transport}
}

func validateDatabaseID(id string) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "database ID cannot be empty"},
		}
	}
	return nil
}

// Get retrieves a single database by ID.
func (s *databaseService) Get(ctx context.Context, id string, opts ...RequestOption) (*Database, error) {
	if err := validateDatabaseID(id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Database
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/databases/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "database not found"},
			ResourceType: "database",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Create creates a new database.
func (s *databaseService) Create(ctx context.Context, req *CreateDatabaseRequest, opts ...RequestOption) (*Database, error) {
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "create request cannot be nil"},
		}
	}
	if req.Name == "" {
		return nil, &ValidationError{
			APIError: APIError{Message: "database name is required"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Database
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/databases",
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

// Delete removes a database by ID.
func (s *databaseService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	if err := validateDatabaseID(id); err != nil {
		return err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/databases/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "database not found"},
			ResourceType: "database",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all databases matching the filter.
func (s *databaseService) List(ctx context.Context, filter *DatabaseFilter, opts ...RequestOption) iter.Seq2[*Database, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*DatabasePage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of databases.
func (s *databaseService) ListPage(ctx context.Context, filter *DatabaseFilter, page *PageOptions, opts ...RequestOption) (*DatabasePage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result DatabasePage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/databases",
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
