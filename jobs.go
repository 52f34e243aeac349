package fulcrum

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// JobService provides operations on Fulcrum jobs. Scheduling and execution
// are opaque server behaviors; the client creates, inspects and cancels.
type JobService interface {
	// Get retrieves a single job by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Job, error)

	// Create submits a new job.
	Create(ctx context.Context, req *CreateJobRequest, opts ...RequestOption) (*Job, error)

	// Cancel requests cancellation of a job. The server decides whether a
	// running job stops; poll Get for the terminal status.
	Cancel(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all jobs matching the filter.
	List(ctx context.Context, filter *JobFilter, opts ...RequestOption) iter.Seq2[*Job, error]

	// ListPage returns a single page of jobs.
	ListPage(ctx context.Context, filter *JobFilter, page *PageOptions, opts ...RequestOption) (*JobPage, error)
}

// jobService implements JobService.
type jobService struct {
	transport *api.Transport
}

func newJobService(transport *api.Transport) *jobService {
	return &jobService{transport: transport}
}

func validateJobID(id string) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "job ID cannot be empty"},
		}
	}
	return nil
}

// Get retrieves a single job by ID.
func (s *jobService) Get(ctx context.Context, id string, opts ...RequestOption) (*Job, error) {
	if err := validateJobID(id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Job
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/jobs/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "job not found"},
			ResourceType: "job",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Create submits a new job.
func (s *jobService) Create(ctx context.Context, req *CreateJobRequest, opts ...RequestOption) (*Job, error) {
	if req == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "create request cannot be nil"},
		}
	}
	if req.App == "" {
		return nil, &ValidationError{
			APIError: APIError{Message: "job app is required"},
		}
	}
	if req.Kind == "" {
		return nil, &ValidationError{
			APIError: APIError{Message: "job kind is required"},
		}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Job
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/jobs",
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

// Cancel requests cancellation of a job.
func (s *jobService) Cancel(ctx context.Context, id string, opts ...RequestOption) error {
	if err := validateJobID(id); err != nil {
		return err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/jobs/%s/cancel", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "job not found"},
			ResourceType: "job",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all jobs matching the filter.
func (s *jobService) List(ctx context.Context, filter *JobFilter, opts ...RequestOption) iter.Seq2[*Job, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*JobPage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of jobs.
func (s *jobService) ListPage(ctx context.Context, filter *JobFilter, page *PageOptions, opts ...RequestOption) (*JobPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result JobPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/jobs",
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
