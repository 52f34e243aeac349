package fulcrum

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// DocumentService provides operations on Fulcrum documents, including the
// streaming transfer paths for document payloads.
type DocumentService interface {
	// Get retrieves a single document's metadata by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Document, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, id string, opts ...RequestOption) error

	// List returns an iterator over all documents matching the filter.
	// The iterator fetches pages lazily as you iterate.
	List(ctx context.Context, filter *DocumentFilter, opts ...RequestOption) iter.Seq2[*Document, error]

	// ListPage returns a single page of documents.
	// Use this for manual pagination control.
	ListPage(ctx context.Context, filter *DocumentFilter, page *PageOptions, opts ...RequestOption) (*DocumentPage, error)

	// Search returns an iterator over documents matching a body-carried
	// filter on the search endpoint.
	Search(ctx context.Context, filter *DocumentFilter, opts ...RequestOption) iter.Seq2[*Document, error]

	// SearchPage returns a single page of search results.
	SearchPage(ctx context.Context, filter *DocumentFilter, page *PageOptions, opts ...RequestOption) (*DocumentPage, error)

	// Download returns a lazy, abortable session for the document's
	// payload. No I/O happens until the session is consumed.
	Download(ctx context.Context, id string) *DownloadSession

	// Upload streams a multipart upload from data and returns a task that
	// resolves once the server acknowledges the full body. The call never
	// blocks; await the task.
	Upload(ctx context.Context, data io.Reader, params *UploadParams, opts ...RequestOption) *UploadTask

	// UploadBytes uploads an in-memory payload.
	UploadBytes(ctx context.Context, data []byte, params *UploadParams, opts ...RequestOption) *UploadTask
}

// documentService implements DocumentService.
type documentService struct {
	transport *api.Transport
}

func newDocumentService(transport *api.Transport) *documentService {
	return &documentService{transport: transport}
}

// validateDocumentID checks that a document ID is not empty.
func validateDocumentID(id string) error {
	if id == "" {
		return &ValidationError{
			APIError: APIError{Message: "document ID cannot be empty"},
		}
	}
	return nil
}

// Get retrieves a single document's metadata by ID.
func (s *documentService) Get(ctx context.Context, id string, opts ...RequestOption) (*Document, error) {
	if err := validateDocumentID(id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Document
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/documents/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	}, &result)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "document not found"},
			ResourceType: "document",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return &result, nil
}

// Delete removes a document by ID.
func (s *documentService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	if err := validateDocumentID(id); err != nil {
		return err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  http.MethodDelete,
		Path:    fmt.Sprintf("/documents/%s", url.PathEscape(id)),
		Headers: reqCfg.headers,
	})

	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "document not found"},
			ResourceType: "document",
			ResourceID:   id,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, resp.Body, resp.Headers)
	}

	return nil
}

// List returns an iterator over all documents matching the filter.
func (s *documentService) List(ctx context.Context, filter *DocumentFilter, opts ...RequestOption) iter.Seq2[*Document, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*DocumentPage, error) {
		return s.ListPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// ListPage returns a single page of documents.
func (s *documentService) ListPage(ctx context.Context, filter *DocumentFilter, page *PageOptions, opts ...RequestOption) (*DocumentPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	q, err := listQuery(filter, page)
	if err != nil {
		return nil, err
	}

	var result DocumentPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    "/documents",
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

// searchRequest is the internal request format for document search.
type searchRequest struct {
	Filter *DocumentFilter `json:"filter,omitempty"`
	PageOptions
}

// Search returns an iterator over documents from the search endpoint.
func (s *documentService) Search(ctx context.Context, filter *DocumentFilter, opts ...RequestOption) iter.Seq2[*Document, error] {
	return paginate(ctx, func(ctx context.Context, token string) (*DocumentPage, error) {
		return s.SearchPage(ctx, filter, &PageOptions{Token: token}, opts...)
	})
}

// SearchPage returns a single page of search results.
func (s *documentService) SearchPage(ctx context.Context, filter *DocumentFilter, page *PageOptions, opts ...RequestOption) (*DocumentPage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	body := &searchRequest{
		Filter:      filter,
		PageOptions: *normalizePage(page),
	}

	var result DocumentPage
	resp, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "/documents/search",
		Body:    body,
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

// Download returns a lazy, abortable session for the document's payload.
func (s *documentService) Download(ctx context.Context, id string) *DownloadSession {
	return newDownloadSession(ctx, s.transport, id)
}

// Upload streams a multipart upload from data.
func (s *documentService) Upload(ctx context.Context, data io.Reader, params *UploadParams, opts ...RequestOption) *UploadTask {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	task := &UploadTask{done: make(chan struct{})}
	go func() {
		defer close(task.done)
		task.doc, task.err = runUpload(ctx, s.transport, data, params, reqCfg.headers)
	}()
	return task
}

// UploadBytes uploads an in-memory payload. The buffer is read in a single
// pass; it is never copied.
func (s *documentService) UploadBytes(ctx context.Context, data []byte, params *UploadParams, opts ...RequestOption) *UploadTask {
	return s.Upload(ctx, bytes.NewReader(data), params, opts...)
}
