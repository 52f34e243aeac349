package fulcrum

import (
	"context"
	"iter"
	"net/url"

	"github.com/google/go-querystring/query"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// fetchPage retrieves one page for the given cursor token.
// An empty token requests the first page.
type fetchPage[T any] func(ctx context.Context, token string) (*Page[T], error)

// paginate produces a lazy sequence over a cursor-paginated endpoint.
//
// Each token is used for exactly one fetch, and iteration terminates only
// when a page carries no nextPageToken; an empty page with a token present
// continues. Results are relayed in server order with no local re-sorting
// or deduplication. Cursor state lives entirely in the returned iterator,
// so concurrent paginations over the same resource never interfere.
func paginate[T any](ctx context.Context, fetch fetchPage[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		token := ""

		for {
			page, err := fetch(ctx, token)
			if err != nil {
				yield(zero, err)
				return
			}

			for _, item := range page.Results {
				if err := ctx.Err(); err != nil {
					yield(zero, err)
					return
				}
				if !yield(item, nil) {
					return
				}
			}

			if page.NextPageToken == "" {
				return
			}
			token = page.NextPageToken
		}
	}
}

// normalizePage applies the default and maximum page size. The caller's
// options are copied, never modified.
func normalizePage(page *PageOptions) *PageOptions {
	var p PageOptions
	if page != nil {
		p = *page
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return &p
}

// listQuery encodes a filter plus page options into kebab-cased query
// parameters, matching the server's declared parameter names.
func listQuery(filter any, page *PageOptions) (url.Values, error) {
	q, err := query.Values(filter)
	if err != nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "encoding filter: " + err.Error()},
		}
	}

	pq, err := query.Values(normalizePage(page))
	if err != nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "encoding page options: " + err.Error()},
		}
	}
	for key, vals := range pq {
		q[key] = vals
	}

	return q, nil
}
