package fulcrum_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fulcrum "github.com/fulcrumapi/go-fulcrum"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *fulcrum.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := fulcrum.NewClient(
		fulcrum.WithBaseURL(server.URL),
		fulcrum.WithToken("test-api-token"),
	)
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestDocumentService_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/documents/doc-123", r.URL.Path)
			assert.Equal(t, "Bearer test-api-token", r.Header.Get("Authorization"))

			writeJSON(t, w, &fulcrum.Document{
				ID:   "doc-123",
				Name: "report.pdf",
				Size: 2048,
			})
		})

		doc, err := client.Documents.Get(context.Background(), "doc-123")
		require.NoError(t, err)
		assert.Equal(t, "doc-123", doc.ID)
		assert.Equal(t, "report.pdf", doc.Name)
		assert.Equal(t, int64(2048), doc.Size)
	})

	t.Run("not found", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Documents.Get(context.Background(), "missing")

		var notFound *fulcrum.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "document", notFound.ResourceType)
		assert.Equal(t, "missing", notFound.ResourceID)
	})

	t.Run("empty ID", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.Documents.Get(context.Background(), "")

		var validationErr *fulcrum.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("request option headers are sent", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "req-42", r.Header.Get("X-Request-ID"))
			writeJSON(t, w, &fulcrum.Document{ID: "doc-123"})
		})

		_, err := client.Documents.Get(context.Background(), "doc-123",
			fulcrum.WithRequestID("req-42"))
		require.NoError(t, err)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/documents/doc-123", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		err := client.Documents.Delete(context.Background(), "doc-123")
		require.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		err := client.Documents.Delete(context.Background(), "missing")

		var notFound *fulcrum.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestDocumentService_ListPage(t *testing.T) {
	t.Run("sends filter and page query params", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/documents", r.URL.Path)

			q := r.URL.Query()
			assert.Equal(t, "alice", q.Get("owner"))
			assert.Equal(t, "app-1", q.Get("to-app"))
			assert.Equal(t, "25", q.Get("page-size"))
			assert.Equal(t, "tok-1", q.Get("page-token"))

			writeJSON(t, w, &fulcrum.DocumentPage{
				Results:       []*fulcrum.Document{{ID: "doc-1"}},
				NextPageToken: "tok-2",
			})
		})

		page, err := client.Documents.ListPage(context.Background(),
			&fulcrum.DocumentFilter{Owner: "alice", ToApp: "app-1"},
			&fulcrum.PageOptions{Size: 25, Token: "tok-1"})
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.Equal(t, "doc-1", page.Results[0].ID)
		assert.Equal(t, "tok-2", page.NextPageToken)
	})

	t.Run("nil filter and page use defaults", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "100", q.Get("page-size"))
			assert.False(t, q.Has("page-token"))
			assert.False(t, q.Has("owner"))
			writeJSON(t, w, &fulcrum.DocumentPage{})
		})

		_, err := client.Documents.ListPage(context.Background(), nil, nil)
		require.NoError(t, err)
	})

	t.Run("oversized page size is capped", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1000", r.URL.Query().Get("page-size"))
			writeJSON(t, w, &fulcrum.DocumentPage{})
		})

		_, err := client.Documents.ListPage(context.Background(), nil,
			&fulcrum.PageOptions{Size: 5000})
		require.NoError(t, err)
	})
}

func TestDocumentService_List(t *testing.T) {
	t.Run("iterates across pages in order", func(t *testing.T) {
		pages := map[string]*fulcrum.DocumentPage{
			"": {
				Results:       []*fulcrum.Document{{ID: "doc-1"}, {ID: "doc-2"}},
				NextPageToken: "tok-2",
			},
			"tok-2": {
				Results:       []*fulcrum.Document{{ID: "doc-3"}},
				NextPageToken: "tok-3",
			},
			"tok-3": {
				Results: []*fulcrum.Document{{ID: "doc-4"}},
			},
		}

		var calls atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			page, ok := pages[r.URL.Query().Get("page-token")]
			if !assert.True(t, ok, "unexpected page token") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(t, w, page)
		})

		docs, err := fulcrum.Collect(client.Documents.List(context.Background(), nil))
		require.NoError(t, err)

		var ids []string
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
		assert.Equal(t, []string{"doc-1", "doc-2", "doc-3", "doc-4"}, ids)
		// One request per page, no extra probe after the last page.
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("empty intermediate page continues", func(t *testing.T) {
		pages := map[string]*fulcrum.DocumentPage{
			"":      {NextPageToken: "tok-2"},
			"tok-2": {Results: []*fulcrum.Document{{ID: "doc-1"}}},
		}

		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, pages[r.URL.Query().Get("page-token")])
		})

		docs, err := fulcrum.Collect(client.Documents.List(context.Background(), nil))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-1", docs[0].ID)
	})

	t.Run("early break stops fetching", func(t *testing.T) {
		var calls atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			writeJSON(t, w, &fulcrum.DocumentPage{
				Results:       []*fulcrum.Document{{ID: "doc-" + strconv.Itoa(int(n))}},
				NextPageToken: "tok-" + strconv.Itoa(int(n)),
			})
		})

		first, err := fulcrum.First(client.Documents.List(context.Background(), nil))
		require.NoError(t, err)
		assert.Equal(t, "doc-1", first.ID)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("propagates server error", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, err := w.Write([]byte(`{"message": "boom"}`))
			assert.NoError(t, err)
		})

		_, err := fulcrum.Collect(client.Documents.List(context.Background(), nil))

		var serverErr *fulcrum.ServerError
		require.ErrorAs(t, err, &serverErr)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, &fulcrum.DocumentPage{
				Results:       []*fulcrum.Document{{ID: "doc-1"}, {ID: "doc-2"}},
				NextPageToken: "more",
			})
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var seen int
		var gotErr error
		for _, err := range client.Documents.List(ctx, nil) {
			if err != nil {
				gotErr = err
				break
			}
			seen++
			cancel()
		}

		require.ErrorIs(t, gotErr, context.Canceled)
		assert.Equal(t, 1, seen)
	})
}

func TestDocumentService_SearchPage(t *testing.T) {
	t.Run("sends filter and cursor in the body", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/documents/search", r.URL.Path)
			assert.Empty(t, r.URL.RawQuery)

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{
				"filter":    map[string]any{"owner": "alice"},
				"pageSize":  float64(50),
				"pageToken": "tok-1",
			}, body)

			writeJSON(t, w, &fulcrum.DocumentPage{
				Results: []*fulcrum.Document{{ID: "doc-1"}},
			})
		})

		page, err := client.Documents.SearchPage(context.Background(),
			&fulcrum.DocumentFilter{Owner: "alice"},
			&fulcrum.PageOptions{Size: 50, Token: "tok-1"})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
	})

	t.Run("validation error surfaces", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, err := w.Write([]byte(`{"message": "bad filter"}`))
			assert.NoError(t, err)
		})

		_, err := client.Documents.SearchPage(context.Background(), nil, nil)

		var validationErr *fulcrum.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "bad filter", validationErr.Message)
	})
}

func TestDocumentService_Search(t *testing.T) {
	pages := map[string]*fulcrum.DocumentPage{
		"": {
			Results:       []*fulcrum.Document{{ID: "doc-1"}},
			NextPageToken: "tok-2",
		},
		"tok-2": {
			Results: []*fulcrum.Document{{ID: "doc-2"}},
		},
	}

	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PageToken string `json:"pageToken"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, pages[body.PageToken])
	})

	docs, err := fulcrum.Collect(client.Documents.Search(context.Background(), nil))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "doc-2", docs[1].ID)
}
