package fulcrum_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fulcrum "github.com/fulcrumapi/go-fulcrum"
)

// testPayload builds a deterministic payload of the given size.
func testPayload(size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	return payload
}

// failingWriter fails with failErr once more than limit bytes are written.
type failingWriter struct {
	limit   int
	written int
	failErr error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		n := w.limit - w.written
		w.written = w.limit
		return n, w.failErr
	}
	w.written += len(p)
	return len(p), nil
}

func TestDownloadSession_Chunks(t *testing.T) {
	sizes := map[string]int{
		"empty":                  0,
		"single byte":            1,
		"multiple chunks (2MiB)": 2 * 1024 * 1024,
	}

	for name, size := range sizes {
		t.Run(name, func(t *testing.T) {
			payload := testPayload(size)
			client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/documents/doc-1/download", r.URL.Path)
				assert.Equal(t, "Bearer test-api-token", r.Header.Get("Authorization"))
				_, err := w.Write(payload)
				assert.NoError(t, err)
			})

			session := client.Documents.Download(context.Background(), "doc-1")
			assert.Equal(t, fulcrum.SessionIdle, session.State())

			var got []byte
			for chunk, err := range session.Chunks() {
				require.NoError(t, err)
				got = append(got, chunk...)
			}

			assert.Equal(t, payload, got)
			assert.Equal(t, fulcrum.SessionDone, session.State())
			assert.Equal(t, int64(size), session.Transferred())
		})
	}
}

func TestDownloadSession_EarlyStop(t *testing.T) {
	payload := testPayload(2 * 1024 * 1024)
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write(payload)
		assert.NoError(t, err)
	})

	session := client.Documents.Download(context.Background(), "doc-1")

	// Breaking out of the loop is a normal end, not an abort.
	var delivered int
	for chunk, err := range session.Chunks() {
		require.NoError(t, err)
		delivered += len(chunk)
		break
	}

	assert.Positive(t, delivered)
	assert.Less(t, delivered, len(payload))
	assert.Equal(t, fulcrum.SessionDone, session.State())

	// The session stays single-use after an early stop.
	_, err := fulcrum.Collect(session.Chunks())
	require.ErrorIs(t, err, fulcrum.ErrSessionConsumed)
}

func TestDownloadSession_PipeTo(t *testing.T) {
	t.Run("writes full payload to sink", func(t *testing.T) {
		payload := testPayload(256 * 1024)
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write(payload)
			assert.NoError(t, err)
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		var sink bytes.Buffer
		n, err := session.PipeTo(&sink)
		require.NoError(t, err)

		assert.Equal(t, int64(len(payload)), n)
		assert.Equal(t, payload, sink.Bytes())
		assert.Equal(t, fulcrum.SessionDone, session.State())
	})

	t.Run("sink write failure returns SinkError", func(t *testing.T) {
		payload := testPayload(512 * 1024)
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write(payload)
			assert.NoError(t, err)
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		cause := errors.New("disk full")
		sink := &failingWriter{limit: 100 * 1024, failErr: cause}
		_, err := session.PipeTo(sink)
		require.Error(t, err)

		var sinkErr *fulcrum.SinkError
		require.ErrorAs(t, err, &sinkErr)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, fulcrum.SessionFailed, session.State())
	})
}

func TestDownloadSession_Lazy(t *testing.T) {
	var calls atomic.Int32
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, err := w.Write([]byte("payload"))
		assert.NoError(t, err)
	})

	session := client.Documents.Download(context.Background(), "doc-1")

	// No I/O until the session is consumed.
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, fulcrum.SessionIdle, session.State())

	var sink bytes.Buffer
	_, err := session.PipeTo(&sink)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownloadSession_Redirect(t *testing.T) {
	t.Run("follows one hop transparently", func(t *testing.T) {
		payload := testPayload(4096)
		var movedAuth atomic.Value
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/documents/doc-1/download":
				w.Header().Set("Location", "/moved/doc-1")
				w.WriteHeader(http.StatusTemporaryRedirect)
			case "/moved/doc-1":
				movedAuth.Store(r.Header.Get("Authorization"))
				_, err := w.Write(payload)
				assert.NoError(t, err)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)
		require.NoError(t, err)

		assert.Equal(t, payload, sink.Bytes())
		// Auth is carried across the hop.
		assert.Equal(t, "Bearer test-api-token", movedAuth.Load())
	})

	t.Run("second redirect fails", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "/elsewhere"+r.URL.Path)
			w.WriteHeader(http.StatusTemporaryRedirect)
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)
		require.Error(t, err)
		assert.Equal(t, int64(0), session.Transferred())
		assert.Equal(t, fulcrum.SessionFailed, session.State())
	})
}

func TestDownloadSession_NotFound(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte(`{"error": "no such document"}`))
		assert.NoError(t, err)
	})

	session := client.Documents.Download(context.Background(), "missing")

	// The first pull fails; no chunk is ever yielded.
	chunks := 0
	var gotErr error
	for chunk, err := range session.Chunks() {
		if err != nil {
			gotErr = err
			break
		}
		chunks++
		_ = chunk
	}

	require.Error(t, gotErr)
	assert.Equal(t, 0, chunks)

	var notFound *fulcrum.NotFoundError
	require.ErrorAs(t, gotErr, &notFound)
	assert.Equal(t, "document", notFound.ResourceType)
	assert.Equal(t, "missing", notFound.ResourceID)
	assert.Equal(t, "no such document", notFound.Message)
	assert.Equal(t, fulcrum.SessionFailed, session.State())
}

func TestDownloadSession_Abort(t *testing.T) {
	t.Run("no chunks delivered after abort", func(t *testing.T) {
		firstChunk := testPayload(1024)
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write(firstChunk)
			assert.NoError(t, err)
			w.(http.Flusher).Flush()
			// Hold the stream open until the client aborts.
			<-r.Context().Done()
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		var delivered int
		var gotErr error
		for chunk, err := range session.Chunks() {
			if err != nil {
				gotErr = err
				break
			}
			delivered += len(chunk)
			session.Abort()
		}

		var abortErr *fulcrum.AbortError
		require.ErrorAs(t, gotErr, &abortErr)
		assert.Equal(t, "doc-1", abortErr.DocumentID)
		// A strict prefix was delivered; nothing after the abort.
		assert.Positive(t, delivered)
		assert.LessOrEqual(t, delivered, len(firstChunk))
		assert.Equal(t, fulcrum.SessionAborted, session.State())
	})

	t.Run("abort from another goroutine unblocks a pending pipe", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write([]byte("partial"))
			assert.NoError(t, err)
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		go func() {
			time.Sleep(50 * time.Millisecond)
			session.Abort()
		}()

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)

		var abortErr *fulcrum.AbortError
		require.ErrorAs(t, err, &abortErr)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, fulcrum.SessionAborted, session.State())
	})

	t.Run("abort before consumption prevents any request", func(t *testing.T) {
		var calls atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})

		session := client.Documents.Download(context.Background(), "doc-1")
		session.Abort()

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)

		var abortErr *fulcrum.AbortError
		require.ErrorAs(t, err, &abortErr)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("abort is idempotent and a no-op once done", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write([]byte("payload"))
			assert.NoError(t, err)
		})

		session := client.Documents.Download(context.Background(), "doc-1")

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)
		require.NoError(t, err)

		session.Abort()
		session.Abort()
		assert.Equal(t, fulcrum.SessionDone, session.State())
	})
}

func TestDownloadSession_SingleConsumption(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("payload"))
		assert.NoError(t, err)
	})

	t.Run("pipe after pipe is rejected", func(t *testing.T) {
		session := client.Documents.Download(context.Background(), "doc-1")

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)
		require.NoError(t, err)

		_, err = session.PipeTo(&sink)
		require.ErrorIs(t, err, fulcrum.ErrSessionConsumed)
	})

	t.Run("pull after pipe is rejected", func(t *testing.T) {
		session := client.Documents.Download(context.Background(), "doc-1")

		var sink bytes.Buffer
		_, err := session.PipeTo(&sink)
		require.NoError(t, err)

		_, err = fulcrum.Collect(session.Chunks())
		require.ErrorIs(t, err, fulcrum.ErrSessionConsumed)
	})
}

func TestDownloadSession_EmptyID(t *testing.T) {
	var calls atomic.Int32
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	session := client.Documents.Download(context.Background(), "")

	var sink bytes.Buffer
	_, err := session.PipeTo(&sink)

	var validationErr *fulcrum.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int32(0), calls.Load())
}
