package fulcrum

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// downloadChunkSize bounds how much payload is held in flight; at most one
// chunk exists between the transport and the consumer at any time.
const downloadChunkSize = 64 * 1024

// SessionState is the lifecycle state of a DownloadSession.
type SessionState int32

const (
	// SessionIdle means no I/O has happened yet.
	SessionIdle SessionState = iota
	// SessionStreaming means the request is in flight and chunks are moving.
	SessionStreaming
	// SessionDone means the transfer ended normally: the full payload was
	// delivered, or the consumer stopped pulling and released the rest.
	SessionDone
	// SessionAborted means Abort cut the transfer short.
	SessionAborted
	// SessionFailed means a transport, status or sink error ended the transfer.
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionStreaming:
		return "streaming"
	case SessionDone:
		return "done"
	case SessionAborted:
		return "aborted"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadSession is a lazy, abortable transfer of one document's payload.
//
// No network I/O happens until the session is consumed, either by ranging
// over Chunks or by calling PipeTo, so an abort can be attached before any
// bytes move. A session is consumed at most once: a second consumption
// attempt fails with ErrSessionConsumed instead of silently re-sending the
// request. Chunks are delivered in transfer order; on abort or failure the
// consumer has received a strict prefix of the payload.
type DownloadSession struct {
	documentID string
	transport  *api.Transport

	ctx    context.Context
	cancel context.CancelFunc

	initErr error

	state       atomic.Int32
	abortCalled atomic.Bool
	transferred atomic.Int64

	// body is the in-flight response stream, owned exclusively by the
	// session once start succeeds.
	body io.ReadCloser
}

func newDownloadSession(ctx context.Context, transport *api.Transport, id string) *DownloadSession {
	ctx, cancel := context.WithCancel(ctx)
	s := &DownloadSession{
		documentID: id,
		transport:  transport,
		ctx:        ctx,
		cancel:     cancel,
	}
	if id == "" {
		s.initErr = &ValidationError{
			APIError: APIError{Message: "document ID cannot be empty"},
		}
	}
	return s
}

// State returns the session's current lifecycle state.
func (s *DownloadSession) State() SessionState {
	return SessionState(s.state.Load())
}

// Transferred returns the number of payload bytes read from the transport
// so far.
func (s *DownloadSession) Transferred() int64 {
	return s.transferred.Load()
}

// Abort cancels the transfer. It is idempotent and a no-op once the session
// is done or failed. Any pull or pipe already blocked on I/O resolves
// promptly with an *AbortError, and no further chunks are delivered even if
// bytes were buffered in flight. Abort is safe to call from a goroutine
// other than the one consuming the session.
func (s *DownloadSession) Abort() {
	if !s.abortCalled.CompareAndSwap(false, true) {
		return
	}
	for {
		cur := SessionState(s.state.Load())
		if cur == SessionDone || cur == SessionFailed || cur == SessionAborted {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(SessionAborted)) {
			break
		}
	}
	s.cancel()
}

// start issues the GET request. It runs at most once; any later consumption
// attempt is rejected.
func (s *DownloadSession) start() error {
	if !s.state.CompareAndSwap(int32(SessionIdle), int32(SessionStreaming)) {
		if s.State() == SessionAborted {
			return &AbortError{DocumentID: s.documentID}
		}
		return ErrSessionConsumed
	}

	if s.initErr != nil {
		s.state.Store(int32(SessionFailed))
		return s.initErr
	}

	resp, err := s.transport.DoStream(s.ctx, &api.Request{
		Method: http.MethodGet,
		Path:   "/documents/" + url.PathEscape(s.documentID) + "/download",
	})
	if err != nil {
		if s.aborted() {
			return &AbortError{DocumentID: s.documentID}
		}
		s.state.Store(int32(SessionFailed))
		return &TransportError{Op: "downloading document", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = resp.Body.Close()
		s.state.Store(int32(SessionFailed))
		err := parseError(resp.StatusCode, body, resp.Header)
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			notFound.ResourceType = "document"
			notFound.ResourceID = s.documentID
		}
		return err
	}

	s.body = resp.Body
	return nil
}

func (s *DownloadSession) aborted() bool {
	return s.State() == SessionAborted
}

func (s *DownloadSession) closeBody() {
	if s.body != nil {
		_ = s.body.Close()
	}
	s.cancel()
}

// Chunks returns a pull iterator over the payload. The request is issued on
// the first pull; the first pull surfaces any status error before a chunk is
// ever yielded. Each yielded chunk is owned by the consumer. The iterator is
// not restartable.
func (s *DownloadSession) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if err := s.start(); err != nil {
			yield(nil, err)
			return
		}
		defer s.closeBody()

		for {
			buf := make([]byte, downloadChunkSize)
			n, err := s.body.Read(buf)

			// An abort discards any chunk not yet handed over.
			if s.aborted() {
				yield(nil, &AbortError{DocumentID: s.documentID})
				return
			}

			if n > 0 {
				s.transferred.Add(int64(n))
				if !yield(buf[:n], nil) {
					// Consumer stopped early; the remainder is discarded
					// and the session ends as done, not aborted.
					s.state.CompareAndSwap(int32(SessionStreaming), int32(SessionDone))
					return
				}
			}

			switch {
			case err == io.EOF:
				s.state.CompareAndSwap(int32(SessionStreaming), int32(SessionDone))
				return
			case err != nil:
				if s.aborted() {
					yield(nil, &AbortError{DocumentID: s.documentID})
					return
				}
				s.state.Store(int32(SessionFailed))
				yield(nil, &TransportError{Op: "reading document stream", Err: err})
				return
			}
		}
	}
}

// PipeTo drives the transfer into w and returns the number of bytes written.
// The next chunk is not requested until w has accepted the current one, so
// at most one chunk is in flight. A write failure from w is returned as a
// *SinkError, distinct from transport read failures. Bytes already written
// before a failure are not rolled back.
func (s *DownloadSession) PipeTo(w io.Writer) (int64, error) {
	if err := s.start(); err != nil {
		return 0, err
	}
	defer s.closeBody()

	var written int64
	buf := make([]byte, downloadChunkSize)
	for {
		n, err := s.body.Read(buf)

		if s.aborted() {
			return written, &AbortError{DocumentID: s.documentID}
		}

		if n > 0 {
			s.transferred.Add(int64(n))
			wn, werr := w.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				s.state.Store(int32(SessionFailed))
				return written, &SinkError{Err: werr}
			}
		}

		switch {
		case err == io.EOF:
			s.state.CompareAndSwap(int32(SessionStreaming), int32(SessionDone))
			return written, nil
		case err != nil:
			if s.aborted() {
				return written, &AbortError{DocumentID: s.documentID}
			}
			s.state.Store(int32(SessionFailed))
			return written, &TransportError{Op: "reading document stream", Err: err}
		}
	}
}
