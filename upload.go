package fulcrum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fulcrumapi/go-fulcrum/internal/api"
)

// UploadParams carries optional metadata attached to an upload.
type UploadParams struct {
	// Details holds caller-defined metadata stored with the document.
	Details map[string]any `json:"details,omitempty"`

	// Owner assigns the document to an identity.
	Owner string `json:"owner,omitempty"`

	// ToApp associates the document with an app.
	ToApp string `json:"toApp,omitempty"`
}

func (p *UploadParams) empty() bool {
	return p == nil || (len(p.Details) == 0 && p.Owner == "" && p.ToApp == "")
}

// UploadTask is one in-progress upload. The creating call never blocks;
// callers await completion through Wait or Done. The resulting Document is
// populated only after the server has acknowledged full receipt with a
// created-document response; no partial handle is ever returned.
type UploadTask struct {
	done chan struct{}
	doc  *Document
	err  error
}

// Wait blocks until the upload completes or ctx is done, and returns the
// created document or the failure.
func (t *UploadTask) Wait(ctx context.Context) (*Document, error) {
	select {
	case <-t.done:
		return t.doc, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the upload completes. After it closes,
// Document and Err report the outcome.
func (t *UploadTask) Done() <-chan struct{} {
	return t.done
}

// Document returns the created document once the task is done, else nil.
func (t *UploadTask) Document() *Document {
	select {
	case <-t.done:
		return t.doc
	default:
		return nil
	}
}

// Err returns the task failure once the task is done, else nil.
func (t *UploadTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// runUpload executes the streaming multipart upload. The multipart body is
// fed to the transport through a pipe, so an incremental source streams
// without the total length being known up front and without buffering the
// payload in memory. An errgroup ties the encoder and the request together
// with first-error-wins semantics.
func runUpload(ctx context.Context, transport *api.Transport, data io.Reader, params *UploadParams, headers http.Header) (*Document, error) {
	if data == nil {
		return nil, &ValidationError{
			APIError: APIError{Message: "upload data cannot be nil"},
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// High-entropy boundary so no user-controlled metadata string can
	// collide with it.
	if err := mw.SetBoundary("fulcrum-" + uuid.NewString()); err != nil {
		return nil, fmt.Errorf("fulcrum: setting multipart boundary: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var encodeErr error
	g.Go(func() error {
		if err := encodeMultipart(mw, params, data); err != nil {
			encodeErr = err
			pw.CloseWithError(err)
			return err
		}
		return pw.Close()
	})

	var doc *Document
	g.Go(func() error {
		resp, err := transport.Do(gctx, &api.Request{
			Method:      http.MethodPost,
			Path:        "/documents",
			RawBody:     pr,
			ContentType: mw.FormDataContentType(),
			Headers:     headers,
		})
		if err != nil {
			uploadErr := &TransportError{Op: "uploading document", Err: err}
			// Unblock the encoder if it is still writing.
			pr.CloseWithError(uploadErr)
			return uploadErr
		}

		if resp.StatusCode != http.StatusCreated {
			uploadErr := parseError(resp.StatusCode, resp.Body, resp.Headers)
			pr.CloseWithError(uploadErr)
			return uploadErr
		}

		var created Document
		if err := json.Unmarshal(resp.Body, &created); err != nil {
			return fmt.Errorf("fulcrum: unmarshaling created document: %w", err)
		}
		doc = &created
		return nil
	})

	if err := g.Wait(); err != nil {
		// The encoder's failure is the root cause when both sides error.
		if encodeErr != nil {
			return nil, encodeErr
		}
		return nil, err
	}
	return doc, nil
}

// encodeMultipart writes the two-part body: a metadata part (JSON when
// params are present, otherwise an empty text/plain part, a fixed wire-format
// fact of the API) followed by the raw data part. The source is copied
// through in a single pass.
func encodeMultipart(mw *multipart.Writer, params *UploadParams, data io.Reader) error {
	metaHeader := make(textproto.MIMEHeader)
	metaHeader.Set("Content-Disposition", `form-data; name="metadata"`)
	if params.empty() {
		metaHeader.Set("Content-Type", "text/plain")
		if _, err := mw.CreatePart(metaHeader); err != nil {
			return fmt.Errorf("fulcrum: creating metadata part: %w", err)
		}
	} else {
		metaHeader.Set("Content-Type", "application/json")
		part, err := mw.CreatePart(metaHeader)
		if err != nil {
			return fmt.Errorf("fulcrum: creating metadata part: %w", err)
		}
		encoded, err := json.Marshal(params)
		if err != nil {
			return &ValidationError{
				APIError: APIError{Message: "encoding upload metadata: " + err.Error()},
			}
		}
		if _, err := part.Write(encoded); err != nil {
			return fmt.Errorf("fulcrum: writing metadata part: %w", err)
		}
	}

	dataHeader := make(textproto.MIMEHeader)
	dataHeader.Set("Content-Disposition", `form-data; name="data"; filename="data"`)
	dataHeader.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(dataHeader)
	if err != nil {
		return fmt.Errorf("fulcrum: creating data part: %w", err)
	}

	// Copied by hand rather than io.Copy so a failure from the source is
	// distinguishable from a pipe write failure, which already carries the
	// request-side error.
	buf := make([]byte, 32*1024)
	for {
		n, rerr := data.Read(buf)
		if n > 0 {
			if _, werr := part.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("fulcrum: reading upload source: %w", rerr)
		}
	}

	return mw.Close()
}
