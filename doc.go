// Package fulcrum provides a native Go client for the Fulcrum
// resource-oriented storage and compute platform API.
//
// # Features
//
//   - Service-based architecture covering identities, documents, apps,
//     grants, permissions, jobs and databases
//   - Streaming, abortable document downloads with pull and push modes
//   - Streaming multipart document uploads without full buffering
//   - Modern Go 1.25+ iterators for cursor pagination
//   - Typed errors for precise error handling
//   - Functional options for flexible configuration
//
// # Quick Start
//
//	client, err := fulcrum.NewClient(
//	    fulcrum.WithBaseURL("https://api.fulcrum.example.com"),
//	    fulcrum.WithToken(apiToken),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// List documents
//	filter := &fulcrum.DocumentFilter{Owner: "identity-1"}
//
//	for doc, err := range client.Documents.List(ctx, filter) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("Document: %s (%d bytes)\n", doc.Name, doc.Size)
//	}
//
// # Downloads
//
// Downloads are lazy: no request is issued until the session is consumed,
// so an abort can be attached before any bytes move. A session is consumed
// exactly once, either by pulling chunks or by piping to a writer:
//
//	session := client.Documents.Download(ctx, docID)
//	defer session.Abort()
//
//	n, err := session.PipeTo(file)
//
// or chunk by chunk:
//
//	for chunk, err := range session.Chunks() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    process(chunk)
//	}
//
// # Uploads
//
// Uploads stream a multipart body and resolve asynchronously:
//
//	task := client.Documents.Upload(ctx, file, &fulcrum.UploadParams{
//	    Details: map[string]any{"tags": []string{"report"}},
//	})
//	doc, err := task.Wait(ctx)
//
// # Error Handling
//
// The package uses typed errors that can be inspected with errors.As:
//
//	doc, err := client.Documents.Get(ctx, "invalid-id")
//	if err != nil {
//	    var notFound *fulcrum.NotFoundError
//	    if errors.As(err, &notFound) {
//	        // Handle not found
//	    }
//	}
//
// # Pagination
//
// Use iterators for automatic cursor pagination:
//
//	// Iterate over all results
//	for doc, err := range client.Documents.List(ctx, filter) {
//	    // ...
//	}
//
//	// Collect all results into a slice
//	docs, err := fulcrum.Collect(client.Documents.List(ctx, filter))
//
//	// Or use manual pagination
//	page, err := client.Documents.ListPage(ctx, filter, &fulcrum.PageOptions{
//	    Size: 100,
//	})
//	next := page.NextPageToken
package fulcrum
