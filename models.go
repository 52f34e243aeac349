package fulcrum

import (
	"time"
)

// Identity represents a Fulcrum identity (a user or service principal).
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"` // "user" or "service"
	Email    string `json:"email,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// Document represents a stored binary object's metadata. The binary payload
// itself is transferred through DocumentService.Download and Upload.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Owner       string `json:"owner,omitempty"`
	ToApp       string `json:"toApp,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`

	// Details holds caller-defined metadata attached at upload time.
	Details map[string]any `json:"details,omitempty"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// App represents a registered Fulcrum application.
type App struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner,omitempty"`
	Description string `json:"description,omitempty"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// Grant represents a capability grant from an identity to an app.
type Grant struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	ToApp    string `json:"toApp"`
	Resource string `json:"resource,omitempty"`

	Created time.Time `json:"created"`
}

// Permission represents a named set of allowed actions on a resource.
type Permission struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Resource string   `json:"resource,omitempty"`
	Actions  []string `json:"actions,omitempty"`

	Created time.Time `json:"created"`
}

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobComplete  JobStatus = "complete"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobComplete, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Job represents a server-side compute job. Scheduling and execution are
// opaque server behaviors; the client only creates, inspects and cancels.
type Job struct {
	ID     string         `json:"id"`
	App    string         `json:"app,omitempty"`
	Kind   string         `json:"kind,omitempty"`
	Status JobStatus      `json:"status"`
	Input  map[string]any `json:"input,omitempty"`
	Output map[string]any `json:"output,omitempty"`

	Created  time.Time `json:"created"`
	Started  time.Time `json:"started,omitzero"`
	Finished time.Time `json:"finished,omitzero"`
}

// Database represents database metadata. Query execution is out of scope;
// only metadata CRUD is exposed.
type Database struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// PageOptions configures cursor pagination for list requests. Query keys are
// kebab-cased to match the server's declared parameter names; JSON keys stay
// camelCase for body-carried filters.
type PageOptions struct {
	Size  int    `url:"page-size,omitempty" json:"pageSize,omitempty"`
	Token string `url:"page-token,omitempty" json:"pageToken,omitempty"`
}

// Page is a single batch of results plus the cursor for the next batch.
// An empty NextPageToken means the sequence is exhausted; an empty Results
// slice with a token present is a valid intermediate page.
type Page[T any] struct {
	Results       []T    `json:"results"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// Typed pages returned by the per-resource ListPage methods.
type (
	IdentityPage   = Page[*Identity]
	DocumentPage   = Page[*Document]
	AppPage        = Page[*App]
	GrantPage      = Page[*Grant]
	PermissionPage = Page[*Permission]
	JobPage        = Page[*Job]
	DatabasePage   = Page[*Database]
)

// IdentityFilter defines list criteria for identities.
type IdentityFilter struct {
	Name string `url:"name,omitempty" json:"name,omitempty"`
	Kind string `url:"kind,omitempty" json:"kind,omitempty"`
}

// DocumentFilter defines list/search criteria for documents.
type DocumentFilter struct {
	Name  string `url:"name,omitempty" json:"name,omitempty"`
	Owner string `url:"owner,omitempty" json:"owner,omitempty"`
	ToApp string `url:"to-app,omitempty" json:"toApp,omitempty"`
}

// AppFilter defines list criteria for apps.
type AppFilter struct {
	Name  string `url:"name,omitempty" json:"name,omitempty"`
	Owner string `url:"owner,omitempty" json:"owner,omitempty"`
}

// GrantFilter defines list criteria for grants.
type GrantFilter struct {
	Identity string `url:"identity,omitempty" json:"identity,omitempty"`
	ToApp    string `url:"to-app,omitempty" json:"toApp,omitempty"`
}

// PermissionFilter defines list criteria for permissions.
type PermissionFilter struct {
	Resource string `url:"resource,omitempty" json:"resource,omitempty"`
}

// JobFilter defines list criteria for jobs.
type JobFilter struct {
	App    string      `url:"app,omitempty" json:"app,omitempty"`
	Status []JobStatus `url:"status,omitempty" json:"status,omitempty"`
}

// DatabaseFilter defines list criteria for databases.
type DatabaseFilter struct {
	Owner string `url:"owner,omitempty" json:"owner,omitempty"`
}

// CreateIdentityRequest contains data for creating a new identity.
type CreateIdentityRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateIdentityRequest contains data for updating an identity.
// Nil fields are left unchanged.
type UpdateIdentityRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Disabled *bool   `json:"disabled,omitempty"`
}

// CreateAppRequest contains data for registering a new app.
type CreateAppRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateAppRequest contains data for updating an app.
// Nil fields are left unchanged.
type UpdateAppRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateGrantRequest contains data for issuing a new grant. Grants are
// immutable once issued; revoke by deleting.
type CreateGrantRequest struct {
	Identity string `json:"identity"`
	ToApp    string `json:"toApp"`
	Resource string `json:"resource,omitempty"`
}

// CreatePermissionRequest contains data for creating a new permission.
type CreatePermissionRequest struct {
	Name     string   `json:"name"`
	Resource string   `json:"resource,omitempty"`
	Actions  []string `json:"actions,omitempty"`
}

// CreateJobRequest contains data for submitting a new job.
type CreateJobRequest struct {
	App   string         `json:"app"`
	Kind  string         `json:"kind"`
	Input map[string]any `json:"input,omitempty"`
}

// CreateDatabaseRequest contains data for creating a new database.
type CreateDatabaseRequest struct {
	Name string `json:"name"`
}
