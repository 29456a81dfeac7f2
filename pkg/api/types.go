package api

// Endpoint paths relative to the configured service endpoint.
const (
	SubmitPath = "/groovy/submit"
	StatusPath = "/groovy/status"
)

// Credential is a username/password pair used for HTTP basic authentication.
// It also scopes ownership of submissions on the service side.
type Credential struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// NewCredential is a shorthand for building a Credential literal.
func NewCredential(username, password string) Credential {
	return Credential{Username: username, Password: password}
}

// String returns the username only; passwords never appear in logs.
func (c Credential) String() string {
	return c.Username
}

// ExecutionStatus is the lifecycle stage of a submission.
type ExecutionStatus string

const (
	StatusPending    ExecutionStatus = "PENDING"
	StatusInProgress ExecutionStatus = "IN_PROGRESS"
	StatusCompleted  ExecutionStatus = "COMPLETED"
	StatusFailed     ExecutionStatus = "FAILED"
)

// AllStatuses returns every status the service may report, in lifecycle order.
func AllStatuses() []ExecutionStatus {
	return []ExecutionStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed}
}

// Valid reports whether s is one of the known statuses.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// In reports whether s is contained in set.
func (s ExecutionStatus) In(set []ExecutionStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// SubmitRequest is the body of POST /groovy/submit.
type SubmitRequest struct {
	Code string `json:"code"`
}

// SubmitPayload is the success body of POST /groovy/submit.
type SubmitPayload struct {
	ID string `json:"id"`
}

// StatusPayload is the success body of GET /groovy/status.
// Result is set only when Status is COMPLETED.
type StatusPayload struct {
	ID     string          `json:"id"`
	Status ExecutionStatus `json:"status"`
	Result *string         `json:"result,omitempty"`
}
