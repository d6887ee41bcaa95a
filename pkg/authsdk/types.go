package authsdk

import "time"

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the JSON shape of every non-validation error body.
// Client code should use the Error type from errors.go instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is the JSON shape of a 400 validation failure.
type ValidationErrorResponse struct {
	// Error is always "validation_error"
	Error string `json:"error"`

	// Details lists every violated rule
	Details []FieldDetail `json:"details"`
}

// FieldDetail is one violated input rule. Value is never set for the
// password field.
type FieldDetail struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value string `json:"value,omitempty"`
}

// ============================================================================
// Login Types
// ============================================================================

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is the public view of a local user record. Directory sourced
// attributes are omitted when the directory did not supply them.
type UserResponse struct {
	ID             int64     `json:"id"`
	LoginID        string    `json:"login_id"`
	EmployeeNumber *int64    `json:"employee_number,omitempty"`
	FirstName      *string   `json:"first_name,omitempty"`
	LastName       *string   `json:"last_name,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Gecos          *string   `json:"gecos,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListUsersResponse is returned by GET /api/users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates whether a signing secret is loaded
	Signer string `json:"signer"`

	// RateLimit indicates the login attempt counter store status
	RateLimit string `json:"rate_limit"`
}
