package domain

// LoginRequest is the credential pair submitted to the login endpoint. It is
// never persisted or logged.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
