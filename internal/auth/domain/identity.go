package domain

// DirectoryIdentity holds the attributes read from the user's directory
// entry. Every field is best effort and nil when the attribute was missing or
// unusable.
type DirectoryIdentity struct {
	EmployeeNumber *int64
	FirstName      *string
	LastName       *string
	Email          *string
	Gecos          *string
}

// RequestIdentity is the caller resolved for a single request. User is nil
// when the request carried no valid token or the subject no longer resolves
// to a local record.
type RequestIdentity struct {
	User *User
}

// Authenticated reports whether a user was resolved.
func (r RequestIdentity) Authenticated() bool { return r.User != nil }
