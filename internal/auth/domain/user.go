package domain

import "time"

// User is the local record for a directory account. It is created on the
// first successful login and never updated through the login path; the
// values captured at creation stay authoritative.
type User struct {
	ID             int64
	LoginID        string // directory uid, unique and case sensitive
	EmployeeNumber *int64
	FirstName      *string
	LastName       *string
	Email          *string
	Gecos          *string
	CreatedAt      time.Time
}

// NewUserFromDirectory builds an unsaved record for loginID from the
// attributes the directory returned.
func NewUserFromDirectory(loginID string, id DirectoryIdentity) User {
	return User{
		LoginID:        loginID,
		EmployeeNumber: id.EmployeeNumber,
		FirstName:      id.FirstName,
		LastName:       id.LastName,
		Email:          id.Email,
		Gecos:          id.Gecos,
	}
}
