// Package directory authenticates users against an LDAP directory: a simple
// bind as the user, a check against the guard group and a lookup of the
// user's profile attributes.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
	"github.com/go-ldap/ldap/v3"
)

// DefaultGuardFilter matches the group whose members may not log in.
const DefaultGuardFilter = "(&(cn=Partner)(objectCategory=CN=Group*))"

const guardMemberAttr = "member"

var userAttributes = []string{"employeeNumber", "givenName", "sn", "mail", "gecos"}

var (
	// ErrInvalidCredentials means the directory refused the bind. Unknown
	// user and wrong password are deliberately not told apart.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")

	// ErrUnavailable means the directory could not be reached or failed
	// while answering.
	ErrUnavailable = errors.New("directory: unavailable")
)

// OpError records which step of the exchange failed.
type OpError struct {
	Op  string // connect, bind, guard_search, user_search
	Err error
}

func (e *OpError) Error() string { return "directory " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// Config describes where and how to look users up.
type Config struct {
	URI          string
	BaseDN       string
	UIDAttribute string // defaults to "uid"
	Filter       string // extra filter ANDed into the user search, may be empty
	GuardFilter  string // defaults to DefaultGuardFilter
}

// Outcome is the result of a successful bind. Forbidden is set when the user
// belongs to the guard group, in which case Identity is empty.
type Outcome struct {
	Identity  domain.DirectoryIdentity
	Forbidden bool
}

// Authenticator runs the bind, guard and attribute search sequence. It keeps
// no connection between calls.
type Authenticator struct {
	cfg  Config
	dial Dialer
}

// NewAuthenticator returns an Authenticator using dial for every call.
func NewAuthenticator(cfg Config, dial Dialer) *Authenticator {
	if cfg.UIDAttribute == "" {
		cfg.UIDAttribute = "uid"
	}
	if cfg.GuardFilter == "" {
		cfg.GuardFilter = DefaultGuardFilter
	}
	return &Authenticator{cfg: cfg, dial: dial}
}

// Authenticate binds as username and, unless the user is guarded, reads the
// profile attributes. Errors wrap ErrInvalidCredentials or ErrUnavailable in
// an *OpError.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Outcome, error) {
	log := slogx.FromContext(ctx)

	// An empty password would turn into an unauthenticated bind.
	if password == "" {
		return Outcome{}, &OpError{Op: "bind", Err: ErrInvalidCredentials}
	}

	conn, err := a.dial(ctx, a.cfg.URI)
	if err != nil {
		return Outcome{}, &OpError{Op: "connect", Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer conn.Close()

	if err := conn.Bind(a.BindDN(username), password); err != nil {
		log.Warn("ldap bind failed", "username", username, "err", err)
		return Outcome{}, &OpError{Op: "bind", Err: classifyBind(err)}
	}

	guarded, err := a.isGuarded(conn, username)
	if err != nil {
		return Outcome{}, &OpError{Op: "guard_search", Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	if guarded {
		log.Warn("login denied, user is in guard group", "username", username)
		return Outcome{Forbidden: true}, nil
	}

	identity, err := a.lookup(conn, username)
	if err != nil {
		return Outcome{}, &OpError{Op: "user_search", Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	return Outcome{Identity: identity}, nil
}

// BindDN is the distinguished name used to bind as username.
func (a *Authenticator) BindDN(username string) string {
	return a.cfg.UIDAttribute + "=" + ldap.EscapeDN(username) + "," + a.cfg.BaseDN
}

// isGuarded reports whether any member value of the guard group contains
// username. The match is a plain substring test, so "ann" also matches
// "cn=joanna,...". No guard entry means nobody is guarded.
func (a *Authenticator) isGuarded(conn Conn, username string) (bool, error) {
	res, err := conn.Search(ldap.NewSearchRequest(
		a.cfg.BaseDN, ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		a.cfg.GuardFilter, []string{guardMemberAttr}, nil,
	))
	if err != nil {
		return false, err
	}
	if len(res.Entries) == 0 {
		return false, nil
	}

	for _, member := range res.Entries[0].GetAttributeValues(guardMemberAttr) {
		if strings.Contains(member, username) {
			return true, nil
		}
	}
	return false, nil
}

func (a *Authenticator) lookup(conn Conn, username string) (domain.DirectoryIdentity, error) {
	filter := "(&(" + a.cfg.UIDAttribute + "=" + ldap.EscapeFilter(username) + ")" + a.cfg.Filter + ")"

	res, err := conn.Search(ldap.NewSearchRequest(
		a.cfg.BaseDN, ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		filter, userAttributes, nil,
	))
	if err != nil {
		return domain.DirectoryIdentity{}, err
	}
	if len(res.Entries) == 0 {
		return domain.DirectoryIdentity{}, nil
	}

	e := res.Entries[0]
	return domain.DirectoryIdentity{
		EmployeeNumber: parseEmployeeNumber(e.GetAttributeValue("employeeNumber")),
		FirstName:      optional(e.GetAttributeValue("givenName")),
		LastName:       optional(e.GetAttributeValue("sn")),
		Email:          optional(e.GetAttributeValue("mail")),
		Gecos:          optional(e.GetAttributeValue("gecos")),
	}, nil
}

// classifyBind separates a refusal from the server from a transport failure.
// go-ldap reserves result codes from ErrorNetwork upwards for client side
// errors.
func classifyBind(err error) error {
	var lerr *ldap.Error
	if errors.As(err, &lerr) && lerr.ResultCode < ldap.ErrorNetwork {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// parseEmployeeNumber keeps only values that fit a 32-bit integer.
func parseEmployeeNumber(v string) *int64 {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return nil
	}
	return &n
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
