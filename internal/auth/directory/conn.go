package directory

import (
	"context"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Conn is the subset of an LDAP connection the authenticator needs.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close()
}

// Dialer opens a fresh connection to uri.
type Dialer func(ctx context.Context, uri string) (Conn, error)

// NewDialer returns a Dialer bounding the TCP connect by timeout. Zero
// disables the bound. Bind and search requests carry no deadline of their
// own.
func NewDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, uri string) (Conn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := ldap.DialURL(uri, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
		if err != nil {
			return nil, err
		}
		return ldapConn{c}, nil
	}
}

type ldapConn struct {
	*ldap.Conn
}

func (c ldapConn) Close() {
	c.Conn.Close()
}
