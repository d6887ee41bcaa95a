/*
Package authsdk provides a client SDK for the directory authentication service.

# Overview

The service authenticates users against an LDAP directory and issues HS256 bearer
tokens valid for seven days. The SDK offers unauthenticated operations (via SDKClient)
and authenticated operations (via Session).

# SDKClient vs Session

  - SDKClient: health checks and login
  - Session: calls that carry the issued bearer token

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Log in to create a session
	session, err := client.Login(ctx, "jdoe", "secret")

	// Look up the local record for the logged in user
	me, err := session.CurrentUser(ctx)

The token is returned by the service in the Authorization response header and kept
by the Session. There is no refresh flow; when the token expires the service answers
401 and the caller logs in again.

# Error Handling

The SDK returns typed errors for specific conditions:

  - *ValidationError: the username or password broke an input rule (400)
  - *RateLimitError: too many login attempts from this address (429)
  - ErrForbidden: the credentials were valid but the account may not log in (403)
  - *Error: any other service error, carrying the HTTP status and error code

Example:

	session, err := client.Login(ctx, username, password)
	var rl *authsdk.RateLimitError
	switch {
	case errors.As(err, &rl):
		time.Sleep(rl.RetryAfter)
	case errors.Is(err, authsdk.ErrForbidden):
		fmt.Println("account is not allowed to log in")
	case err != nil:
		return err
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
