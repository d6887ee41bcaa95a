package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/dirauth/internal/auth/directory"
	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/internal/auth/metrics"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/aussiebroadwan/dirauth/pkg/ratelimit"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// Authenticator checks credentials against the directory.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (directory.Outcome, error)
}

// AttemptLimiter gates login attempts per client.
type AttemptLimiter interface {
	Check(ctx context.Context, key string) ratelimit.Decision
}

// LoginResult is a completed login. When Forbidden is set the credentials
// were valid but the account may not log in, and no token was issued.
type LoginResult struct {
	Forbidden bool
	User      domain.User
	Token     string
	Claims    jwtx.Claims
}

// LoginService runs the login sequence: validate, throttle, authenticate
// against the directory, reconcile the local user and issue a token.
type LoginService struct {
	Limiter   AttemptLimiter
	Directory Authenticator
	Users     *UserService
	Tokens    *TokenService
	Metrics   *metrics.Metrics
}

// Login authenticates req for the client at clientIP.
//
// Errors are *ValidationError, *RateLimitError, or wrap ErrAuthentication,
// ErrDirectory or ErrInternal.
func (s *LoginService) Login(ctx context.Context, req domain.LoginRequest, clientIP string) (LoginResult, error) {
	log := slogx.FromContext(ctx).With("username", req.Username)

	if err := ValidateCredentials(req); err != nil {
		log.Warn("login request failed validation", "err", err)
		s.Metrics.LoginAttempt(ctx, metrics.ResultInvalid)
		return LoginResult{}, err
	}

	if d := s.Limiter.Check(ctx, ratelimit.LoginKey(clientIP)); !d.Allowed {
		log.Warn("login rate limit exceeded", "client_ip", clientIP, "retry_after", d.RetryAfter)
		s.Metrics.LoginAttempt(ctx, metrics.ResultThrottled)
		return LoginResult{}, &RateLimitError{RetryAfter: d.RetryAfter}
	}

	out, err := s.Directory.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			s.Metrics.LoginAttempt(ctx, metrics.ResultFailure)
			return LoginResult{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		log.Error("directory authentication failed", "err", err)
		s.Metrics.LoginAttempt(ctx, metrics.ResultError)
		return LoginResult{}, fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	if out.Forbidden {
		s.Metrics.LoginAttempt(ctx, metrics.ResultForbidden)
		return LoginResult{Forbidden: true}, nil
	}

	user, err := s.Users.Reconcile(ctx, req.Username, out.Identity)
	if err != nil {
		s.Metrics.LoginAttempt(ctx, metrics.ResultError)
		return LoginResult{}, err
	}

	token, claims, err := s.Tokens.Issue(user)
	if err != nil {
		log.Error("failed to issue token", "err", err)
		s.Metrics.LoginAttempt(ctx, metrics.ResultError)
		return LoginResult{}, err
	}

	log.Info("login succeeded", "user_id", user.ID)
	s.Metrics.LoginAttempt(ctx, metrics.ResultSuccess)
	return LoginResult{User: user, Token: token, Claims: claims}, nil
}
