package authsdk

import (
	"context"
	"net/http"
)

// CurrentUser returns the local record of the user the session belongs to.
func (s *Session) CurrentUser(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/users/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// ListUsers returns every local user record.
func (s *Session) ListUsers(ctx context.Context) ([]UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/users", nil, nil)
	if err != nil {
		return nil, err
	}

	var list ListUsersResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return list.Users, nil
}
