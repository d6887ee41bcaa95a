package http

import (
	"net/http"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/internal/auth/service"
	"github.com/aussiebroadwan/dirauth/pkg/authsdk"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
)

type UsersHandler struct {
	UserService *service.UserService
	errors      errorWriter
}

// HandleList handles GET /api/users.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	resp := authsdk.ListUsersResponse{Users: make([]authsdk.UserResponse, len(users))}
	for i, u := range users {
		resp.Users[i] = toUserResponse(u)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /api/users/me. A valid token whose subject no longer
// has a local record is treated as unauthenticated.
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := CurrentIdentity(r.Context())
	if !identity.Authenticated() {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(*identity.User))
}

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:             u.ID,
		LoginID:        u.LoginID,
		EmployeeNumber: u.EmployeeNumber,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Gecos:          u.Gecos,
		CreatedAt:      u.CreatedAt,
	}
}
