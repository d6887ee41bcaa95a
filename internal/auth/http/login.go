package http

import (
	"net/http"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/internal/auth/service"
	"github.com/aussiebroadwan/dirauth/pkg/authsdk"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

const maxLoginBody = 64 << 10

type LoginHandler struct {
	LoginService *service.LoginService
	Proxies      *httpx.TrustedProxies
	errors       errorWriter
}

// ServeHTTP handles POST /login. The token is returned in the Authorization
// response header and the body is left empty.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := httpx.DecodeJSON(w, r, maxLoginBody, &req); err != nil {
		slogx.FromContext(r.Context()).Warn("invalid login body", "err", err)
		h.errors.describe(authsdk.ErrInvalidRequest, err).WriteError(w)
		return
	}

	res, err := h.LoginService.Login(r.Context(), req, h.Proxies.ClientIP(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	if res.Forbidden {
		authsdk.ErrForbidden.WriteError(w)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Authorization", "Bearer "+res.Token)
	w.WriteHeader(http.StatusOK)
}
