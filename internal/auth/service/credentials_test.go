package service

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	t.Run("accepts allowed characters", func(t *testing.T) {
		for _, u := range []string{"alice", "a", "john.doe", "j_doe-2", strings.Repeat("x", MaxUsernameLength)} {
			require.NoError(t, ValidateCredentials(domain.LoginRequest{Username: u, Password: "pw"}), u)
		}
	})

	tests := []struct {
		name string
		req  domain.LoginRequest
		want []FieldError
	}{
		{
			name: "empty username",
			req:  domain.LoginRequest{Username: "", Password: "pw"},
			want: []FieldError{{Field: "username", Rule: RuleRequired}},
		},
		{
			name: "too long",
			req:  domain.LoginRequest{Username: strings.Repeat("x", MaxUsernameLength+1), Password: "pw"},
			want: []FieldError{{Field: "username", Rule: RuleLength, Value: strings.Repeat("x", MaxUsernameLength+1)}},
		},
		{
			name: "bad characters",
			req:  domain.LoginRequest{Username: "alice)(uid=*", Password: "pw"},
			want: []FieldError{{Field: "username", Rule: RuleCharset, Value: "alice)(uid=*"}},
		},
		{
			name: "non ascii letters",
			req:  domain.LoginRequest{Username: "ユーザー", Password: "pw"},
			want: []FieldError{{Field: "username", Rule: RuleCharset, Value: "ユーザー"}},
		},
		{
			name: "space",
			req:  domain.LoginRequest{Username: "alice smith", Password: "pw"},
			want: []FieldError{{Field: "username", Rule: RuleCharset, Value: "alice smith"}},
		},
		{
			name: "empty password",
			req:  domain.LoginRequest{Username: "alice", Password: ""},
			want: []FieldError{{Field: "password", Rule: RuleRequired}},
		},
		{
			name: "everything wrong",
			req:  domain.LoginRequest{Username: "", Password: ""},
			want: []FieldError{
				{Field: "username", Rule: RuleRequired},
				{Field: "password", Rule: RuleRequired},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.want, verr.Fields)
		})
	}

	t.Run("length counts characters not bytes", func(t *testing.T) {
		// 255 multi byte runes are too long in bytes but within the limit.
		err := ValidateCredentials(domain.LoginRequest{Username: strings.Repeat("é", MaxUsernameLength), Password: "pw"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []FieldError{{Field: "username", Rule: RuleCharset, Value: strings.Repeat("é", MaxUsernameLength)}}, verr.Fields)
	})

	t.Run("password never echoed", func(t *testing.T) {
		err := ValidateCredentials(domain.LoginRequest{Username: "bad name", Password: "hunter2"})
		require.Error(t, err)
		require.NotContains(t, err.Error(), "hunter2")
	})
}
