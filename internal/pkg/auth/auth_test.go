package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		need  Permission
		want  bool
	}{
		{"admin has everything", []string{"system_admin"}, PermCredentialManage, true},
		{"viewer can view", []string{"system_viewer"}, PermCredentialView, true},
		{"viewer cannot manage", []string{"system_viewer"}, PermCredentialManage, false},
		{"viewer cannot sync", []string{"system_viewer"}, PermRepositorySync, false},
		{"member can sync", []string{"member"}, PermRepositorySync, true},
		{"member can view repositories", []string{"member"}, PermRepositoryView, true},
		{"member cannot manage credentials", []string{"member"}, PermCredentialManage, false},
		{"unknown role", []string{"ghost"}, PermRepositoryView, false},
		{"no roles", nil, PermRepositoryView, false},
		{"any role suffices", []string{"ghost", "member"}, PermCredentialView, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allow(tc.roles, tc.need))
		})
	}
}
