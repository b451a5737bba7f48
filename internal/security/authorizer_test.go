package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clan-manager/internal/model"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	admin := &model.AuthClaims{UserID: "a", Role: model.RoleSuperAdmin}
	leader := &model.AuthClaims{UserID: "l", Role: model.RoleClanLeader, ClanID: "Alpha_01"}
	member := &model.AuthClaims{UserID: "m", Role: model.RoleClanMember, ClanID: "Alpha_01"}

	adminOnly := []model.Role{model.RoleSuperAdmin}
	leaders := []model.Role{model.RoleSuperAdmin, model.RoleClanLeader}

	cases := []struct {
		name     string
		caller   *model.AuthClaims
		required []model.Role
		target   string
		want     bool
	}{
		{"open route allows anonymous", nil, nil, "", true},
		{"anonymous denied", nil, leaders, "", false},
		{"super admin bypasses roles", admin, []model.Role{model.RoleClanMember}, "", true},
		{"super admin bypasses ownership", admin, leaders, "Beta_02", true},
		{"leader by membership", leader, leaders, "", true},
		{"leader same clan reaches admin-only route", leader, adminOnly, "Alpha_01", true},
		{"leader other clan on admin-only route", leader, adminOnly, "Beta_02", false},
		{"leader without target on admin-only route", leader, adminOnly, "", false},
		{"member lacks role", member, leaders, "Alpha_01", false},
		{"member by membership", member, []model.Role{model.RoleClanMember}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.caller, tc.required, tc.target))
		})
	}
}
