package security

import "clan-manager/internal/model"

// Authorize decides whether caller may use a route that requires one of
// required. targetClanID is the clan named by the request path or body, if any.
//
// The checks run in a fixed order: open routes, anonymous callers, super
// admins, leaders acting on their own clan, then plain role membership. The
// leader check runs before membership, so a leader reaches a super-admin-only
// route when the request targets the leader's clan.
func Authorize(caller *model.AuthClaims, required []model.Role, targetClanID string) bool {
	if len(required) == 0 {
		return true
	}
	if caller == nil || caller.UserID == "" {
		return false
	}
	if caller.Role == model.RoleSuperAdmin {
		return true
	}
	if targetClanID != "" && caller.IsLeaderOf(targetClanID) {
		return true
	}
	for _, role := range required {
		if caller.Role == role {
			return true
		}
	}
	return false
}
