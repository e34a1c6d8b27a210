package rbac

import "testing"

func TestCanManageProject(t *testing.T) {
	cases := []struct {
		name            string
		role            Role
		hasOwnerManager bool
		isManager       bool
		allow           bool
	}{
		{name: "admin, no owner manager", role: RoleAdmin, hasOwnerManager: false, isManager: false, allow: true},
		{name: "admin, owner manager assigned, not manager", role: RoleAdmin, hasOwnerManager: true, isManager: false, allow: false},
		{name: "admin, owner manager assigned, is manager", role: RoleAdmin, hasOwnerManager: true, isManager: true, allow: true},
		{name: "board user, is manager", role: RoleBoardUser, hasOwnerManager: false, isManager: true, allow: true},
		{name: "board user, not manager", role: RoleBoardUser, hasOwnerManager: false, isManager: false, allow: false},
		{name: "project owner, not manager of this project", role: RoleProjectOwner, hasOwnerManager: true, isManager: false, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanManageProject(tc.role, tc.hasOwnerManager, tc.isManager); got != tc.allow {
				t.Fatalf("CanManageProject(%q, %v, %v) = %v, want %v",
					tc.role, tc.hasOwnerManager, tc.isManager, got, tc.allow)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("admin"); got != RoleAdmin {
		t.Fatalf("Normalize(admin) = %q", got)
	}
	if got := Normalize("something-else"); got != RoleBoardUser {
		t.Fatalf("Normalize fallback = %q, want boardUser", got)
	}
}
