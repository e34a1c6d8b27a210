package rbac

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProjectOwner Role = "projectOwner"
	RoleBoardUser    Role = "boardUser"
)

// CanManageProject is the single authorization rule for project-scoped
// content (debates, info cards, replies, attachments). Two independent
// paths, evaluated in order:
//
//  1. a global admin may manage any project that has no explicitly assigned
//     owner project manager;
//  2. anyone recognized as a manager of the project may manage it,
//     regardless of global role.
//
// hasOwnerManager reports whether the project has an assigned owner project
// manager; isManager is the manager-membership lookup result and is trusted
// verbatim.
func CanManageProject(role Role, hasOwnerManager, isManager bool) bool {
	if role == RoleAdmin && !hasOwnerManager {
		return true
	}
	return isManager
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleProjectOwner, RoleBoardUser:
		return Role(role)
	default:
		return RoleBoardUser
	}
}
