package models

type Role string

const (
	RoleManager        Role = "manager"
	RoleDepartmentHead Role = "department_head"
	RoleEmployee       Role = "employee"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// PermittedActions lists what role may do with a request in the given pair
// of track states.
func PermittedActions(role Role, departmentStatus, managerStatus Status) []Action {
	switch role {
	case RoleDepartmentHead:
		if departmentStatus == StatusPending {
			return []Action{ActionApprove, ActionReject}
		}
	case RoleManager:
		if managerStatus == StatusPending && departmentStatus == StatusApproved {
			return []Action{ActionApprove, ActionReject}
		}
		if managerStatus == StatusApproved {
			return []Action{ActionCancel}
		}
	case RoleEmployee:
		if managerStatus == StatusApproved {
			return []Action{ActionCancel}
		}
	}
	return nil
}

func CanPerform(role Role, action Action, departmentStatus, managerStatus Status) bool {
	for _, a := range PermittedActions(role, departmentStatus, managerStatus) {
		if a == action {
			return true
		}
	}
	return false
}
