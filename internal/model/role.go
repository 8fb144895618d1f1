package model

// Role 用户角色
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor
}
