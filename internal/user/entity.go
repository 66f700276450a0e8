package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type WorkStatus string

const (
	WorkStatusAvailable WorkStatus = "available"
	WorkStatusFieldDuty WorkStatus = "field-duty"
	WorkStatusOnLeave   WorkStatus = "on-leave"
	WorkStatusOffline   WorkStatus = "offline"
)

func (w WorkStatus) Valid() bool {
	switch w {
	case WorkStatusAvailable, WorkStatusFieldDuty, WorkStatusOnLeave, WorkStatusOffline:
		return true
	}
	return false
}

type User struct {
	ID         string     `yaml:"id" json:"id"`
	Username   string     `yaml:"username" json:"username"`
	Name       string     `yaml:"name" json:"name"`
	Role       Role       `yaml:"role" json:"role"`
	Department string     `yaml:"department,omitempty" json:"department,omitempty"`
	Position   string     `yaml:"position,omitempty" json:"position,omitempty"`
	IsActive   bool       `yaml:"is_active" json:"isActive"`
	WorkStatus WorkStatus `yaml:"work_status" json:"workStatus"`
	CreatedAt  time.Time  `yaml:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `yaml:"updated_at" json:"updatedAt"`
	Version    int64      `yaml:"version" json:"version"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
