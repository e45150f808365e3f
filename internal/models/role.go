package models

import "time"

// Reserved role ids seeded at database initialization. Both are protected:
// they cannot be updated or deleted through the API.
const (
	AdminRoleId   = "1"
	DefaultRoleId = "2"
)

// Role bundles a set of permissions. Users derive their effective permissions
// through the union of their roles.
type Role struct {
	Id          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Permission is an atomic capability grant. Permission rows are read-only
// reference data seeded at database initialization.
type Permission struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// Permission names enforced by the route guard.
const (
	PermCreateUser       = "CREATE_USER"
	PermReadUser         = "READ_USER"
	PermUpdateUser       = "UPDATE_USER"
	PermDeleteUser       = "DELETE_USER"
	PermCreateRole       = "CREATE_ROLE"
	PermReadRole         = "READ_ROLE"
	PermUpdateRole       = "UPDATE_ROLE"
	PermDeleteRole       = "DELETE_ROLE"
	PermReadPermission   = "READ_PERMISSION"
	PermCreateVessel     = "CREATE_VESSEL"
	PermReadVessel       = "READ_VESSEL"
	PermUpdateVessel     = "UPDATE_VESSEL"
	PermDeleteVessel     = "DELETE_VESSEL"
)
