package models

import "github.com/golang-jwt/jwt/v5"

const (
	RoleCustomer = "customer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

const (
	PermissionAccountRead   = "account:read"
	PermissionAccountWrite  = "account:write"
	PermissionAccountManage = "account:manage"
	PermissionWalletRead    = "wallet:read"
	PermissionTransferRead  = "transfer:read"
	PermissionTransferWrite = "transfer:write"
)

// UserClaims is the JWT payload accepted by the API.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns the permissions granted to a role when a
// token carries none.
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin, RoleOperator:
		return []string{
			PermissionAccountRead,
			PermissionAccountWrite,
			PermissionAccountManage,
			PermissionWalletRead,
			PermissionTransferRead,
			PermissionTransferWrite,
		}
	case RoleCustomer:
		return []string{
			PermissionAccountRead,
			PermissionAccountWrite,
			PermissionWalletRead,
			PermissionTransferRead,
			PermissionTransferWrite,
		}
	default:
		return []string{}
	}
}
