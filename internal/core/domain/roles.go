package domain

// Role is a privileged capability granted to an account.
type Role string

const (
	// RoleAdmin may grant and revoke any role, including to itself.
	RoleAdmin Role = "ADMIN"
	// RoleOnboarding manages the merchant whitelist, per-merchant asset
	// whitelists and fee configuration.
	RoleOnboarding Role = "ONBOARDING"
	// RoleAssetManager manages the global asset whitelist.
	RoleAssetManager Role = "ASSET_MANAGER"
	// RoleTreasuryManager manages treasury wallets and fee sweeps.
	RoleTreasuryManager Role = "TREASURY_MANAGER"
	// RoleBackendOperator performs privileged settlement actions on
	// behalf of merchants: invoice creation, cancellation, refunds.
	RoleBackendOperator Role = "BACKEND_OPERATOR"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOnboarding, RoleAssetManager, RoleTreasuryManager, RoleBackendOperator:
		return true
	}
	return false
}
