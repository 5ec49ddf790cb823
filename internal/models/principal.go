package models

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID int64
	Role   string
	Email  string
	Name   string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// IsStaff covers roles that handle support feedback.
func (p Principal) IsStaff() bool { return p.Role == RoleAdmin || p.Role == RoleVendor }

// CanManageProduct reports whether the caller may edit the vendor's product.
func (p Principal) CanManageProduct(vendorID int64) bool {
	return p.IsAdmin() || (p.Role == RoleVendor && p.UserID == vendorID)
}
