package user

const RoleAdmin = "admin"

// Principal is the authenticated operator identity attached to a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
