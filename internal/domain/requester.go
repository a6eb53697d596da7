package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Requester is the authenticated caller as asserted by the external auth
// service's token.
type Requester struct {
	UserID string
	Role   string
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

func (r Requester) IsAuthenticated() bool {
	return r.UserID != ""
}
