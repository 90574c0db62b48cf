package models

// Role is the signed-in user's role.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleSupervisor      Role = "supervisor"
	RoleSalesSupervisor Role = "salesSupervisor"
	RoleOperator        Role = "operator"
	RoleTicketSales     Role = "ticketSales"
)

// Elevated roles log in with a PIN; the others pick their name.
func (r Role) Elevated() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleSalesSupervisor:
		return true
	}
	return false
}

// Restricted roles only ever see their own roster row.
func (r Role) Restricted() bool {
	return r == RoleOperator || r == RoleTicketSales
}

func (r Role) Valid() bool {
	return r.Elevated() || r.Restricted()
}

// SessionState is the signed-in user and the view they were on.
type SessionState struct {
	Role     Role   `json:"role"`
	UserID   int    `json:"userId,omitempty"`
	UserName string `json:"userName"`
	View     string `json:"view,omitempty"`
}
