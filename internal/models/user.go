package models

// Roles. Borrowers are listed in the directory but have no password and cannot log in.
const (
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
	RoleBorrower = "borrower"
)

// User is the single person reference used for borrowers, registering actors and returning staff.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
