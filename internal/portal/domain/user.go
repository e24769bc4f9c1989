package domain

// User is the identity the payslip API reports for a session.
type User struct {
	ID    int
	Name  string
	Email string
	Role  string
}
