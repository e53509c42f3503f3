package domain

import "time"

// Agent is a staff member who owns a portfolio of clients and applications.
// It links back to the user account through UserID.
type Agent struct {
	ID        string
	UserID    string
	Name      string
	Email     string
	Phone     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
