package models

import "time"

// Student links a user account to its academic profile. Every student is
// owned by exactly one parent; the parent reference is what gates the
// parent approval track.
type Student struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	RollNumber string    `db:"roll_number" json:"roll_number"`
	ParentID   string    `db:"parent_id" json:"parent_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Faculty is the approver profile named on leave applications.
type Faculty struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	EmployeeID  string    `db:"employee_id" json:"employee_id"`
	Department  string    `db:"department" json:"department"`
	Designation string    `db:"designation" json:"designation"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Parent owns zero or more students and co-approves their leave.
type Parent struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActorProfile resolves an authenticated user to the domain entity it
// owns: the student/faculty/parent row keyed by the user account. Admins
// carry no subject id.
type ActorProfile struct {
	UserID    string   `db:"user_id" json:"user_id"`
	Role      UserRole `db:"role" json:"role"`
	SubjectID string   `db:"subject_id" json:"subject_id"`
}
