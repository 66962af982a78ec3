package domain

import "time"

// User represents a registered account. StartingBalance is kept in whole
// currency units; reports convert it to cents when mixing it with expenses.
type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	StartingBalance int64
	CreatedAt       time.Time
}

// Category is a named expense grouping owned by a single user.
// Names are unique per user, not globally.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// Expense is a single spending record. CategoryID always references a
// category owned by the same user.
type Expense struct {
	ID          int64
	UserID      int64
	CategoryID  int64
	Description string
	Amount      Amount
	Date        Date
	CreatedAt   time.Time
}
