/*
Package circulation implements the loan lifecycle: borrow, renew, return,
and the fines that accrue when a loan runs past its due date.

Inventory movements and user counters are updated inside the same database
transaction as the loan row itself, so the shelf count, the loan, and the
borrower's statistics can never disagree.
*/
package circulation

import "time"

// Loan statuses. Returned and lost are terminal. Overdue is not a stored
// status — it is derived from the due date at read time, so a loan can never
// be "stuck" overdue after the clock or the due date changes.
const (
	StatusActive   = "active"
	StatusReturned = "returned"
	StatusLost     = "lost"
)

// Borrowing represents one loan of one copy of a book to one user.
type Borrowing struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	BookID        string     `json:"book_id"`
	Status        string     `json:"status"`
	BorrowedAt    time.Time  `json:"borrowed_at"`
	DueDate       time.Time  `json:"due_date"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	RenewedCount  int        `json:"renewed_count"`
	LastRenewedAt *time.Time `json:"last_renewed_at,omitempty"`
	// FineCents is the fine settled at return time. Zero while active.
	FineCents int       `json:"fine_cents"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Derived at read time, never stored.
	Overdue bool `json:"overdue"`
	// AccruedFineCents projects the fine an active overdue loan would cost
	// if returned right now. Zero for on-time and returned loans.
	AccruedFineCents int `json:"accrued_fine_cents"`
}

// IsOverdue reports whether the loan is active and past due at the given instant.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return b.Status == StatusActive && now.After(b.DueDate)
}

// Policy carries the lending rules, injected from configuration.
type Policy struct {
	LoanPeriodDays  int
	MaxRenewals     int
	FinePerDayCents int
}

// FineFor computes the fine for a loan returned at the given instant.
// Any started day past the due date counts as a full day.
func (p Policy) FineFor(dueDate, returnedAt time.Time) int {
	if !returnedAt.After(dueDate) {
		return 0
	}
	late := returnedAt.Sub(dueDate)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days * p.FinePerDayCents
}

// Filter narrows a loan listing.
type Filter struct {
	UserID string // Restrict to one borrower
	BookID string // Restrict to one title
	Status string // "active", "returned", or "lost"; empty means all
}

const (
	FieldBookID = "book_id"
	FieldStatus = "status"
)
