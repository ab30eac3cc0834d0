package circulation

import (
	"context"
	"time"

	"github.com/taibuivan/libria/pkg/pagination"
)

// Repository is the persistence contract for loans.
//
// CreateLoan and CompleteLoan are transactional: they move the book's shelf
// count and the borrower's counters together with the loan row, and roll
// everything back on any failure.
type Repository interface {
	// CreateLoan opens a loan inside one transaction:
	//   1. rejects a second active loan of the same title by the same user,
	//   2. takes one copy off the shelf (fails when none are available),
	//   3. inserts the loan row,
	//   4. bumps the borrower's total and current loan counters.
	CreateLoan(context context.Context, loan *Borrowing) error

	// CompleteLoan settles a loan inside one transaction:
	//   1. flips the loan to returned (fails when it is not active),
	//   2. puts the copy back on the shelf, capped at the owned total,
	//   3. drops the borrower's current loan counter and books the fine.
	CompleteLoan(context context.Context, loanID string, returnedAt time.Time, fineCents int) (*Borrowing, error)

	// Renew extends an active loan's due date and bumps its renewal counter.
	Renew(context context.Context, loanID string, newDueDate, renewedAt time.Time) (*Borrowing, error)

	// MarkLost closes an active loan as lost inside one transaction:
	//   1. flips the loan to lost (fails when it is not active),
	//   2. removes the copy from the owned stock (the shelf count is untouched,
	//      the copy was already out),
	//   3. drops the borrower's current loan counter.
	MarkLost(context context.Context, loanID string, lostAt time.Time) (*Borrowing, error)

	// GetLoan retrieves one loan by id.
	GetLoan(context context.Context, id string) (*Borrowing, error)

	// ListLoans returns a page of loans matching the filter, newest first.
	ListLoans(context context.Context, f Filter, page pagination.Params) ([]*Borrowing, int, error)

	// ListOverdue returns the page of active loans past due at the given
	// instant, most overdue first.
	ListOverdue(context context.Context, now time.Time, page pagination.Params) ([]*Borrowing, int, error)
}
