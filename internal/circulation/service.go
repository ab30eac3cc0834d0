package circulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/internal/platform/validate"
	"github.com/taibuivan/libria/pkg/pagination"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

type Service struct {
	repo   Repository
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, policy Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Borrow opens a loan of one copy of a book for a user.
//
// The storage layer enforces the hard rules atomically: one active loan per
// title per user, and no loan when the shelf is empty.
func (service *Service) Borrow(context context.Context, userID, bookID string) (*Borrowing, error) {
	validator := &validate.Validator{}
	validator.Required(FieldBookID, bookID).UUID(FieldBookID, bookID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := service.now().UTC()
	loan := &Borrowing{
		ID:         uuidv7.New(),
		UserID:     userID,
		BookID:     bookID,
		Status:     StatusActive,
		BorrowedAt: now,
		DueDate:    now.AddDate(0, 0, service.policy.LoanPeriodDays),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := service.repo.CreateLoan(context, loan); err != nil {
		return nil, err
	}

	service.logger.Info("loan_opened",
		slog.String("loan_id", loan.ID),
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
		slog.Time("due_date", loan.DueDate),
	)
	return loan, nil
}

// Renew pushes an active loan's due date out by one more loan period,
// counted from the current due date rather than from today. A loan past its
// due date is still active and renews like any other; the fine stops
// accruing once the new due date lands in the future.
func (service *Service) Renew(context context.Context, actor *sec.Principal, loanID string) (*Borrowing, error) {
	loan, err := service.getOwned(context, actor, loanID)
	if err != nil {
		return nil, err
	}

	now := service.now().UTC()
	if loan.Status != StatusActive {
		return nil, apperr.InvalidState("Only active loans can be renewed")
	}
	if loan.RenewedCount >= service.policy.MaxRenewals {
		return nil, apperr.InvalidState(fmt.Sprintf("Loan has reached the maximum of %d renewals", service.policy.MaxRenewals))
	}

	newDue := loan.DueDate.AddDate(0, 0, service.policy.LoanPeriodDays)
	renewed, err := service.repo.Renew(context, loanID, newDue, now)
	if err != nil {
		return nil, err
	}

	service.logger.Info("loan_renewed",
		slog.String("loan_id", loanID),
		slog.Int("renewed_count", renewed.RenewedCount),
		slog.Time("due_date", renewed.DueDate),
	)
	return service.derive(renewed), nil
}

// Return settles a loan: the copy goes back on the shelf and any late fine
// is booked against the borrower. Returning a settled loan fails.
func (service *Service) Return(context context.Context, actor *sec.Principal, loanID string) (*Borrowing, error) {
	loan, err := service.getOwned(context, actor, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != StatusActive {
		return nil, apperr.InvalidState("Loan is no longer active")
	}

	now := service.now().UTC()
	fine := service.policy.FineFor(loan.DueDate, now)

	settled, err := service.repo.CompleteLoan(context, loanID, now, fine)
	if err != nil {
		return nil, err
	}

	service.logger.Info("loan_returned",
		slog.String("loan_id", loanID),
		slog.String("user_id", settled.UserID),
		slog.Int("fine_cents", fine),
	)
	return service.derive(settled), nil
}

// MarkLost closes an active loan as lost. Staff only; the route enforces
// the role, so no ownership check runs here.
func (service *Service) MarkLost(context context.Context, loanID string) (*Borrowing, error) {
	if !uuidv7.IsValid(loanID) {
		return nil, apperr.NotFound("Loan")
	}

	loan, err := service.repo.GetLoan(context, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != StatusActive {
		return nil, apperr.InvalidState("Only active loans can be marked lost")
	}

	lost, err := service.repo.MarkLost(context, loanID, service.now().UTC())
	if err != nil {
		return nil, err
	}

	service.logger.Warn("loan_marked_lost",
		slog.String("loan_id", loanID),
		slog.String("user_id", lost.UserID),
		slog.String("book_id", lost.BookID),
	)
	return lost, nil
}

// Get returns one loan, visible to its owner and to staff.
func (service *Service) Get(context context.Context, actor *sec.Principal, loanID string) (*Borrowing, error) {
	loan, err := service.getOwned(context, actor, loanID)
	if err != nil {
		return nil, err
	}
	return service.derive(loan), nil
}

// ListForUser returns a page of one user's loans.
func (service *Service) ListForUser(context context.Context, userID string, status string, page pagination.Params) ([]*Borrowing, pagination.Meta, error) {
	if status != "" {
		validator := &validate.Validator{}
		validator.OneOf(FieldStatus, status, StatusActive, StatusReturned, StatusLost)
		if err := validator.Err(); err != nil {
			return nil, pagination.Meta{}, err
		}
	}

	loans, total, err := service.repo.ListLoans(context, Filter{UserID: userID, Status: status}, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	for _, loan := range loans {
		service.derive(loan)
	}
	return loans, pagination.NewMeta(page.Page, page.Limit, total), nil
}

// ListOverdue returns the page of loans past due right now, for staff.
func (service *Service) ListOverdue(context context.Context, page pagination.Params) ([]*Borrowing, pagination.Meta, error) {
	now := service.now().UTC()
	loans, total, err := service.repo.ListOverdue(context, now, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	for _, loan := range loans {
		service.derive(loan)
	}
	return loans, pagination.NewMeta(page.Page, page.Limit, total), nil
}

// getOwned fetches a loan and enforces that the actor owns it or is staff.
func (service *Service) getOwned(context context.Context, actor *sec.Principal, loanID string) (*Borrowing, error) {
	if !uuidv7.IsValid(loanID) {
		return nil, apperr.NotFound("Loan")
	}

	loan, err := service.repo.GetLoan(context, loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != actor.UserID && !actor.Role.AtLeast(sec.RoleLibrarian) {
		// Hide the loan's existence from other members.
		return nil, apperr.NotFound("Loan")
	}
	return loan, nil
}

// derive fills the read-time projections: the overdue flag and the fine the
// loan would cost if returned right now.
func (service *Service) derive(loan *Borrowing) *Borrowing {
	now := service.now().UTC()
	loan.Overdue = loan.IsOverdue(now)
	if loan.Overdue {
		loan.AccruedFineCents = service.policy.FineFor(loan.DueDate, now)
	}
	return loan
}
