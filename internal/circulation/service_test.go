package circulation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/pkg/pagination"
)

var testPolicy = Policy{LoanPeriodDays: 14, MaxRenewals: 2, FinePerDayCents: 50}

func TestPolicy_FineFor(t *testing.T) {
	due := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		returnedAt time.Time
		expected   int
	}{
		{"early", due.Add(-48 * time.Hour), 0},
		{"exactly_on_due", due, 0},
		{"one_hour_late", due.Add(time.Hour), 50},
		{"exactly_one_day", due.Add(24 * time.Hour), 50},
		{"one_day_and_a_second", due.Add(24*time.Hour + time.Second), 100},
		{"three_days", due.Add(72 * time.Hour), 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, testPolicy.FineFor(due, tt.returnedAt))
		})
	}
}

// fakeStock mirrors the two inventory counters on catalog.book.
type fakeStock struct {
	total     int
	available int
}

// fakeLoanRepo mirrors the transactional store, including the inventory
// moves: borrow takes a copy off the shelf, return puts it back (capped at
// the owned total), lost shrinks the owned total.
type fakeLoanRepo struct {
	loans map[string]*Borrowing
	books map[string]*fakeStock
	users map[string]bool
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{
		loans: map[string]*Borrowing{},
		books: map[string]*fakeStock{},
		users: map[string]bool{},
	}
}

func (r *fakeLoanRepo) addBook(id string, copies int) {
	r.books[id] = &fakeStock{total: copies, available: copies}
}

func (r *fakeLoanRepo) CreateLoan(_ context.Context, loan *Borrowing) error {
	if !r.users[loan.UserID] {
		return apperr.NotFound("User")
	}
	stock, ok := r.books[loan.BookID]
	if !ok {
		return apperr.NotFound("Book")
	}
	for _, existing := range r.loans {
		if existing.UserID == loan.UserID && existing.BookID == loan.BookID && existing.Status == StatusActive {
			return apperr.Conflict("You already have this book on loan")
		}
	}
	if stock.available == 0 {
		return apperr.Unavailable("All copies of this book are currently on loan")
	}
	stock.available--

	clone := *loan
	r.loans[loan.ID] = &clone
	return nil
}

func (r *fakeLoanRepo) GetLoan(_ context.Context, id string) (*Borrowing, error) {
	loan, ok := r.loans[id]
	if !ok {
		return nil, apperr.NotFound("Loan")
	}
	clone := *loan
	return &clone, nil
}

func (r *fakeLoanRepo) CompleteLoan(_ context.Context, loanID string, returnedAt time.Time, fineCents int) (*Borrowing, error) {
	loan, ok := r.loans[loanID]
	if !ok || loan.Status != StatusActive {
		return nil, apperr.InvalidState("Loan is no longer active")
	}
	loan.Status = StatusReturned
	loan.ReturnedAt = &returnedAt
	loan.FineCents = fineCents
	loan.UpdatedAt = returnedAt

	if stock, ok := r.books[loan.BookID]; ok {
		stock.available = min(stock.total, stock.available+1)
	}

	clone := *loan
	return &clone, nil
}

func (r *fakeLoanRepo) Renew(_ context.Context, loanID string, newDueDate, renewedAt time.Time) (*Borrowing, error) {
	loan, ok := r.loans[loanID]
	if !ok || loan.Status != StatusActive {
		return nil, apperr.InvalidState("Only active loans can be renewed")
	}
	loan.DueDate = newDueDate
	loan.RenewedCount++
	loan.LastRenewedAt = &renewedAt
	loan.UpdatedAt = renewedAt
	clone := *loan
	return &clone, nil
}

func (r *fakeLoanRepo) MarkLost(_ context.Context, loanID string, lostAt time.Time) (*Borrowing, error) {
	loan, ok := r.loans[loanID]
	if !ok || loan.Status != StatusActive {
		return nil, apperr.InvalidState("Only active loans can be marked lost")
	}
	loan.Status = StatusLost
	loan.UpdatedAt = lostAt

	// The lost copy was already off the shelf, so only the owned total moves.
	if stock, ok := r.books[loan.BookID]; ok {
		stock.total = max(0, stock.total-1)
	}

	clone := *loan
	return &clone, nil
}

func (r *fakeLoanRepo) ListLoans(_ context.Context, f Filter, _ pagination.Params) ([]*Borrowing, int, error) {
	var out []*Borrowing
	for _, loan := range r.loans {
		if f.UserID != "" && loan.UserID != f.UserID {
			continue
		}
		if f.Status != "" && loan.Status != f.Status {
			continue
		}
		clone := *loan
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *fakeLoanRepo) ListOverdue(_ context.Context, now time.Time, _ pagination.Params) ([]*Borrowing, int, error) {
	var out []*Borrowing
	for _, loan := range r.loans {
		if loan.IsOverdue(now) {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, len(out), nil
}

type circFixture struct {
	service *Service
	repo    *fakeLoanRepo
	clock   *time.Time
}

func newCircFixture(t *testing.T) *circFixture {
	t.Helper()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fixture := &circFixture{repo: newFakeLoanRepo(), clock: &start}

	fixture.repo.users["user-1"] = true
	fixture.repo.users["user-2"] = true
	fixture.repo.addBook(testBookID, 3)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixture.service = NewService(fixture.repo, testPolicy, logger)
	fixture.service.now = func() time.Time { return *fixture.clock }

	return fixture
}

func member(userID string) *sec.Principal {
	return &sec.Principal{UserID: userID, Role: sec.RoleMember}
}

const testBookID = "0190b40f-92a3-7aaf-8c3e-2f46a85e1d4b"

func TestService_Borrow(t *testing.T) {
	fixture := newCircFixture(t)

	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, loan.Status)
	assert.Equal(t, *fixture.clock, loan.BorrowedAt)
	assert.Equal(t, fixture.clock.AddDate(0, 0, testPolicy.LoanPeriodDays), loan.DueDate)
	assert.Zero(t, loan.RenewedCount)
	assert.Equal(t, 2, fixture.repo.books[testBookID].available)

	t.Run("duplicate_active_loan_conflicts", func(t *testing.T) {
		_, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})

	t.Run("invalid_book_id_rejected", func(t *testing.T) {
		_, err := fixture.service.Borrow(context.Background(), "user-1", "not-a-uuid")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_user_not_found", func(t *testing.T) {
		_, err := fixture.service.Borrow(context.Background(), "user-9", testBookID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestService_Borrow_StockRoundTrip(t *testing.T) {
	fixture := newCircFixture(t)

	const lastCopyID = "0190b40f-92a3-7aaf-8c3e-2f46a85e1d4c"
	fixture.repo.addBook(lastCopyID, 1)

	loan, err := fixture.service.Borrow(context.Background(), "user-1", lastCopyID)
	require.NoError(t, err)
	assert.Zero(t, fixture.repo.books[lastCopyID].available)

	t.Run("exhausted_shelf_rejects", func(t *testing.T) {
		_, err := fixture.service.Borrow(context.Background(), "user-2", lastCopyID)
		require.Error(t, err)
		assert.Equal(t, "UNAVAILABLE", apperr.As(err).Code)
	})

	t.Run("return_restores_exactly_one_copy", func(t *testing.T) {
		_, err := fixture.service.Return(context.Background(), member("user-1"), loan.ID)
		require.NoError(t, err)

		stock := fixture.repo.books[lastCopyID]
		assert.Equal(t, 1, stock.available)
		assert.Equal(t, 1, stock.total)

		// The shelf is usable again.
		_, err = fixture.service.Borrow(context.Background(), "user-2", lastCopyID)
		assert.NoError(t, err)
	})
}

func TestService_Renew(t *testing.T) {
	fixture := newCircFixture(t)
	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	t.Run("extends_from_due_date", func(t *testing.T) {
		// A week passes before the renewal; the new due date still counts
		// from the original due date, not from today.
		*fixture.clock = fixture.clock.AddDate(0, 0, 7)

		renewed, err := fixture.service.Renew(context.Background(), member("user-1"), loan.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.DueDate.AddDate(0, 0, testPolicy.LoanPeriodDays), renewed.DueDate)
		assert.Equal(t, 1, renewed.RenewedCount)
	})

	t.Run("renewal_cap", func(t *testing.T) {
		_, err := fixture.service.Renew(context.Background(), member("user-1"), loan.ID)
		require.NoError(t, err)

		_, err = fixture.service.Renew(context.Background(), member("user-1"), loan.ID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", apperr.As(err).Code)
	})

	t.Run("hidden_from_other_members", func(t *testing.T) {
		_, err := fixture.service.Renew(context.Background(), member("user-2"), loan.ID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestService_Renew_OverdueStillActive(t *testing.T) {
	fixture := newCircFixture(t)
	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	// One hour past due. The stored status is still active, so the loan
	// renews like any other; the new due date counts from the blown one.
	*fixture.clock = loan.DueDate.Add(time.Hour)

	renewed, err := fixture.service.Renew(context.Background(), member("user-1"), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.DueDate.AddDate(0, 0, testPolicy.LoanPeriodDays), renewed.DueDate)
	assert.Equal(t, 1, renewed.RenewedCount)

	// With the due date back in the future the fine stops accruing.
	assert.False(t, renewed.Overdue)
	assert.Zero(t, renewed.AccruedFineCents)
}

func TestService_Return(t *testing.T) {
	fixture := newCircFixture(t)
	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	// Two started days late: one full day plus an hour.
	*fixture.clock = loan.DueDate.Add(25 * time.Hour)

	settled, err := fixture.service.Return(context.Background(), member("user-1"), loan.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusReturned, settled.Status)
	require.NotNil(t, settled.ReturnedAt)
	assert.Equal(t, 2*testPolicy.FinePerDayCents, settled.FineCents)
	// Settled loans carry no read-time projection.
	assert.False(t, settled.Overdue)
	assert.Zero(t, settled.AccruedFineCents)

	t.Run("already_returned", func(t *testing.T) {
		_, err := fixture.service.Return(context.Background(), member("user-1"), loan.ID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", apperr.As(err).Code)
	})
}

func TestService_MarkLost(t *testing.T) {
	fixture := newCircFixture(t)
	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	lost, err := fixture.service.MarkLost(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusLost, lost.Status)

	// The copy leaves the owned stock; the shelf count was already down.
	stock := fixture.repo.books[testBookID]
	assert.Equal(t, 2, stock.total)
	assert.Equal(t, 2, stock.available)

	t.Run("terminal", func(t *testing.T) {
		_, err := fixture.service.MarkLost(context.Background(), loan.ID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", apperr.As(err).Code)

		_, err = fixture.service.Return(context.Background(), member("user-1"), loan.ID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", apperr.As(err).Code)
	})
}

func TestService_MarkLost_ReturnAfterShrinkStaysCapped(t *testing.T) {
	fixture := newCircFixture(t)

	const bookID = "0190b40f-92a3-7aaf-8c3e-2f46a85e1d4d"
	fixture.repo.addBook(bookID, 2)

	first, err := fixture.service.Borrow(context.Background(), "user-1", bookID)
	require.NoError(t, err)
	second, err := fixture.service.Borrow(context.Background(), "user-2", bookID)
	require.NoError(t, err)

	_, err = fixture.service.MarkLost(context.Background(), first.ID)
	require.NoError(t, err)

	_, err = fixture.service.Return(context.Background(), member("user-2"), second.ID)
	require.NoError(t, err)

	// One copy lost, one back on the shelf; the shelf count never exceeds
	// the shrunk total.
	stock := fixture.repo.books[bookID]
	assert.Equal(t, 1, stock.total)
	assert.Equal(t, 1, stock.available)
}

func TestService_Get_DerivesOverdueProjection(t *testing.T) {
	fixture := newCircFixture(t)
	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	*fixture.clock = loan.DueDate.Add(49 * time.Hour) // three started days

	got, err := fixture.service.Get(context.Background(), member("user-1"), loan.ID)
	require.NoError(t, err)
	assert.True(t, got.Overdue)
	assert.Equal(t, 3*testPolicy.FinePerDayCents, got.AccruedFineCents)

	// Staff see other members' loans.
	staff := &sec.Principal{UserID: "staff-1", Role: sec.RoleLibrarian}
	_, err = fixture.service.Get(context.Background(), staff, loan.ID)
	assert.NoError(t, err)
}

func TestService_ListOverdue(t *testing.T) {
	fixture := newCircFixture(t)
	loan, err := fixture.service.Borrow(context.Background(), "user-1", testBookID)
	require.NoError(t, err)

	page := pagination.Params{Page: 1, Limit: 20}

	loans, meta, err := fixture.service.ListOverdue(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, loans)
	assert.Zero(t, meta.Total)

	*fixture.clock = loan.DueDate.Add(time.Hour)

	loans, meta, err = fixture.service.ListOverdue(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, 1, meta.Total)
	assert.True(t, loans[0].Overdue)
	assert.Equal(t, testPolicy.FinePerDayCents, loans[0].AccruedFineCents)
}
