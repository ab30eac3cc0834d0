package circulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/database/schema"
	"github.com/taibuivan/libria/internal/platform/dberr"
	"github.com/taibuivan/libria/pkg/pagination"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func loanColumns() string {
	t := schema.CirculationBorrowing
	return strings.Join([]string{
		t.ID, t.UserID, t.BookID, t.Status, t.BorrowedAt, t.DueDate, t.ReturnedAt,
		t.RenewedCount, t.LastRenewedAt, t.FineCents, t.CreatedAt, t.UpdatedAt,
	}, ", ")
}

// CreateLoan implements [Repository]. All four steps run in one transaction;
// the conditional inventory UPDATE is the serialization point, so two
// borrowers racing for the last copy can never both win.
func (repository *PostgresRepository) CreateLoan(context context.Context, loan *Borrowing) error {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_borrow_tx")
	}
	defer tx.Rollback(context)

	t := schema.CirculationBorrowing

	// 1. One active loan per title per user.
	var existing int
	dupQuery := fmt.Sprintf(
		`SELECT count(*) FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		t.Table, t.UserID, t.BookID, t.Status,
	)
	if err := tx.QueryRow(context, dupQuery, loan.UserID, loan.BookID, StatusActive).Scan(&existing); err != nil {
		return dberr.Wrap(err, "check_active_loan")
	}
	if existing > 0 {
		return apperr.Conflict("You already have this book on loan")
	}

	// 2. Take one copy off the shelf, only if one is there.
	b := schema.CatalogBook
	stockQuery := fmt.Sprintf(
		`UPDATE %s SET %s = %s - 1 WHERE %s = $1 AND %s IS NULL AND %s > 0`,
		b.Table, b.AvailableCopies, b.AvailableCopies, b.ID, b.DeletedAt, b.AvailableCopies,
	)
	cmd, err := tx.Exec(context, stockQuery, loan.BookID)
	if err != nil {
		return dberr.Wrap(err, "decrement_stock")
	}
	if cmd.RowsAffected() == 0 {
		// Either the book does not exist or every copy is out.
		var exists bool
		existsQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1 AND %s IS NULL)`, b.Table, b.ID, b.DeletedAt)
		if err := tx.QueryRow(context, existsQuery, loan.BookID).Scan(&exists); err != nil {
			return dberr.Wrap(err, "check_book_exists")
		}
		if !exists {
			return apperr.NotFound("Book")
		}
		return apperr.Unavailable("All copies of this book are currently on loan")
	}

	// 3. Borrower counters. Zero rows means the user id points nowhere;
	// catching it here keeps a dangling id from surfacing as the loan
	// insert's foreign-key violation.
	counterQuery := `
		UPDATE users.account
		SET totalborrowed = totalborrowed + 1,
		    currentloans = currentloans + 1,
		    updatedat = now()
		WHERE id = $1`
	cmd, err = tx.Exec(context, counterQuery, loan.UserID)
	if err != nil {
		return dberr.Wrap(err, "update_borrow_counters")
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	// 4. The loan row itself.
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7, $8)
	`,
		t.Table, t.ID, t.UserID, t.BookID, t.Status, t.BorrowedAt, t.DueDate,
		t.RenewedCount, t.FineCents, t.CreatedAt, t.UpdatedAt,
	)
	if _, err := tx.Exec(context, insertQuery,
		loan.ID, loan.UserID, loan.BookID, loan.Status,
		loan.BorrowedAt, loan.DueDate, loan.CreatedAt, loan.UpdatedAt,
	); err != nil {
		return dberr.Wrap(err, "insert_loan")
	}

	if err := tx.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_borrow_tx")
	}
	return nil
}

// CompleteLoan implements [Repository]. The status predicate on the first
// UPDATE makes the whole settlement idempotent-safe: a second concurrent
// return finds zero rows and fails without touching inventory or fines.
func (repository *PostgresRepository) CompleteLoan(context context.Context, loanID string, returnedAt time.Time, fineCents int) (*Borrowing, error) {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_return_tx")
	}
	defer tx.Rollback(context)

	t := schema.CirculationBorrowing

	// 1. Flip the loan, only while it is still active.
	settleQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = now()
		WHERE %s = $1 AND %s = $5
		RETURNING %s
	`,
		t.Table, t.Status, t.ReturnedAt, t.FineCents, t.UpdatedAt,
		t.ID, t.Status,
		loanColumns(),
	)
	loan, err := scanLoan(tx.QueryRow(context, settleQuery, loanID, StatusReturned, returnedAt, fineCents, StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.InvalidState("Loan is no longer active")
		}
		return nil, dberr.Wrap(err, "settle_loan")
	}

	// 2. The copy goes back on the shelf. LEAST guards against the shelf
	// count ever exceeding the owned total after a stock shrink.
	b := schema.CatalogBook
	stockQuery := fmt.Sprintf(
		`UPDATE %s SET %s = LEAST(%s, %s + 1) WHERE %s = $1`,
		b.Table, b.AvailableCopies, b.TotalCopies, b.AvailableCopies, b.ID,
	)
	if _, err := tx.Exec(context, stockQuery, loan.BookID); err != nil {
		return nil, dberr.Wrap(err, "increment_stock")
	}

	// 3. Borrower counters and fines.
	counterQuery := `
		UPDATE users.account
		SET currentloans = GREATEST(0, currentloans - 1),
		    totalfinecents = totalfinecents + $2,
		    owedfinecents = owedfinecents + $2,
		    updatedat = now()
		WHERE id = $1`
	if _, err := tx.Exec(context, counterQuery, loan.UserID, fineCents); err != nil {
		return nil, dberr.Wrap(err, "update_return_counters")
	}

	if err := tx.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "commit_return_tx")
	}
	return loan, nil
}

// MarkLost implements [Repository]. The owned total shrinks by one while the
// shelf count stays put: the lost copy was already off the shelf, so the
// available <= total invariant holds throughout.
func (repository *PostgresRepository) MarkLost(context context.Context, loanID string, lostAt time.Time) (*Borrowing, error) {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_lost_tx")
	}
	defer tx.Rollback(context)

	t := schema.CirculationBorrowing

	closeQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = now()
		WHERE %s = $1 AND %s = $3
		RETURNING %s
	`,
		t.Table, t.Status, t.UpdatedAt,
		t.ID, t.Status,
		loanColumns(),
	)
	loan, err := scanLoan(tx.QueryRow(context, closeQuery, loanID, StatusLost, StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.InvalidState("Only active loans can be marked lost")
		}
		return nil, dberr.Wrap(err, "mark_loan_lost")
	}

	b := schema.CatalogBook
	stockQuery := fmt.Sprintf(
		`UPDATE %s SET %s = GREATEST(0, %s - 1), %s = now() WHERE %s = $1`,
		b.Table, b.TotalCopies, b.TotalCopies, b.UpdatedAt, b.ID,
	)
	if _, err := tx.Exec(context, stockQuery, loan.BookID); err != nil {
		return nil, dberr.Wrap(err, "shrink_stock_lost")
	}

	counterQuery := `
		UPDATE users.account
		SET currentloans = GREATEST(0, currentloans - 1),
		    updatedat = now()
		WHERE id = $1`
	if _, err := tx.Exec(context, counterQuery, loan.UserID); err != nil {
		return nil, dberr.Wrap(err, "update_lost_counters")
	}

	if err := tx.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "commit_lost_tx")
	}
	return loan, nil
}

// Renew implements [Repository].
func (repository *PostgresRepository) Renew(context context.Context, loanID string, newDueDate, renewedAt time.Time) (*Borrowing, error) {
	t := schema.CirculationBorrowing
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = %s + 1, %s = $3, %s = now()
		WHERE %s = $1 AND %s = $4
		RETURNING %s
	`,
		t.Table, t.DueDate, t.RenewedCount, t.RenewedCount, t.LastRenewedAt, t.UpdatedAt,
		t.ID, t.Status,
		loanColumns(),
	)

	loan, err := scanLoan(repository.db.QueryRow(context, query, loanID, newDueDate, renewedAt, StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.InvalidState("Only active loans can be renewed")
		}
		return nil, dberr.Wrap(err, "renew_loan")
	}
	return loan, nil
}

// GetLoan implements [Repository].
func (repository *PostgresRepository) GetLoan(context context.Context, id string) (*Borrowing, error) {
	t := schema.CirculationBorrowing
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, loanColumns(), t.Table, t.ID)

	loan, err := scanLoan(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_loan")
	}
	return loan, nil
}

// ListLoans implements [Repository].
func (repository *PostgresRepository) ListLoans(context context.Context, f Filter, page pagination.Params) ([]*Borrowing, int, error) {
	t := schema.CirculationBorrowing

	conditions := []string{"TRUE"}
	args := []any{}

	if f.UserID != "" {
		args = append(args, f.UserID)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", t.UserID, len(args)))
	}
	if f.BookID != "" {
		args = append(args, f.BookID)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", t.BookID, len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", t.Status, len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, t.Table, where)
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_loans")
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d
	`, loanColumns(), t.Table, where, t.BorrowedAt, len(args)-1, len(args))

	return repository.queryLoans(context, query, args, total)
}

// ListOverdue implements [Repository].
func (repository *PostgresRepository) ListOverdue(context context.Context, now time.Time, page pagination.Params) ([]*Borrowing, int, error) {
	t := schema.CirculationBorrowing

	where := fmt.Sprintf("%s = $1 AND %s < $2", t.Status, t.DueDate)
	args := []any{StatusActive, now}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, t.Table, where)
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_overdue")
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s ASC
		LIMIT $%d OFFSET $%d
	`, loanColumns(), t.Table, where, t.DueDate, len(args)-1, len(args))

	return repository.queryLoans(context, query, args, total)
}

func (repository *PostgresRepository) queryLoans(context context.Context, query string, args []any, total int) ([]*Borrowing, int, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_loans")
	}
	defer rows.Close()

	var loans []*Borrowing
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_loan")
		}
		loans = append(loans, loan)
	}

	return loans, total, nil
}

func scanLoan(row pgx.Row) (*Borrowing, error) {
	loan := &Borrowing{}
	err := row.Scan(
		&loan.ID, &loan.UserID, &loan.BookID, &loan.Status, &loan.BorrowedAt, &loan.DueDate,
		&loan.ReturnedAt, &loan.RenewedCount, &loan.LastRenewedAt, &loan.FineCents,
		&loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return loan, nil
}
