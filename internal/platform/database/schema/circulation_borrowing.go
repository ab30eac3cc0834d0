package schema

// CirculationBorrowingTable represents the 'circulation.borrowing' table
type CirculationBorrowingTable struct {
	Table         string
	ID            string
	UserID        string
	BookID        string
	Status        string
	BorrowedAt    string
	DueDate       string
	ReturnedAt    string
	RenewedCount  string
	LastRenewedAt string
	FineCents     string
	CreatedAt     string
	UpdatedAt     string
}

// CirculationBorrowing is the schema definition for circulation.borrowing
var CirculationBorrowing = CirculationBorrowingTable{
	Table:         "circulation.borrowing",
	ID:            "id",
	UserID:        "userid",
	BookID:        "bookid",
	Status:        "status",
	BorrowedAt:    "borrowedat",
	DueDate:       "duedate",
	ReturnedAt:    "returnedat",
	RenewedCount:  "renewedcount",
	LastRenewedAt: "lastrenewedat",
	FineCents:     "finecents",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
}

func (t CirculationBorrowingTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.BookID, t.Status, t.BorrowedAt, t.DueDate, t.ReturnedAt,
		t.RenewedCount, t.LastRenewedAt, t.FineCents, t.CreatedAt, t.UpdatedAt,
	}
}
