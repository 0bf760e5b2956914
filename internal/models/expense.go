package models

// Expense represents a single payment by one member on behalf of a group.
// Expenses are immutable once created.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group that owns this expense.
	GroupID string

	// PaidBy is the user ID of the member who paid.
	PaidBy string

	// Description is the human-readable label (e.g., "Dinner at Thalassa").
	Description string

	// Amount is the total paid. Always positive.
	Amount float64

	// Category is an optional label used for spending summaries.
	Category string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Splits are the per-participant shares. They sum to Amount within 0.01.
	Splits []Split
}

// Split is one participant's share of an expense.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// ExpenseID is the expense this split belongs to.
	ExpenseID string

	// UserID is the participant who owes this share.
	UserID string

	// Amount is the owed share. Never negative.
	Amount float64

	// Settled is true only for the payer's own row on a payer-only expense,
	// or the zero-amount row added when the payer has no share.
	Settled bool
}

// SplitFor returns the split belonging to userID, if any.
func (e *Expense) SplitFor(userID string) (Split, bool) {
	for _, s := range e.Splits {
		if s.UserID == userID {
			return s, true
		}
	}
	return Split{}, false
}
