// Package api defines the request and response messages of the Splitflow RPC services.
//
// Messages are plain structs exchanged as JSON by the handlers and clients in
// package apiconnect. Timestamps are Unix seconds and money is a float64 in
// the group's single currency.
package api

// Member is a group member as shown to clients.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	IsAdmin     bool   `json:"is_admin,omitempty"`
}

// Group is a group with its resolved members.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedBy   string    `json:"created_by"`
	Members     []*Member `json:"members"`
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
}

// GroupSummary is a group as listed for the caller.
type GroupSummary struct {
	Group        *Group  `json:"group"`
	ExpenseCount int     `json:"expense_count"`
	TotalSpent   float64 `json:"total_spent"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*GroupSummary `json:"groups"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

// MemberBalance is one member's aggregated position in a group.
// Net is positive when the member is owed money.
type MemberBalance struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Paid        float64 `json:"paid"`
	Owed        float64 `json:"owed"`
	Net         float64 `json:"net"`
}

// Transfer is a payment that would settle part of the group's debts.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	GroupID  string           `json:"group_id"`
	Balances []*MemberBalance `json:"balances"`

	// DebtMatrix[a][b] is what a owes b, for every pair of distinct members.
	DebtMatrix map[string]map[string]float64 `json:"debt_matrix"`

	SuggestedTransfers []*Transfer `json:"suggested_transfers"`
}

// Split is one participant's share of an expense.
type Split struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name,omitempty"`
	Amount      float64 `json:"amount"`
	Settled     bool    `json:"settled"`
}

type Expense struct {
	ID          string   `json:"id"`
	GroupID     string   `json:"group_id"`
	PaidBy      string   `json:"paid_by"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    string   `json:"category,omitempty"`
	CreatedAt   int64    `json:"created_at"`
	Splits      []*Split `json:"splits"`
}

// ComputeSplitRequest previews an allocation without storing anything.
// Strategy is "equal" (default) or "ratio". When PayerID is set the payer is
// validated and a settled zero row is added if they have no share.
type ComputeSplitRequest struct {
	Amount         float64            `json:"amount"`
	Strategy       string             `json:"strategy,omitempty"`
	ParticipantIDs []string           `json:"participant_ids"`
	Weights        map[string]float64 `json:"weights,omitempty"`
	PayerID        string             `json:"payer_id,omitempty"`
}

type ComputeSplitResponse struct {
	Splits []*Split `json:"splits"`
}

type CreateExpenseRequest struct {
	GroupID        string             `json:"group_id"`
	Description    string             `json:"description"`
	Amount         float64            `json:"amount"`
	Category       string             `json:"category,omitempty"`
	Strategy       string             `json:"strategy,omitempty"`
	ParticipantIDs []string           `json:"participant_ids"`
	Weights        map[string]float64 `json:"weights,omitempty"`

	// PayerID defaults to the caller.
	PayerID string `json:"payer_id,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListGroupExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListGroupExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type ListExpensesRequest struct{}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// Counterparty is the net amount between the caller and one other user.
// Positive means they owe the caller.
type Counterparty struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Amount      float64 `json:"amount"`
}

type CategorySpend struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type GetSummaryRequest struct{}

type GetSummaryResponse struct {
	TotalOwed        float64          `json:"total_owed"`
	TotalOwing       float64          `json:"total_owing"`
	Net              float64          `json:"net"`
	Counterparties   []*Counterparty  `json:"counterparties"`
	CategorySpending []*CategorySpend `json:"category_spending"`
}
