package service

import (
	"sort"

	"github.com/mmynk/splitflow/internal/calculator"
	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/pkg/api"
)

func displayName(profiles map[string]*models.Profile, userID string) string {
	if name := profiles[userID].DisplayName(); name != "" {
		return name
	}
	return userID
}

func toAPIGroup(group *models.Group, profiles map[string]*models.Profile) *api.Group {
	ids := append([]string(nil), group.Members...)
	sort.Strings(ids)

	members := make([]*api.Member, len(ids))
	for i, id := range ids {
		m := &api.Member{
			UserID:      id,
			DisplayName: displayName(profiles, id),
			IsAdmin:     group.IsAdmin(id),
		}
		if p := profiles[id]; p != nil {
			m.Email = p.Email
		}
		members[i] = m
	}

	return &api.Group{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		Category:    group.Category,
		CreatedBy:   group.CreatedBy,
		Members:     members,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
}

func toAPIExpense(expense *models.Expense, profiles map[string]*models.Profile) *api.Expense {
	splits := make([]*api.Split, len(expense.Splits))
	for i, s := range expense.Splits {
		splits[i] = &api.Split{
			UserID:      s.UserID,
			DisplayName: displayName(profiles, s.UserID),
			Amount:      s.Amount,
			Settled:     s.Settled,
		}
	}
	return &api.Expense{
		ID:          expense.ID,
		GroupID:     expense.GroupID,
		PaidBy:      expense.PaidBy,
		Description: expense.Description,
		Amount:      expense.Amount,
		Category:    expense.Category,
		CreatedAt:   expense.CreatedAt,
		Splits:      splits,
	}
}

func toAPIExpenses(expenses []*models.Expense, profiles map[string]*models.Profile) []*api.Expense {
	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e, profiles)
	}
	return out
}

// expenseUserIDs lists the payers and participants of expenses, without repeats.
func expenseUserIDs(expenses []*models.Expense) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range expenses {
		add(e.PaidBy)
		for _, s := range e.Splits {
			add(s.UserID)
		}
	}
	return ids
}

func toBalanceInputs(expenses []*models.Expense) []calculator.ExpenseForBalance {
	out := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		splits := make([]calculator.SplitForBalance, len(e.Splits))
		for j, s := range e.Splits {
			splits[j] = calculator.SplitForBalance{ParticipantID: s.UserID, Amount: s.Amount}
		}
		out[i] = calculator.ExpenseForBalance{PayerID: e.PaidBy, Amount: e.Amount, Splits: splits}
	}
	return out
}

func toSpendingInputs(expenses []*models.Expense) []calculator.ExpenseForSpending {
	out := make([]calculator.ExpenseForSpending, len(expenses))
	for i, e := range expenses {
		splits := make([]calculator.SplitForBalance, len(e.Splits))
		for j, s := range e.Splits {
			splits[j] = calculator.SplitForBalance{ParticipantID: s.UserID, Amount: s.Amount}
		}
		out[i] = calculator.ExpenseForSpending{Category: e.Category, CreatedAt: e.CreatedAt, Splits: splits}
	}
	return out
}

func toAPISplits(rows []calculator.SplitShare) []*api.Split {
	out := make([]*api.Split, len(rows))
	for i, r := range rows {
		out[i] = &api.Split{UserID: r.ParticipantID, Amount: r.Amount, Settled: r.Settled}
	}
	return out
}
