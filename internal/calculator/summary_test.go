package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeMember(t *testing.T) {
	trip, err := ComputeBalances([]string{"A", "B", "C"}, []ExpenseForBalance{
		equalExpense(t, "A", 300, "A", "B", "C"),
	})
	require.NoError(t, err)

	home, err := ComputeBalances([]string{"A", "B"}, []ExpenseForBalance{
		equalExpense(t, "B", 80, "A", "B"),
	})
	require.NoError(t, err)

	t.Run("nets counterparties across groups", func(t *testing.T) {
		s := SummarizeMember("A", trip, home)
		// B owes A 100 on the trip, A owes B 40 at home
		assert.InDelta(t, 60, s.Counterparties["B"], 1e-9)
		assert.InDelta(t, 100, s.Counterparties["C"], 1e-9)
		assert.InDelta(t, 160, s.TotalOwed, 1e-9)
		assert.Zero(t, s.TotalOwing)
		assert.InDelta(t, 160, s.Net, 1e-9)
	})

	t.Run("debtor view", func(t *testing.T) {
		s := SummarizeMember("C", trip, home)
		assert.Zero(t, s.TotalOwed)
		assert.InDelta(t, 100, s.TotalOwing, 1e-9)
		assert.InDelta(t, -100, s.Net, 1e-9)
		assert.InDelta(t, -100, s.Counterparties["A"], 1e-9)
		assert.NotContains(t, s.Counterparties, "B")
	})

	t.Run("unknown member and nil groups", func(t *testing.T) {
		s := SummarizeMember("Z", trip, nil)
		assert.Empty(t, s.Counterparties)
		assert.Zero(t, s.Net)
	})
}

func TestCategorySpending(t *testing.T) {
	const since = 1_700_000_000
	expenses := []ExpenseForSpending{
		{Category: "Food", CreatedAt: since + 10, Splits: []SplitForBalance{{"A", 30}, {"B", 30}}},
		{Category: "Food", CreatedAt: since + 20, Splits: []SplitForBalance{{"A", 12.5}}},
		{Category: "", CreatedAt: since + 30, Splits: []SplitForBalance{{"A", 50}}},
		{Category: "Travel", CreatedAt: since + 40, Splits: []SplitForBalance{{"B", 99}}},
		{Category: "Rent", CreatedAt: since - 1, Splits: []SplitForBalance{{"A", 1000}}},
	}

	got := CategorySpending("A", expenses, since)
	assert.Equal(t, []CategoryTotal{
		{Category: "Other", Amount: 50},
		{Category: "Food", Amount: 42.5},
	}, got)

	assert.Empty(t, CategorySpending("Z", expenses, since))
}
