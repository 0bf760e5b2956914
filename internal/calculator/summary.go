package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// OtherCategory labels expenses recorded without a category.
const OtherCategory = "Other"

// MemberSummary is one member's position across several groups.
type MemberSummary struct {
	TotalOwed  float64 // What others owe the member
	TotalOwing float64 // What the member owes others
	Net        float64 // TotalOwed - TotalOwing

	// Counterparties maps another member to the net amount between the two.
	// Positive means they owe the member.
	Counterparties map[string]float64
}

// SummarizeMember nets memberID's debt rows across groups, per counterparty.
func SummarizeMember(memberID string, groups ...*GroupBalances) MemberSummary {
	per := make(map[string]decimal.Decimal)
	for _, g := range groups {
		if g == nil {
			continue
		}
		for other, owes := range g.Debt[memberID] {
			per[other] = per[other].Sub(decimal.NewFromFloat(owes))
		}
	}

	owed, owing := decimal.Zero, decimal.Zero
	summary := MemberSummary{Counterparties: make(map[string]float64, len(per))}
	for other, v := range per {
		if v.IsZero() {
			continue
		}
		summary.Counterparties[other] = v.InexactFloat64()
		if v.IsPositive() {
			owed = owed.Add(v)
		} else {
			owing = owing.Add(v.Neg())
		}
	}
	summary.TotalOwed = owed.InexactFloat64()
	summary.TotalOwing = owing.InexactFloat64()
	summary.Net = owed.Sub(owing).InexactFloat64()
	return summary
}

// ExpenseForSpending is an expense with what category summaries need.
type ExpenseForSpending struct {
	Category  string
	CreatedAt int64
	Splits    []SplitForBalance
}

// CategoryTotal is a member's spending in one category.
type CategoryTotal struct {
	Category string
	Amount   float64
}

// CategorySpending totals memberID's shares per category for expenses created
// at or after since (Unix seconds). Expenses the member has no split in are
// skipped. Results are ordered by amount, largest first, then by name.
func CategorySpending(memberID string, expenses []ExpenseForSpending, since int64) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if e.CreatedAt < since {
			continue
		}
		for _, s := range e.Splits {
			if s.ParticipantID != memberID || !isFinite(s.Amount) {
				continue
			}
			category := e.Category
			if category == "" {
				category = OtherCategory
			}
			totals[category] = totals[category].Add(decimal.NewFromFloat(s.Amount))
			break
		}
	}

	out := make([]CategoryTotal, 0, len(totals))
	for category, amount := range totals {
		out = append(out, CategoryTotal{Category: category, Amount: amount.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}
