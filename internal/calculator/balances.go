package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	PayerID string
	Amount  float64
	Splits  []SplitForBalance
}

// SplitForBalance is one participant's share of an expense.
type SplitForBalance struct {
	ParticipantID string
	Amount        float64
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	NetBalance float64 // Positive = owed money, Negative = owes money
	TotalPaid  float64 // Total amount paid across all expenses
	TotalOwed  float64 // Total of this member's shares
}

// DebtEdge represents a suggested transfer from one member to another.
type DebtEdge struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount float64
}

// GroupBalances is the aggregated position of every member of a group.
type GroupBalances struct {
	// Members lists the group's member IDs in sorted order.
	Members []string

	Paid map[string]float64
	Owed map[string]float64
	Net  map[string]float64

	// Debt[a][b] is what a owes b. Debt[a][b] == -Debt[b][a] for every pair
	// of distinct members, and there is no Debt[a][a] entry.
	Debt map[string]map[string]float64
}

// ComputeBalances aggregates a group's expenses into per-member balances and
// a pairwise debt matrix.
//
// Algorithm:
//   - payer paid += amount
//   - each split: participant owed += share
//   - each split of a non-payer: debt[participant][payer] += share and
//     debt[payer][participant] -= share
//   - net = paid - owed
//
// Sums are accumulated as exact decimals, so the result does not depend on the
// order of expenses or splits. A payer or participant outside members fails
// with ErrUnknownParticipant.
func ComputeBalances(members []string, expenses []ExpenseForBalance) (*GroupBalances, error) {
	ids := uniqueParticipants(members)
	sort.Strings(ids)

	memberSet := make(map[string]bool, len(ids))
	paid := make(map[string]decimal.Decimal, len(ids))
	owed := make(map[string]decimal.Decimal, len(ids))
	debt := make(map[string]map[string]decimal.Decimal, len(ids))
	for _, a := range ids {
		memberSet[a] = true
		paid[a] = decimal.Zero
		owed[a] = decimal.Zero
		debt[a] = make(map[string]decimal.Decimal, len(ids)-1)
		for _, b := range ids {
			if a != b {
				debt[a][b] = decimal.Zero
			}
		}
	}

	for i, e := range expenses {
		if !memberSet[e.PayerID] {
			return nil, fmt.Errorf("%w: payer %q of expense %d", ErrUnknownParticipant, e.PayerID, i)
		}
		if !isPositive(e.Amount) {
			return nil, fmt.Errorf("%w: expense %d has amount %v", ErrInvalidAmount, i, e.Amount)
		}
		paid[e.PayerID] = paid[e.PayerID].Add(decimal.NewFromFloat(e.Amount))

		for _, s := range e.Splits {
			if !memberSet[s.ParticipantID] {
				return nil, fmt.Errorf("%w: %q in expense %d", ErrUnknownParticipant, s.ParticipantID, i)
			}
			if !isNonNegative(s.Amount) {
				return nil, fmt.Errorf("%w: split for %s in expense %d is %v", ErrInvalidAmount, s.ParticipantID, i, s.Amount)
			}
			share := decimal.NewFromFloat(s.Amount)
			owed[s.ParticipantID] = owed[s.ParticipantID].Add(share)

			if s.ParticipantID != e.PayerID {
				debt[s.ParticipantID][e.PayerID] = debt[s.ParticipantID][e.PayerID].Add(share)
				debt[e.PayerID][s.ParticipantID] = debt[e.PayerID][s.ParticipantID].Sub(share)
			}
		}
	}

	result := &GroupBalances{
		Members: ids,
		Paid:    make(map[string]float64, len(ids)),
		Owed:    make(map[string]float64, len(ids)),
		Net:     make(map[string]float64, len(ids)),
		Debt:    make(map[string]map[string]float64, len(ids)),
	}
	for _, a := range ids {
		result.Paid[a] = paid[a].InexactFloat64()
		result.Owed[a] = owed[a].InexactFloat64()
		result.Net[a] = paid[a].Sub(owed[a]).InexactFloat64()

		row := make(map[string]float64, len(debt[a]))
		for b, v := range debt[a] {
			row[b] = v.InexactFloat64()
		}
		result.Debt[a] = row
	}
	return result, nil
}

// MemberBalances returns one entry per member, ordered by member ID.
func (b *GroupBalances) MemberBalances() []MemberBalance {
	out := make([]MemberBalance, 0, len(b.Members))
	for _, m := range b.Members {
		out = append(out, MemberBalance{
			MemberID:   m,
			NetBalance: b.Net[m],
			TotalPaid:  b.Paid[m],
			TotalOwed:  b.Owed[m],
		})
	}
	return out
}

// SimplifyDebts matches debtors with creditors to minimize the number of
// transfers needed to bring every net balance to zero.
//
// Net balances are rounded to cents first. Largest debts are matched with
// largest credits, ties broken by member ID, so the output is deterministic.
// Transfers under one cent are dropped.
func SimplifyDebts(net map[string]float64) []DebtEdge {
	type position struct {
		id     string
		amount decimal.Decimal
	}

	ids := make([]string, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var creditors, debtors []position
	for _, id := range ids {
		if !isFinite(net[id]) {
			continue
		}
		amount := decimal.NewFromFloat(net[id]).Round(2)
		switch amount.Sign() {
		case 1:
			creditors = append(creditors, position{id: id, amount: amount})
		case -1:
			debtors = append(debtors, position{id: id, amount: amount.Neg()})
		}
	}

	byAmount := func(list []position) {
		sort.SliceStable(list, func(i, j int) bool {
			if c := list[i].amount.Cmp(list[j].amount); c != 0 {
				return c > 0
			}
			return list[i].id < list[j].id
		})
	}
	byAmount(creditors)
	byAmount(debtors)

	// Greedy algorithm: match largest debts with largest credits
	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		if amount.GreaterThanOrEqual(tolerance) {
			edges = append(edges, DebtEdge{From: d.id, To: c.id, Amount: amount.InexactFloat64()})
		}

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)

		if d.amount.LessThan(tolerance) {
			i++
		}
		if c.amount.LessThan(tolerance) {
			j++
		}
	}
	return edges
}
