package calculator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrEmptyParticipants  = errors.New("must have at least one participant")
	ErrInvalidWeight      = errors.New("weight must be greater than zero")
	ErrPayerExcluded      = errors.New("payer must be one of the participants")
	ErrUnknownParticipant = errors.New("participant is not a member of the group")
	ErrSplitSumMismatch   = errors.New("split amounts do not add up to the expense amount")
	ErrUnknownStrategy    = errors.New("unknown split strategy")
)

// Strategy selects how an expense amount is divided among participants.
type Strategy int

const (
	// StrategyEqual gives every participant the same share.
	StrategyEqual Strategy = iota
	// StrategyWeightedRatio divides the amount in proportion to participant weights.
	StrategyWeightedRatio
)

func (s Strategy) String() string {
	switch s {
	case StrategyEqual:
		return "equal"
	case StrategyWeightedRatio:
		return "ratio"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a wire name to a Strategy. An empty name means equal.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "equal":
		return StrategyEqual, nil
	case "ratio", "weighted", "weighted_ratio":
		return StrategyWeightedRatio, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// SplitShare is one row of a resolved split, ready to be persisted.
type SplitShare struct {
	ParticipantID string
	Amount        float64
	Settled       bool
}

// ComputeSplit divides amount among participants using the given strategy.
//
// Equal: every participant owes amount / n.
// WeightedRatio: participant p owes amount * weight(p) / Σ weights, where a
// participant missing from weights has weight 1.
//
// Duplicate participant IDs count once and empty IDs are ignored. No remainder
// redistribution is done; the shares must add up to amount within SumTolerance.
// Shares are float64, so once amount reaches about 1e15 a share can no longer
// carry cent precision and ErrSplitSumMismatch is returned instead.
func ComputeSplit(amount float64, strategy Strategy, participants []string, weights map[string]float64) (map[string]float64, error) {
	if !isPositive(amount) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}
	ids := uniqueParticipants(participants)
	if len(ids) == 0 {
		return nil, ErrEmptyParticipants
	}

	shares := make(map[string]float64, len(ids))
	switch strategy {
	case StrategyEqual:
		share := amount / float64(len(ids))
		for _, p := range ids {
			shares[p] = share
		}

	case StrategyWeightedRatio:
		resolved := make([]float64, len(ids))
		var total float64
		for i, p := range ids {
			w, ok := weights[p]
			if !ok {
				w = 1
			}
			if !isPositive(w) {
				return nil, fmt.Errorf("%w: %s has weight %v", ErrInvalidWeight, p, w)
			}
			resolved[i] = w
			total += w
		}
		if !isFinite(total) {
			return nil, fmt.Errorf("%w: weights overflow", ErrInvalidWeight)
		}
		for i, p := range ids {
			shares[p] = amount * (resolved[i] / total)
		}

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, strategy)
	}

	values := make([]float64, 0, len(shares))
	for _, p := range ids {
		values = append(values, shares[p])
	}
	sum, ok := sumAmounts(values)
	if !ok || !withinTolerance(sum, amount) {
		return nil, fmt.Errorf("%w: shares of %v", ErrSplitSumMismatch, amount)
	}
	return shares, nil
}

// ValidatePayer checks that the payer is one of the participants.
func ValidatePayer(payerID string, participants []string) error {
	if payerID == "" {
		return fmt.Errorf("%w: no payer given", ErrPayerExcluded)
	}
	for _, p := range participants {
		if p == payerID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPayerExcluded, payerID)
}

// BuildSplits turns computed shares into split rows ordered by participant ID.
//
// Every participant, the payer included, gets exactly one row. If the payer has
// no share a zero-amount settled row is added for them. When the payer is the
// only participant their self-split is settled, since nobody owes anybody.
func BuildSplits(payerID string, shares map[string]float64) []SplitShare {
	ids := make([]string, 0, len(shares))
	for p := range shares {
		ids = append(ids, p)
	}
	sort.Strings(ids)

	_, payerHasShare := shares[payerID]
	selfOnly := payerHasShare && len(shares) == 1

	rows := make([]SplitShare, 0, len(ids)+1)
	for _, p := range ids {
		rows = append(rows, SplitShare{
			ParticipantID: p,
			Amount:        shares[p],
			Settled:       selfOnly,
		})
	}
	if !payerHasShare && payerID != "" {
		rows = append(rows, SplitShare{ParticipantID: payerID, Amount: 0, Settled: true})
	}
	return rows
}

// CheckSplitSum verifies that the rows add up to amount within SumTolerance.
func CheckSplitSum(amount float64, rows []SplitShare) error {
	if !isPositive(amount) {
		return fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}
	values := make([]float64, len(rows))
	for i, r := range rows {
		if !isNonNegative(r.Amount) {
			return fmt.Errorf("%w: split for %s is %v", ErrInvalidAmount, r.ParticipantID, r.Amount)
		}
		values[i] = r.Amount
	}
	got, _ := sumAmounts(values)
	if !withinTolerance(got, amount) {
		return fmt.Errorf("%w: splits total %s, expense is %v", ErrSplitSumMismatch, got.StringFixed(2), amount)
	}
	return nil
}

// uniqueParticipants drops empty and repeated IDs, keeping first-seen order.
func uniqueParticipants(participants []string) []string {
	seen := make(map[string]bool, len(participants))
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		ids = append(ids, p)
	}
	return ids
}
