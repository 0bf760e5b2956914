package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		strategy     Strategy
		participants []string
		weights      map[string]float64
		wantErr      error
		want         map[string]float64
	}{
		{
			name:         "equal three-way split",
			amount:       300,
			strategy:     StrategyEqual,
			participants: []string{"A", "B", "C"},
			want:         map[string]float64{"A": 100, "B": 100, "C": 100},
		},
		{
			name:         "weighted ratio one to two",
			amount:       900,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"A": 1, "B": 2},
			want:         map[string]float64{"A": 300, "B": 600},
		},
		{
			name:         "missing weight defaults to one",
			amount:       400,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"B": 3},
			want:         map[string]float64{"A": 100, "B": 300},
		},
		{
			name:         "weights for non-participants are ignored",
			amount:       100,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"Z": 50},
			want:         map[string]float64{"A": 50, "B": 50},
		},
		{
			name:         "duplicate participants count once",
			amount:       60,
			strategy:     StrategyEqual,
			participants: []string{"A", "B", "A", ""},
			want:         map[string]float64{"A": 30, "B": 30},
		},
		{
			name:         "single participant takes everything",
			amount:       42.5,
			strategy:     StrategyEqual,
			participants: []string{"A"},
			want:         map[string]float64{"A": 42.5},
		},
		{
			name:         "zero amount",
			amount:       0,
			participants: []string{"A"},
			wantErr:      ErrInvalidAmount,
		},
		{
			name:         "negative amount",
			amount:       -5,
			participants: []string{"A"},
			wantErr:      ErrInvalidAmount,
		},
		{
			name:         "NaN amount",
			amount:       math.NaN(),
			participants: []string{"A"},
			wantErr:      ErrInvalidAmount,
		},
		{
			name:         "no participants",
			amount:       10,
			participants: []string{},
			wantErr:      ErrEmptyParticipants,
		},
		{
			name:         "only empty participant IDs",
			amount:       10,
			participants: []string{"", ""},
			wantErr:      ErrEmptyParticipants,
		},
		{
			name:         "zero weight",
			amount:       10,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"A": 0, "B": 1},
			wantErr:      ErrInvalidWeight,
		},
		{
			name:         "negative weight",
			amount:       10,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"A": 2, "B": -1},
			wantErr:      ErrInvalidWeight,
		},
		{
			name:         "weights overflowing their total",
			amount:       900,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"A": 1e308, "B": 1e308},
			wantErr:      ErrInvalidWeight,
		},
		{
			name:         "infinite weight",
			amount:       10,
			strategy:     StrategyWeightedRatio,
			participants: []string{"A", "B"},
			weights:      map[string]float64{"A": math.Inf(1), "B": 1},
			wantErr:      ErrInvalidWeight,
		},
		{
			name:         "equal split past cent precision",
			amount:       1e15,
			strategy:     StrategyEqual,
			participants: []string{"A", "B", "C"},
			wantErr:      ErrSplitSumMismatch,
		},
		{
			name:         "unknown strategy",
			amount:       10,
			strategy:     Strategy(9),
			participants: []string{"A"},
			wantErr:      ErrUnknownStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ComputeSplit(tt.amount, tt.strategy, tt.participants, tt.weights)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, shares)
				return
			}
			require.NoError(t, err)
			require.Len(t, shares, len(tt.want))
			for p, want := range tt.want {
				assert.InDelta(t, want, shares[p], 1e-9, "share of %s", p)
			}
		})
	}
}

func TestComputeSplit_EqualSumsToAmount(t *testing.T) {
	amounts := []float64{0.01, 0.07, 1, 10, 33.33, 99.99, 100, 1234.56, 1e6 + 0.01}
	for _, amount := range amounts {
		for n := 1; n <= 13; n++ {
			participants := make([]string, n)
			for i := range participants {
				participants[i] = string(rune('a' + i))
			}
			shares, err := ComputeSplit(amount, StrategyEqual, participants, nil)
			require.NoError(t, err)

			var total float64
			for _, s := range shares {
				total += s
			}
			assert.InDelta(t, amount, total, SumTolerance, "amount=%v n=%d", amount, n)
		}
	}
}

func TestComputeSplit_WeightedIsProportional(t *testing.T) {
	weights := map[string]float64{"a": 0.5, "b": 1.5, "c": 3, "d": 7.25}
	participants := []string{"a", "b", "c", "d"}

	for _, amount := range []float64{1, 12.34, 500, 98765.43} {
		shares, err := ComputeSplit(amount, StrategyWeightedRatio, participants, weights)
		require.NoError(t, err)

		var total float64
		for _, s := range shares {
			total += s
		}
		assert.InDelta(t, amount, total, SumTolerance)

		// share / weight is the same for everybody
		ratio := shares["a"] / weights["a"]
		for _, p := range participants {
			assert.InDelta(t, ratio, shares[p]/weights[p], 1e-9, "participant %s", p)
		}
	}
}

func TestComputeSplit_LargeAmounts(t *testing.T) {
	shares, err := ComputeSplit(1e12, StrategyEqual, []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1e12/3, shares["a"], 1e-3)

	for _, amount := range []float64{1e308, math.MaxFloat64} {
		for _, strategy := range []Strategy{StrategyEqual, StrategyWeightedRatio} {
			var err error
			require.NotPanics(t, func() {
				_, err = ComputeSplit(amount, strategy, []string{"a", "b"}, map[string]float64{"a": 2, "b": 3})
			}, "amount=%v strategy=%v", amount, strategy)
			if err != nil {
				assert.ErrorIs(t, err, ErrSplitSumMismatch)
			}
		}
	}
}

func TestValidatePayer(t *testing.T) {
	require.NoError(t, ValidatePayer("A", []string{"A", "B"}))
	assert.ErrorIs(t, ValidatePayer("C", []string{"A", "B"}), ErrPayerExcluded)
	assert.ErrorIs(t, ValidatePayer("", []string{"A"}), ErrPayerExcluded)
	assert.ErrorIs(t, ValidatePayer("A", nil), ErrPayerExcluded)
}

func TestBuildSplits(t *testing.T) {
	t.Run("payer among participants", func(t *testing.T) {
		rows := BuildSplits("A", map[string]float64{"C": 100, "A": 100, "B": 100})
		assert.Equal(t, []SplitShare{
			{ParticipantID: "A", Amount: 100},
			{ParticipantID: "B", Amount: 100},
			{ParticipantID: "C", Amount: 100},
		}, rows)
	})

	t.Run("payer without share gets settled zero row", func(t *testing.T) {
		rows := BuildSplits("A", map[string]float64{"B": 50, "C": 50})
		require.Len(t, rows, 3)
		assert.Equal(t, SplitShare{ParticipantID: "A", Amount: 0, Settled: true}, rows[2])
		assert.False(t, rows[0].Settled)
		assert.False(t, rows[1].Settled)
	})

	t.Run("payer-only expense is a settled self-split", func(t *testing.T) {
		rows := BuildSplits("A", map[string]float64{"A": 20})
		assert.Equal(t, []SplitShare{{ParticipantID: "A", Amount: 20, Settled: true}}, rows)
	})
}

func TestCheckSplitSum(t *testing.T) {
	shares, err := ComputeSplit(100, StrategyEqual, []string{"A", "B", "C"}, nil)
	require.NoError(t, err)
	require.NoError(t, CheckSplitSum(100, BuildSplits("A", shares)))

	// one cent off is tolerated
	require.NoError(t, CheckSplitSum(100, []SplitShare{{"A", 33.33, false}, {"B", 33.33, false}, {"C", 33.33, false}}))

	err = CheckSplitSum(100, []SplitShare{{"A", 50, false}, {"B", 49.5, false}})
	assert.ErrorIs(t, err, ErrSplitSumMismatch)

	err = CheckSplitSum(100, []SplitShare{{"A", 150, false}, {"B", -50, false}})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = CheckSplitSum(0, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyEqual, false},
		{"equal", StrategyEqual, false},
		{"EQUAL", StrategyEqual, false},
		{"ratio", StrategyWeightedRatio, false},
		{" weighted_ratio ", StrategyWeightedRatio, false},
		{"percent", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 33.33, RoundCents(100.0/3))
	assert.Equal(t, 66.67, RoundCents(200.0/3))
	assert.Equal(t, -0.01, RoundCents(-0.005))
	assert.Equal(t, 12.0, RoundCents(12))
}
