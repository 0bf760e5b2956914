package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitflow/internal/calculator"
	"github.com/mmynk/splitflow/internal/events"
	"github.com/mmynk/splitflow/internal/middleware"
	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/internal/storage"
	"github.com/mmynk/splitflow/pkg/api"
	"github.com/mmynk/splitflow/pkg/api/apiconnect"
)

const (
	// topCategories is how many categories GetSummary reports.
	topCategories = 5

	// summaryConcurrency bounds the groups loaded at once by GetSummary.
	summaryConcurrency = 4
)

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	base
	now func() time.Time
}

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates a new ExpenseService with the given storage backend.
// A nil publisher disables events.
func NewExpenseService(store storage.Store, publisher events.Publisher) *ExpenseService {
	return &ExpenseService{base: newBase(store, publisher), now: time.Now}
}

// split runs the allocator and resolves the rows to persist.
// An empty payerID skips the payer checks.
func split(amount float64, strategyName string, participants []string, weights map[string]float64, payerID string) ([]calculator.SplitShare, error) {
	strategy, err := calculator.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	shares, err := calculator.ComputeSplit(amount, strategy, participants, weights)
	if err != nil {
		return nil, err
	}
	if payerID != "" {
		if err := calculator.ValidatePayer(payerID, participants); err != nil {
			return nil, err
		}
	}
	rows := calculator.BuildSplits(payerID, shares)
	if err := calculator.CheckSplitSum(amount, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ComputeSplit previews an allocation without storing anything.
func (s *ExpenseService) ComputeSplit(ctx context.Context, req *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error) {
	if _, err := s.actor(ctx); err != nil {
		return nil, toConnectError(err)
	}
	slog.Debug("ComputeSplit request received",
		"amount", req.Msg.Amount,
		"strategy", req.Msg.Strategy,
		"participants_count", len(req.Msg.ParticipantIDs),
	)

	rows, err := split(req.Msg.Amount, req.Msg.Strategy, req.Msg.ParticipantIDs, req.Msg.Weights, req.Msg.PayerID)
	if err != nil {
		slog.Warn("ComputeSplit failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ComputeSplitResponse{Splits: toAPISplits(rows)}), nil
}

// CreateExpense records an expense and its splits in a group the caller belongs to.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"strategy", req.Msg.Strategy,
		"participants_count", len(req.Msg.ParticipantIDs),
	)

	expense, err := s.createExpense(ctx, actor, req.Msg)
	if err != nil {
		slog.Warn("CreateExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	profiles, err := s.profiles(ctx, expenseUserIDs([]*models.Expense{expense}))
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID, "splits_count", len(expense.Splits))
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense, profiles)}), nil
}

func (s *ExpenseService) createExpense(ctx context.Context, actor middleware.Actor, msg *api.CreateExpenseRequest) (*models.Expense, error) {
	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, invalidf("description required")
	}

	group, err := s.memberGroup(ctx, actor, msg.GroupID)
	if err != nil {
		return nil, err
	}

	payerID := strings.TrimSpace(msg.PayerID)
	if payerID == "" {
		payerID = actor.UserID
	}

	rows, err := split(msg.Amount, msg.Strategy, msg.ParticipantIDs, msg.Weights, payerID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if !group.HasMember(r.ParticipantID) {
			return nil, fmt.Errorf("%w: %s is not a member of group %s", calculator.ErrUnknownParticipant, r.ParticipantID, group.ID)
		}
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		PaidBy:      payerID,
		Description: description,
		Amount:      msg.Amount,
		Category:    strings.TrimSpace(msg.Category),
		Splits:      make([]models.Split, len(rows)),
	}
	for i, r := range rows {
		expense.Splits[i] = models.Split{UserID: r.ParticipantID, Amount: r.Amount, Settled: r.Settled}
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.ExpenseCreated, group.ID, actor.UserID, map[string]any{
		"expense_id": expense.ID,
		"paid_by":    expense.PaidBy,
		"amount":     expense.Amount,
	}))
	return expense, nil
}

// GetExpense retrieves an expense from a group the caller belongs to.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.getExpense(ctx, actor, req.Msg.ExpenseID)
	if err != nil {
		slog.Warn("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	profiles, err := s.profiles(ctx, expenseUserIDs([]*models.Expense{expense}))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense, profiles)}), nil
}

func (s *ExpenseService) getExpense(ctx context.Context, actor middleware.Actor, expenseID string) (*models.Expense, error) {
	expenseID = strings.TrimSpace(expenseID)
	if expenseID == "" {
		return nil, invalidf("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberGroup(ctx, actor, expense.GroupID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListGroupExpenses lists a group's expenses, newest first.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("ListGroupExpenses request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, actor, req.Msg.GroupID)
	if err != nil {
		slog.Warn("ListGroupExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("ListGroupExpenses failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	profiles, err := s.profiles(ctx, expenseUserIDs(expenses))
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("ListGroupExpenses successful", "group_id", group.ID, "count", len(expenses))
	return connect.NewResponse(&api.ListGroupExpensesResponse{Expenses: toAPIExpenses(expenses, profiles)}), nil
}

// ListExpenses lists the expenses of every group the caller belongs to, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("ListExpenses request received", "user_id", actor.UserID)

	expenses, err := s.store.ListExpensesForUser(ctx, actor.UserID)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err)
		return nil, toConnectError(err)
	}
	profiles, err := s.profiles(ctx, expenseUserIDs(expenses))
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("ListExpenses successful", "count", len(expenses))
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: toAPIExpenses(expenses, profiles)}), nil
}

// GetSummary reports the caller's position across all their groups and their
// spending by category for the current month.
func (s *ExpenseService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("GetSummary request received", "user_id", actor.UserID)

	resp, err := s.summary(ctx, actor)
	if err != nil {
		slog.Error("GetSummary failed", "user_id", actor.UserID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetSummary successful", "user_id", actor.UserID, "counterparties_count", len(resp.Counterparties))
	return connect.NewResponse(resp), nil
}

func (s *ExpenseService) summary(ctx context.Context, actor middleware.Actor) (*api.GetSummaryResponse, error) {
	groups, err := s.store.ListGroupsForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	perGroup := make([][]*models.Expense, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, group := range groups {
		g.Go(func() error {
			expenses, err := s.store.ListExpensesByGroup(gctx, group.ID)
			if err != nil {
				return fmt.Errorf("list expenses of group %s: %w", group.ID, err)
			}
			perGroup[i] = expenses
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	balances := make([]*calculator.GroupBalances, len(groups))
	var all []*models.Expense
	for i, group := range groups {
		b, err := calculator.ComputeBalances(group.Members, toBalanceInputs(perGroup[i]))
		if err != nil {
			return nil, fmt.Errorf("balances of group %s: %w", group.ID, err)
		}
		balances[i] = b
		all = append(all, perGroup[i]...)
	}
	member := calculator.SummarizeMember(actor.UserID, balances...)

	ids := make([]string, 0, len(member.Counterparties))
	for id := range member.Counterparties {
		ids = append(ids, id)
	}
	profiles, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &api.GetSummaryResponse{
		TotalOwed:  calculator.RoundCents(member.TotalOwed),
		TotalOwing: calculator.RoundCents(member.TotalOwing),
		Net:        calculator.RoundCents(member.Net),
	}
	for _, id := range ids {
		amount := calculator.RoundCents(member.Counterparties[id])
		if amount == 0 {
			continue
		}
		resp.Counterparties = append(resp.Counterparties, &api.Counterparty{
			UserID:      id,
			DisplayName: displayName(profiles, id),
			Amount:      amount,
		})
	}
	sort.Slice(resp.Counterparties, func(i, j int) bool {
		a, b := resp.Counterparties[i], resp.Counterparties[j]
		if math.Abs(a.Amount) != math.Abs(b.Amount) {
			return math.Abs(a.Amount) > math.Abs(b.Amount)
		}
		return a.UserID < b.UserID
	})

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
	for i, c := range calculator.CategorySpending(actor.UserID, toSpendingInputs(all), monthStart) {
		if i == topCategories {
			break
		}
		resp.CategorySpending = append(resp.CategorySpending, &api.CategorySpend{
			Category: c.Category,
			Amount:   calculator.RoundCents(c.Amount),
		})
	}
	return resp, nil
}
