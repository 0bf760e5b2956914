package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

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

// GroupService implements the Connect GroupService
type GroupService struct {
	base
}

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
// A nil publisher disables events.
func NewGroupService(store storage.Store, publisher events.Publisher) *GroupService {
	return &GroupService{base: newBase(store, publisher)}
}

// CreateGroup creates a new group with the caller as its admin and only member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", actor.UserID)

	group, err := s.createGroup(ctx, actor, req.Msg)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	profiles, err := s.profiles(ctx, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group, profiles)}), nil
}

func (s *GroupService) createGroup(ctx context.Context, actor middleware.Actor, msg *api.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return nil, invalidf("group name required")
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(msg.Description),
		Category:    strings.TrimSpace(msg.Category),
		CreatedBy:   actor.UserID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.GroupCreated, group.ID, actor.UserID, map[string]string{"name": group.Name}))
	return group, nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, actor, req.Msg.GroupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	profiles, err := s.profiles(ctx, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group, profiles)}), nil
}

// ListGroups retrieves the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("ListGroups request received", "user_id", actor.UserID)

	summaries, err := s.store.ListGroupsForUser(ctx, actor.UserID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, g := range summaries {
		for _, m := range g.Members {
			if !seen[m] {
				seen[m] = true
				ids = append(ids, m)
			}
		}
	}
	profiles, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, toConnectError(err)
	}

	groups := make([]*api.GroupSummary, len(summaries))
	for i, g := range summaries {
		groups[i] = &api.GroupSummary{
			Group:        toAPIGroup(&g.Group, profiles),
			ExpenseCount: g.ExpenseCount,
			TotalSpent:   calculator.RoundCents(g.TotalSpent),
		}
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: groups}), nil
}

// AddMember adds a user to a group the caller belongs to.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.UserID)

	group, err := s.addMember(ctx, actor, req.Msg.GroupID, req.Msg.UserID)
	if err != nil {
		slog.Warn("AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	profiles, err := s.profiles(ctx, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "members_count", len(group.Members))
	return connect.NewResponse(&api.AddMemberResponse{Group: toAPIGroup(group, profiles)}), nil
}

func (s *GroupService) addMember(ctx context.Context, actor middleware.Actor, groupID, userID string) (*models.Group, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidf("user_id required")
	}
	group, err := s.memberGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMember(ctx, group.ID, userID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.MemberAdded, group.ID, actor.UserID, map[string]string{"user_id": userID}))
	return s.store.GetGroup(ctx, group.ID)
}

// DeleteGroup removes a group and all its expenses. Only the admin may do this.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := s.deleteGroup(ctx, actor, req.Msg.GroupID); err != nil {
		slog.Warn("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

func (s *GroupService) deleteGroup(ctx context.Context, actor middleware.Actor, groupID string) error {
	group, err := s.memberGroup(ctx, actor, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actor.UserID) {
		return fmt.Errorf("%w: delete group %s", errNotAdmin, group.ID)
	}
	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		return err
	}

	s.publish(ctx, events.New(events.GroupDeleted, group.ID, actor.UserID, nil))
	return nil
}

// GetGroupBalances calculates balances across all expenses in a group.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("GetGroupBalances request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, actor, req.Msg.GroupID)
	if err != nil {
		slog.Warn("GetGroupBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	var (
		expenses []*models.Expense
		profiles map[string]*models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpensesByGroup(gctx, group.ID)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = s.profiles(gctx, group.Members)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("GetGroupBalances failed - could not load group data", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	balances, err := calculator.ComputeBalances(group.Members, toBalanceInputs(expenses))
	if err != nil {
		slog.Error("GetGroupBalances failed - could not compute balances", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.GetGroupBalancesResponse{
		GroupID:    group.ID,
		DebtMatrix: balances.Debt,
	}
	for _, mb := range balances.MemberBalances() {
		resp.Balances = append(resp.Balances, &api.MemberBalance{
			UserID:      mb.MemberID,
			DisplayName: displayName(profiles, mb.MemberID),
			Paid:        mb.TotalPaid,
			Owed:        mb.TotalOwed,
			Net:         mb.NetBalance,
		})
	}
	for _, edge := range calculator.SimplifyDebts(balances.Net) {
		resp.SuggestedTransfers = append(resp.SuggestedTransfers, &api.Transfer{
			From:   edge.From,
			To:     edge.To,
			Amount: edge.Amount,
		})
	}

	slog.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"expenses_count", len(expenses),
		"transfers_count", len(resp.SuggestedTransfers),
	)
	return connect.NewResponse(resp), nil
}
