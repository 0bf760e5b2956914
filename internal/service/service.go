// Package service implements the Splitflow Connect services.
//
// Handlers read the caller's identity once, at the RPC boundary, and pass it
// as an explicit actor to the operations they perform.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitflow/internal/calculator"
	"github.com/mmynk/splitflow/internal/events"
	"github.com/mmynk/splitflow/internal/middleware"
	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/internal/storage"
)

var (
	errUnauthenticated = errors.New("no authenticated user")
	errNotMember       = errors.New("caller is not a member of the group")
	errNotAdmin        = errors.New("only the group admin can do this")
	errInvalidRequest  = errors.New("invalid request")
)

// calculatorErrors are input validation failures reported by the calculator.
var calculatorErrors = []error{
	calculator.ErrInvalidAmount,
	calculator.ErrEmptyParticipants,
	calculator.ErrInvalidWeight,
	calculator.ErrPayerExcluded,
	calculator.ErrUnknownParticipant,
	calculator.ErrSplitSumMismatch,
	calculator.ErrUnknownStrategy,
}

// toConnectError maps domain and storage errors to Connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, errUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, errNotMember), errors.Is(err, errNotAdmin):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyMember):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, errInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	for _, target := range calculatorErrors {
		if errors.Is(err, target) {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// base holds what both services share.
type base struct {
	store     storage.Store
	publisher events.Publisher
}

func newBase(store storage.Store, publisher events.Publisher) base {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return base{store: store, publisher: publisher}
}

// actor returns the authenticated caller and refreshes their profile from the token.
func (b *base) actor(ctx context.Context) (middleware.Actor, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return middleware.Actor{}, errUnauthenticated
	}
	profile := models.NewProfile(actor.UserID, actor.Name, actor.Email)
	if err := b.store.UpsertProfile(ctx, profile); err != nil {
		return middleware.Actor{}, fmt.Errorf("refresh profile: %w", err)
	}
	return actor, nil
}

// memberGroup loads a group the actor belongs to.
func (b *base) memberGroup(ctx context.Context, actor middleware.Actor, groupID string) (*models.Group, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, invalidf("group_id required")
	}
	group, err := b.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(actor.UserID) {
		return nil, fmt.Errorf("%w: %s", errNotMember, groupID)
	}
	return group, nil
}

// publish sends an event. Failures are logged and never fail the caller.
func (b *base) publish(ctx context.Context, event events.Event) {
	if err := b.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Event publish failed", "type", event.Type, "group_id", event.GroupID, "error", err)
	}
}

// profiles resolves display data for ids. Unknown IDs are omitted.
func (b *base) profiles(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	if len(ids) == 0 {
		return map[string]*models.Profile{}, nil
	}
	return b.store.GetProfilesByIDs(ctx, ids)
}
