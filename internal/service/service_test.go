package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitflow/internal/auth"
	"github.com/mmynk/splitflow/internal/calculator"
	"github.com/mmynk/splitflow/internal/events"
	"github.com/mmynk/splitflow/internal/middleware"
	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/internal/storage"
	"github.com/mmynk/splitflow/internal/storage/sqlite"
	"github.com/mmynk/splitflow/pkg/api"
	"github.com/mmynk/splitflow/pkg/api/apiconnect"
)

const testSecret = "service-test-secret-0123456789"

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	server *httptest.Server
	store  *sqlite.SQLiteStore
	jwt    *auth.JWTManager
	events *recorder
}

// client is a pair of service clients authenticated as one user.
type client struct {
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
}

// setupTestServer starts both services behind the real auth interceptor.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	env := &testEnv{
		store:  store,
		jwt:    auth.NewJWTManager(testSecret, time.Hour),
		events: &recorder{},
	}

	opts := []connect.HandlerOption{
		connect.WithInterceptors(middleware.RequireAuth(env.jwt), middleware.LoggingInterceptor()),
		middleware.Recover(),
	}
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store, env.events), opts...)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(NewExpenseService(store, env.events), opts...)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(expensePath, expenseHandler)
	env.server = httptest.NewServer(mux)

	t.Cleanup(func() {
		env.server.Close()
		store.Close()
	})
	return env
}

// as returns clients acting as userID. An empty userID sends no token.
func (env *testEnv) as(t *testing.T, userID, name string) client {
	t.Helper()

	var opts []connect.ClientOption
	if userID != "" {
		token, err := env.jwt.Generate(&models.Profile{ID: userID, FullName: name})
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}
		opts = append(opts, connect.WithInterceptors(bearer(token)))
	}
	return client{
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, env.server.URL, opts...),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, env.server.URL, opts...),
	}
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

func assertAmount(t *testing.T, label string, got, want float64) {
	t.Helper()
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("%s: expected %v, got %v", label, want, got)
	}
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{errUnauthenticated, connect.CodeUnauthenticated},
		{errNotMember, connect.CodePermissionDenied},
		{errNotAdmin, connect.CodePermissionDenied},
		{storage.ErrNotFound, connect.CodeNotFound},
		{storage.ErrAlreadyMember, connect.CodeAlreadyExists},
		{invalidf("x required"), connect.CodeInvalidArgument},
		{calculator.ErrInvalidAmount, connect.CodeInvalidArgument},
		{calculator.ErrEmptyParticipants, connect.CodeInvalidArgument},
		{calculator.ErrInvalidWeight, connect.CodeInvalidArgument},
		{calculator.ErrPayerExcluded, connect.CodeInvalidArgument},
		{calculator.ErrUnknownParticipant, connect.CodeInvalidArgument},
		{calculator.ErrSplitSumMismatch, connect.CodeInvalidArgument},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("disk on fire"), connect.CodeInternal},
		{connect.NewError(connect.CodeUnavailable, errors.New("down")), connect.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := connect.CodeOf(toConnectError(tt.err))
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if toConnectError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestRequiresAuthentication(t *testing.T) {
	env := setupTestServer(t)
	anon := env.as(t, "", "")
	ctx := context.Background()

	_, err := anon.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = anon.expenses.ComputeSplit(ctx, connect.NewRequest(&api.ComputeSplitRequest{
		Amount: 10, ParticipantIDs: []string{"a"},
	}))
	assertCode(t, err, connect.CodeUnauthenticated)
}
