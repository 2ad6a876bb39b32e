package membership_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-membership"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStatusStore implements membership.StatusStore
type MockStatusStore struct {
	mock.Mock
}

func (m *MockStatusStore) UpdateStatus(ctx context.Context, id uuid.UUID, status membership.UserStatus, opts ...membership.StatusUpdateOption) (*membership.User, error) {
	args := m.Called(ctx, id, status, opts)

	var user *membership.User
	if u, ok := args.Get(0).(*membership.User); ok {
		user = u
	}
	return user, args.Error(1)
}

// recorderSink captures activity events for assertions
type recorderSink struct {
	mu     sync.Mutex
	events []membership.ActivityEvent
}

func (r *recorderSink) Record(_ context.Context, event membership.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorderSink) Events() []membership.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]membership.ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}

// stubNotifier records outbound email without sending anything
type stubNotifier struct {
	mu                  sync.Mutex
	verificationEmails  []string
	applicationReceived []string
	err                 error
}

func (n *stubNotifier) SendVerificationEmail(_ context.Context, user *membership.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.verificationEmails = append(n.verificationEmails, user.Email+"|"+token)
	return nil
}

func (n *stubNotifier) SendApplicationReceived(_ context.Context, user *membership.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.applicationReceived = append(n.applicationReceived, user.Email)
	return nil
}
