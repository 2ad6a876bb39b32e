package membership

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MinApplicationReasonLength is the minimum number of characters an expert
// application reason has to carry.
const MinApplicationReasonLength = 20

type SubmitApplicationMessage struct {
	UserID       uuid.UUID `json:"user_id"`
	Reason       string    `json:"reason"`
	PortfolioURL *string   `json:"portfolio_url"`
	OnResponse   func(*SubmitApplicationResponse)
}

func (e SubmitApplicationMessage) Type() string { return "membership.application.submit" }

// SubmitApplicationResponse echoes the persisted application subset.
type SubmitApplicationResponse struct {
	Reason       string  `json:"reason"`
	PortfolioURL *string `json:"portfolio_url,omitempty"`
}

type SubmitApplicationHandler struct {
	repo         RepositoryManager
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
}

func NewSubmitApplicationHandler(repo RepositoryManager, opts ...SubmitApplicationOption) *SubmitApplicationHandler {
	h := &SubmitApplicationHandler{
		repo:         repo,
		notifier:     noopNotifier{},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type SubmitApplicationOption func(*SubmitApplicationHandler)

func WithApplicationNotifier(n Notifier) SubmitApplicationOption {
	return func(h *SubmitApplicationHandler) {
		h.notifier = normalizeNotifier(n)
	}
}

func WithApplicationActivitySink(sink ActivitySink) SubmitApplicationOption {
	return func(h *SubmitApplicationHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

func WithApplicationLogger(logger Logger) SubmitApplicationOption {
	return func(h *SubmitApplicationHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func (h *SubmitApplicationHandler) Execute(ctx context.Context, event SubmitApplicationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during application submission",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubmitApplicationHandler) execute(ctx context.Context, event SubmitApplicationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.UserID == uuid.Nil {
			return ErrAuthenticationRequired
		}

		var err error
		user, err = h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAuthenticationRequired.WithMetadata(map[string]any{
					"id": event.UserID.String(),
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load applicant")
		}

		if err := checkApplicationEligibility(user); err != nil {
			return err
		}

		if err := validateApplicationReason(event.Reason); err != nil {
			return err
		}

		user, err = h.repo.Users().SetApplicationTx(ctx, tx, user.ID, event.Reason, event.PortfolioURL)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist application")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "application submission transaction failed")
	}

	if err := h.notifier.SendApplicationReceived(ctx, user); err != nil {
		h.logger.Warn("application received notification failed: %v", err)
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventApplicationSubmitted,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
	})

	if event.OnResponse != nil {
		resp := &SubmitApplicationResponse{
			Reason:       event.Reason,
			PortfolioURL: user.PortfolioURL,
		}
		event.OnResponse(resp)
	}

	return nil
}

// checkApplicationEligibility runs the precondition ladder in order:
// verified members cannot re-apply, only approved members may apply, and
// an outstanding application blocks a second one.
func checkApplicationEligibility(user *User) error {
	if user.Verified {
		return ErrAlreadyVerified
	}

	if DeriveStatus(user) != UserStatusApproved {
		return ErrNotEligible
	}

	if user.HasPendingApplication() {
		return ErrApplicationPending
	}

	if user.Role == RoleAdmin {
		return ErrNotEligible.WithMetadata(map[string]any{
			"reason": "admins do not apply for expert standing",
		})
	}

	return nil
}

func validateApplicationReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinApplicationReasonLength {
		return ErrReasonTooShort.WithMetadata(map[string]any{
			"min_length": MinApplicationReasonLength,
		})
	}
	return nil
}

func (h *SubmitApplicationHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(h.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("application activity sink error: %v", err)
	}
}
