package membership

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(*VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "membership.user.verify_email" }

type VerifyEmailResponse struct {
	Verified bool   `json:"verified"`
	UserID   string `json:"user_id,omitempty"`
}

// VerifyEmailHandler consumes an email verification token: it flips the
// account from pending to approved and clears the stored token. This is
// the only pending -> approved trigger.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	tokens *VerificationTokenService
}

func NewVerifyEmailHandler(repo RepositoryManager, tokens *VerificationTokenService) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		tokens: tokens,
	}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userID, err := h.tokens.Validate(event.Token)
	if err != nil {
		return err
	}

	resp := &VerifyEmailResponse{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, userID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound.WithMetadata(map[string]any{
					"id": userID.String(),
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}

		if user.EmailVerified {
			// link clicked twice, nothing left to do
			resp.Verified = true
			resp.UserID = user.ID.String()
			return nil
		}

		if user.VerificationToken == nil || *user.VerificationToken != event.Token {
			return ErrVerificationTokenMismatch.WithMetadata(map[string]any{
				"id": user.ID.String(),
			})
		}

		if err := h.repo.Users().VerifyEmailTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
		}

		resp.Verified = true
		resp.UserID = user.ID.String()
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
