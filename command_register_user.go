package membership

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "membership.user.register" }

// RegisterUserHandler creates a pending account: role defaults to user,
// the email is unverified, and an email verification token is minted and
// stored on the row. Email delivery is fire-and-forget.
type RegisterUserHandler struct {
	repo     RepositoryManager
	tokens   *VerificationTokenService
	notifier Notifier
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens *VerificationTokenService, opts ...RegisterUserOption) *RegisterUserHandler {
	h := &RegisterUserHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type RegisterUserOption func(*RegisterUserHandler)

func WithRegisterNotifier(n Notifier) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.notifier = normalizeNotifier(n)
	}
}

func WithRegisterLogger(logger Logger) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var token string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Username = getUsername(event.Username, event.Email)
		if role, ok := ParseRole(event.Role); ok {
			user.Role = role
		}
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if h.tokens != nil {
			token, err = h.tokens.Mint(user)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint verification token")
			}

			if _, err = h.repo.Users().UpdateStatusTx(ctx, tx, user.ID, UserStatusPending,
				WithVerificationToken(&token)); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification token")
			}
			user.VerificationToken = &token
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if token != "" {
		if err := h.notifier.SendVerificationEmail(ctx, user, token); err != nil {
			h.logger.Warn("verification email delivery failed: %v", err)
		}
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
