package membership_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newModerationTestStack(t *testing.T) (*membership.ModerationController, membership.RepositoryManager, *membership.User) {
	t.Helper()

	db := setupDB(t)
	repo := membership.NewRepositoryManager(db)
	admin := seedUser(t, db, "ctrl-admin", userSeed{role: membership.RoleAdmin})

	controller := membership.NewModerationController(
		membership.WithControllerModerator(membership.NewModerator(repo)),
		membership.WithControllerApplications(membership.NewSubmitApplicationHandler(repo)),
	)

	return controller, repo, admin
}

func TestControllerUserApprove(t *testing.T) {
	controller, repo, admin := newModerationTestStack(t)

	target, err := repo.Users().Register(context.Background(), &membership.User{
		Username:      "ctrl-target",
		Email:         "ctrl-target@example.com",
		PasswordHash:  "hash",
		EmailVerified: true,
	})
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = admin.ID
	ctx.ParamsM["id"] = target.ID.String()
	ctx.On("Context").Return(context.Background())

	var payload map[string]any
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	err = controller.UserApprove(ctx)
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "user approved", payload["message"])

	user := payload["user"].(map[string]any)
	assert.Equal(t, true, user["is_verified"])
	ctx.AssertExpectations(t)
}

func TestControllerUserApproveUnauthenticated(t *testing.T) {
	controller, _, _ := newModerationTestStack(t)

	ctx := router.NewMockContext()
	ctx.ParamsM["id"] = uuid.New().String()

	var payload map[string]any
	ctx.On("JSON", router.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	err := controller.UserApprove(ctx)
	require.NoError(t, err)
	assert.Equal(t, "authentication required", payload["error"])
	ctx.AssertExpectations(t)
}

func TestControllerUserApproveForbiddenForNonAdmin(t *testing.T) {
	controller, repo, _ := newModerationTestStack(t)

	regular, err := repo.Users().Register(context.Background(), &membership.User{
		Username:     "ctrl-regular",
		Email:        "ctrl-regular@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = regular.ID
	ctx.ParamsM["id"] = uuid.New().String()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", router.StatusForbidden, mock.Anything).Return(nil)

	err = controller.UserApprove(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestControllerUserApproveBadTargetID(t *testing.T) {
	controller, _, admin := newModerationTestStack(t)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = admin.ID
	ctx.ParamsM["id"] = "not-a-uuid"
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

	err := controller.UserApprove(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestControllerApplicationCreate(t *testing.T) {
	controller, repo, _ := newModerationTestStack(t)

	applicant, err := repo.Users().Register(context.Background(), &membership.User{
		Username:      "ctrl-applicant",
		Email:         "ctrl-applicant@example.com",
		PasswordHash:  "hash",
		EmailVerified: true,
	})
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = applicant.ID
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*membership.ApplicationCreatePayload)
		payload.Reason = validReason
	}).Return(nil)

	var payload map[string]any
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	err = controller.ApplicationCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "application received", payload["message"])

	stored, err := repo.Users().GetByIdentifier(context.Background(), "ctrl-applicant")
	require.NoError(t, err)
	assert.True(t, stored.HasPendingApplication())
	ctx.AssertExpectations(t)
}

func TestControllerApplicationCreateShortReason(t *testing.T) {
	controller, _, _ := newModerationTestStack(t)

	applicantID := uuid.New()
	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = applicantID
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*membership.ApplicationCreatePayload)
		payload.Reason = "too short"
	}).Return(nil)
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

	err := controller.ApplicationCreate(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestControllerUserRoleUpdateRejectsUnknownRole(t *testing.T) {
	controller, _, admin := newModerationTestStack(t)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = admin.ID
	ctx.ParamsM["id"] = uuid.New().String()
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*membership.UserRolePayload)
		payload.Role = "owner"
	}).Return(nil)
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

	err := controller.UserRoleUpdate(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestControllerPostRejectRequiresReason(t *testing.T) {
	controller, _, admin := newModerationTestStack(t)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = admin.ID
	ctx.ParamsM["id"] = uuid.New().String()
	ctx.On("Bind", mock.Anything).Return(nil)
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Return(nil)

	err := controller.PostReject(ctx)
	require.NoError(t, err)
	ctx.AssertExpectations(t)
}

func TestControllerUserDelete(t *testing.T) {
	controller, repo, admin := newModerationTestStack(t)

	target, err := repo.Users().Register(context.Background(), &membership.User{
		Username:     "ctrl-doomed",
		Email:        "ctrl-doomed@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	ctx := router.NewMockContext()
	ctx.LocalsMock[membership.DefaultActorLocalsKey] = admin.ID
	ctx.ParamsM["id"] = target.ID.String()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", router.StatusOK, mock.Anything).Return(nil)

	err = controller.UserDelete(ctx)
	require.NoError(t, err)

	_, err = repo.Users().GetByIdentifier(context.Background(), "ctrl-doomed")
	require.Error(t, err)
	ctx.AssertExpectations(t)
}
