package user

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"job-tracker/internal/config"
	domainJob "job-tracker/internal/domain/job"
	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/infrastructure/database/memory"
	"job-tracker/internal/mocks"
	"job-tracker/internal/query"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

const resetBase = "http://localhost:8080/api/v1/users/reset-password/"

var resetLink = regexp.MustCompile(`reset-password/([0-9a-f]{64})`)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc    *Service
	store  *memory.Store
	users  *memory.UserRepository
	jobs   *memory.JobRepository
	mailer *mocks.MockMailer
	clock  *clock
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expiry: 90 * 24 * time.Hour},
		Auth: config.AuthConfig{
			BcryptCost:    bcrypt.MinCost,
			ResetTokenTTL: 10 * time.Minute,
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := memory.NewStore()

	f := &fixture{
		store:  store,
		users:  memory.NewUserRepository(store),
		jobs:   memory.NewJobRepository(store),
		mailer: mocks.NewMockMailer(ctrl),
		clock:  &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = NewService(f.users, f.jobs, store, f.mailer, testConfig())
	f.svc.now = f.clock.Now
	return f
}

func (f *fixture) register(t *testing.T, name, email string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name:            name,
		Email:           email,
		Password:        "pass1234",
		ConfirmPassword: "pass1234",
	})
	require.NoError(t, err)
	return resp
}

// requestReset runs ForgotPassword and returns the raw token from the email.
func (f *fixture) requestReset(t *testing.T, email string) string {
	t.Helper()
	var sent *domainUser.Message
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *domainUser.Message) error {
			sent = msg
			return nil
		})

	require.NoError(t, f.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: email}, resetBase))
	require.NotNil(t, sent)

	m := resetLink.FindStringSubmatch(sent.Text)
	require.Len(t, m, 2)
	assert.Contains(t, sent.HTML, resetBase+m[1])
	return m[1]
}

func assertKind(t *testing.T, err error, kind appErrors.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := appErrors.KindOf(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, kind, got, err.Error())
}

func TestRegister_IssuesWorkingToken(t *testing.T) {
	f := newFixture(t)

	resp := f.register(t, "  Jane   Doe ", "Jane@Example.com")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Jane Doe", resp.User.Name)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, "user", resp.User.Role)
	assert.Equal(t, "Jane", resp.User.FirstName)
	assert.Equal(t, f.clock.Now().Add(90*24*time.Hour), resp.ExpiresAt)

	u, err := f.svc.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, u.ID)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, &RegisterRequest{Name: "Jane", Email: "a@b.com", Password: "short", ConfirmPassword: "short"})
	assertKind(t, err, appErrors.KindValidation)

	_, err = f.svc.Register(ctx, &RegisterRequest{Name: "Jane", Email: "a@b.com", Password: "pass1234", ConfirmPassword: "pass12345"})
	assertKind(t, err, appErrors.KindValidation)

	_, err = f.svc.Register(ctx, &RegisterRequest{Name: "Jane", Email: "not-an-email", Password: "pass1234", ConfirmPassword: "pass1234"})
	assertKind(t, err, appErrors.KindValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Jane Doe", "a@b.com")

	_, err := f.svc.Register(context.Background(), &RegisterRequest{Name: "Other", Email: "A@B.com", Password: "pass1234", ConfirmPassword: "pass1234"})
	assertKind(t, err, appErrors.KindConflict)
	assert.ErrorIs(t, err, domainUser.ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Jane Doe", "a@b.com")
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, &LoginRequest{Email: "a@b.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "a@b.com", Password: "wrong-pass"})
	assertKind(t, err, appErrors.KindAuthentication)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "nobody@b.com", Password: "pass1234"})
	assertKind(t, err, appErrors.KindAuthentication)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "a@b.com"})
	assertKind(t, err, appErrors.KindValidation)
}

func TestAuthenticate_Rejections(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "Jane Doe", "a@b.com")
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "")
	assertKind(t, err, appErrors.KindAuthentication)
	assert.ErrorIs(t, err, appErrors.ErrNotLoggedIn)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	f.clock.Advance(91 * 24 * time.Hour)
	_, err = f.svc.Authenticate(ctx, resp.Token)
	assertKind(t, err, appErrors.KindAuthentication)
	assert.Contains(t, err.(*appErrors.AppError).Message, "expired")
}

func TestAuthenticate_StaleAfterPasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t, "Jane Doe", "a@b.com")

	f.clock.Advance(10 * time.Second)
	second, err := f.svc.UpdatePassword(ctx, first.User.ID, &UpdatePasswordRequest{
		CurrentPassword: "pass1234",
		Password:        "newpass123",
		ConfirmPassword: "newpass123",
	})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, first.Token)
	assertKind(t, err, appErrors.KindAuthentication)
	assert.ErrorIs(t, err, appErrors.ErrStaleToken)

	u, err := f.svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, u.ID)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "a@b.com", Password: "newpass123"})
	assert.NoError(t, err)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "Jane Doe", "a@b.com")

	require.NoError(t, f.svc.DeleteUser(context.Background(), resp.User.ID))

	_, err := f.svc.Authenticate(context.Background(), resp.Token)
	assertKind(t, err, appErrors.KindAuthentication)
	assert.ErrorIs(t, err, appErrors.ErrTokenUserGone)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "Jane Doe", "a@b.com")

	_, err := f.svc.UpdatePassword(context.Background(), resp.User.ID, &UpdatePasswordRequest{
		CurrentPassword: "nope-nope",
		Password:        "newpass123",
		ConfirmPassword: "newpass123",
	})
	assertKind(t, err, appErrors.KindAuthentication)
	assert.Equal(t, "Your current password is wrong", err.(*appErrors.AppError).Message)
}

func TestResetPassword_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Jane Doe", "a@b.com")

	raw := f.requestReset(t, "a@b.com")
	f.clock.Advance(time.Minute)

	resp, err := f.svc.ResetPassword(ctx, raw, &ResetPasswordRequest{Password: "brandnew1", ConfirmPassword: "brandnew1"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, raw, &ResetPasswordRequest{Password: "another12", ConfirmPassword: "another12"})
	assertKind(t, err, appErrors.KindValidation)
	assert.ErrorIs(t, err, domainUser.ErrResetTokenInvalid)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "a@b.com", Password: "brandnew1"})
	assert.NoError(t, err)
}

func TestResetPassword_Expired(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Jane Doe", "a@b.com")

	raw := f.requestReset(t, "a@b.com")
	f.clock.Advance(10*time.Minute + time.Second)

	_, err := f.svc.ResetPassword(context.Background(), raw, &ResetPasswordRequest{Password: "brandnew1", ConfirmPassword: "brandnew1"})
	assertKind(t, err, appErrors.KindValidation)
}

func TestConsumeResetToken_ExpiredBetweenLookupAndWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.register(t, "Jane Doe", "a@b.com")

	raw := f.requestReset(t, "a@b.com")
	hashed := utils.HashToken(raw)
	expiry := f.clock.Now().Add(10 * time.Minute)

	err := f.users.ConsumeResetToken(ctx, resp.User.ID, hashed, "newhash", expiry, expiry)
	assert.ErrorIs(t, err, domainUser.ErrResetTokenInvalid)

	u, err := f.users.GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "newhash", u.PasswordHash)
	assert.NotNil(t, u.ResetTokenHash)

	require.NoError(t, f.users.ConsumeResetToken(ctx, resp.User.ID, hashed, "newhash", expiry, expiry.Add(-time.Second)))
}

func TestResetPassword_OnlyHashIsStored(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "Jane Doe", "a@b.com")

	raw := f.requestReset(t, "a@b.com")

	u, err := f.users.GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, u.ResetTokenHash)
	assert.NotEqual(t, raw, *u.ResetTokenHash)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), *u.ResetTokenExpiresAt)
}

func TestForgotPassword_EmailFailureClearsToken(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "Jane Doe", "a@b.com")

	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp: connection refused"))

	err := f.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "a@b.com"}, resetBase)
	assertKind(t, err, appErrors.KindInternal)
	assert.Equal(t, "There was an error sending the email. Try again later!", err.(*appErrors.AppError).Message)

	u, err := f.users.GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Nil(t, u.ResetTokenHash)
	assert.Nil(t, u.ResetTokenExpiresAt)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "ghost@b.com"}, resetBase)
	assertKind(t, err, appErrors.KindNotFound)
}

func TestUpdateMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.register(t, "Jane Doe", "a@b.com")
	f.register(t, "John Roe", "taken@b.com")

	pw := "sneaky123"
	_, err := f.svc.UpdateMe(ctx, resp.User.ID, &UpdateMeRequest{Password: &pw})
	assertKind(t, err, appErrors.KindValidation)

	name, email := "Janet Doe", "Janet@B.com"
	updated, err := f.svc.UpdateMe(ctx, resp.User.ID, &UpdateMeRequest{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Janet Doe", updated.Name)
	assert.Equal(t, "janet@b.com", updated.Email)

	taken := "taken@b.com"
	_, err = f.svc.UpdateMe(ctx, resp.User.ID, &UpdateMeRequest{Email: &taken})
	assertKind(t, err, appErrors.KindConflict)
}

func TestUpdateUser_Role(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.register(t, "Jane Doe", "a@b.com")

	admin := "admin"
	updated, err := f.svc.UpdateUser(ctx, resp.User.ID, &UpdateUserRequest{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.Role)

	root := "root"
	_, err = f.svc.UpdateUser(ctx, resp.User.ID, &UpdateUserRequest{Role: &root})
	assertKind(t, err, appErrors.KindValidation)
	assert.ErrorIs(t, err, domainUser.ErrInvalidUserRole)

	_, err = f.svc.UpdateUser(ctx, uuid.New(), &UpdateUserRequest{Role: &admin})
	assertKind(t, err, appErrors.KindNotFound)
}

func TestDeleteUser_CascadesJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jane := f.register(t, "Jane Doe", "a@b.com")
	john := f.register(t, "John Roe", "j@b.com")

	for _, j := range []*domainJob.Job{
		{Company: "Acme", Slug: "acme", Position: "Eng", OwnerID: jane.User.ID},
		{Company: "Beta", Slug: "beta", Position: "Eng", OwnerID: jane.User.ID},
		{Company: "Gamma", Slug: "gamma", Position: "Eng", OwnerID: john.User.ID},
	} {
		require.NoError(t, f.jobs.Create(ctx, j))
	}

	require.NoError(t, f.svc.DeleteUser(ctx, jane.User.ID))

	_, err := f.svc.GetUser(ctx, jane.User.ID)
	assertKind(t, err, appErrors.KindNotFound)

	remaining, err := f.jobs.List(ctx, query.FromValues(nil))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, john.User.ID, remaining[0].OwnerID)

	err = f.svc.DeleteUser(ctx, jane.User.ID)
	assertKind(t, err, appErrors.KindNotFound)
}

type failingJobs struct {
	*memory.JobRepository
}

func (failingJobs) DeleteByOwner(context.Context, uuid.UUID) (int64, error) {
	return 0, errors.New("connection reset by peer")
}

func TestDeleteUser_RollsBackWhenJobDeletionFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jane := f.register(t, "Jane Doe", "a@b.com")
	require.NoError(t, f.jobs.Create(ctx, &domainJob.Job{Company: "Acme", Slug: "acme", Position: "Eng", OwnerID: jane.User.ID}))

	svc := NewService(f.users, failingJobs{f.jobs}, f.store, f.mailer, testConfig())
	err := svc.DeleteUser(ctx, jane.User.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset by peer")

	_, err = f.svc.GetUser(ctx, jane.User.ID)
	require.NoError(t, err)
	remaining, err := f.jobs.List(ctx, query.FromValues(nil))
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestListUsers_ExcludesInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jane := f.register(t, "Jane Doe", "a@b.com")
	f.register(t, "John Roe", "j@b.com")
	require.NoError(t, f.svc.DeleteUser(ctx, jane.User.ID))

	users, err := f.svc.ListUsers(ctx, query.FromValues(nil))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "John Roe", users[0].Name)

	_, err = f.svc.ListUsers(ctx, query.FromValues(map[string][]string{"password_hash": {"x"}}))
	assertKind(t, err, appErrors.KindValidation)
}

func TestCleanupExpiredResetTokens(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "Jane Doe", "a@b.com")
	f.requestReset(t, "a@b.com")

	f.clock.Advance(11 * time.Minute)
	f.svc.cleanupExpiredResetTokens(context.Background())

	u, err := f.users.GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Nil(t, u.ResetTokenHash)
}

func TestStartResetTokenCleanupJob_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.StartResetTokenCleanupJob(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup job did not stop")
	}
}
