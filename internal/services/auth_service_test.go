package services

import (
	"context"
	"testing"
	"time"

	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/auth"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (*AuthService, *fakeAccountStore, *auth.TokenIssuer) {
	accounts := newFakeAccountStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthService(accounts, tokens), accounts, tokens
}

func TestRegisterPatientIsImmediatelyApproved(t *testing.T) {
	svc, _, _ := newAuthFixture()

	account, err := svc.Register(context.Background(), &models.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correcthorse",
		Name:     "Ada Jensen",
		Role:     models.RolePatient,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, account.Approval)
	assert.True(t, account.CanLogin())
}

func TestRegisterDoctorStartsPending(t *testing.T) {
	svc, _, _ := newAuthFixture()

	account, err := svc.Register(context.Background(), &models.RegisterRequest{
		Email:    "mensah@example.com",
		Password: "correcthorse",
		Name:     "Dr. Mensah",
		Role:     models.RoleDoctor,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, account.Approval)
	assert.False(t, account.CanLogin())
}

func TestRegisterSameEmailDifferentRolesAllowed(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "dual@example.com", Password: "correcthorse", Name: "Dual", Role: models.RolePatient,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &models.RegisterRequest{
		Email: "dual@example.com", Password: "correcthorse", Name: "Dual", Role: models.RoleDoctor,
	})
	assert.NoError(t, err)

	// Same (email, role) pair is a conflict.
	_, err = svc.Register(ctx, &models.RegisterRequest{
		Email: "dual@example.com", Password: "correcthorse", Name: "Dual", Role: models.RolePatient,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	cases := []models.RegisterRequest{
		{Email: "", Password: "correcthorse", Name: "X", Role: models.RolePatient},
		{Email: "no-at-sign", Password: "correcthorse", Name: "X", Role: models.RolePatient},
		{Email: "x@example.com", Password: "short", Name: "X", Role: models.RolePatient},
		{Email: "x@example.com", Password: "correcthorse", Name: "", Role: models.RolePatient},
		{Email: "x@example.com", Password: "correcthorse", Name: "X", Role: models.RoleAdmin},
	}

	for _, req := range cases {
		_, err := svc.Register(ctx, &req)
		assert.True(t, apperrors.IsValidation(err), "expected validation error for %+v", req)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _, tokens := newAuthFixture()
	ctx := context.Background()

	account, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "ada@example.com", Password: "correcthorse", Name: "Ada", Role: models.RolePatient,
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &models.LoginRequest{
		Email: "ada@example.com", Password: "correcthorse", Role: models.RolePatient,
	})
	require.NoError(t, err)

	subject, err := tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, subject)
}

func TestLoginRejectsWrongPasswordAndUnknownAccountAlike(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "ada@example.com", Password: "correcthorse", Name: "Ada", Role: models.RolePatient,
	})
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, &models.LoginRequest{
		Email: "ada@example.com", Password: "not-the-password", Role: models.RolePatient,
	})
	_, errUnknown := svc.Login(ctx, &models.LoginRequest{
		Email: "nobody@example.com", Password: "correcthorse", Role: models.RolePatient,
	})

	assert.ErrorIs(t, errWrong, apperrors.ErrUnauthenticated)
	assert.ErrorIs(t, errUnknown, apperrors.ErrUnauthenticated)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLoginBlocksPendingDoctorUntilApproved(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	doctor, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "mensah@example.com", Password: "correcthorse", Name: "Dr. Mensah", Role: models.RoleDoctor,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{
		Email: "mensah@example.com", Password: "correcthorse", Role: models.RoleDoctor,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, svc.ApproveDoctor(ctx, doctor.ID))

	_, err = svc.Login(ctx, &models.LoginRequest{
		Email: "mensah@example.com", Password: "correcthorse", Role: models.RoleDoctor,
	})
	assert.NoError(t, err)
}

func TestRejectDoctorKeepsLoginBlocked(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	doctor, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "mensah@example.com", Password: "correcthorse", Name: "Dr. Mensah", Role: models.RoleDoctor,
	})
	require.NoError(t, err)

	pending, err := svc.ListPendingDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.RejectDoctor(ctx, doctor.ID))

	_, err = svc.Login(ctx, &models.LoginRequest{
		Email: "mensah@example.com", Password: "correcthorse", Role: models.RoleDoctor,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	pending, err = svc.ListPendingDoctors(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
