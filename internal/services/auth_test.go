package services

import (
	"context"
	"testing"

	"fuel-tracker/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	users     *fakeUsers
	questions *fakeQuestions
	settings  *fakeSettings
	tx        *fakeTx
	jwt       *jwt.JWTUtil
	service   *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:     newFakeUsers(),
		questions: newFakeQuestions(),
		settings:  newFakeSettings(),
		tx:        &fakeTx{},
		jwt:       jwt.NewJWTUtil("test-secret", "168h", "15m"),
	}
	f.service = NewAuthService(f.users, f.questions, f.settings, f.tx, f.jwt)
	return f
}

func registerRequest(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:    email,
		Password: "secret123",
		Name:     "Rahim",
		SecurityQuestions: []SecurityQuestionInput{
			{Question: "First car?", Answer: "Corolla"},
			{Question: "Home town?", Answer: "Sylhet"},
		},
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	result, err := f.service.Register(ctx, registerRequest("  Rahim@Example.com "))
	require.NoError(t, err)

	assert.Equal(t, "rahim@example.com", result.User.Email)
	assert.Equal(t, "Rahim", result.User.Name)
	assert.Equal(t, 1, f.tx.calls)

	claims, err := f.jwt.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	stored, err := f.users.FindByEmail(ctx, "rahim@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password)

	questions, err := f.questions.FindByUser(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.NotEqual(t, "corolla", questions[0].Answer)

	settings, err := f.settings.FindByUser(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "BDT", settings.Currency)
	assert.Equal(t, 10, settings.EntriesPerPage)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)

	_, err = f.service.Register(ctx, registerRequest("RAHIM@example.com"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_DuplicateSecurityQuestionsRejected(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	req := registerRequest("rahim@example.com")
	req.SecurityQuestions = append(req.SecurityQuestions, SecurityQuestionInput{Question: " first CAR? ", Answer: "Axio"})
	_, err := f.service.Register(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	exists, err := f.service.CheckEmail(ctx, "rahim@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	result, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)
	err = f.service.SetSecurityQuestions(ctx, result.User.ID, &SetSecurityQuestionsRequest{
		Questions: []SecurityQuestionInput{
			{Question: "Favourite road?", Answer: "N2"},
			{Question: "Favourite road?", Answer: "N8"},
		},
	})
	assert.ErrorIs(t, err, ErrValidation)

	questions, err := f.service.MySecurityQuestions(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"First car?", "Home town?"}, questions)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		result, err := f.service.Login(ctx, &LoginRequest{Email: "Rahim@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := f.service.Login(ctx, &LoginRequest{Email: "rahim@example.com", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, err := f.service.Login(ctx, &LoginRequest{Email: "karim@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_CheckEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)

	exists, err := f.service.CheckEmail(ctx, "RAHIM@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.service.CheckEmail(ctx, "karim@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuthService_PasswordRecovery(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)

	questions, err := f.service.SecurityQuestionsForEmail(ctx, "rahim@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"First car?", "Home town?"}, questions)

	_, err = f.service.SecurityQuestionsForEmail(ctx, "karim@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("WrongAnswer", func(t *testing.T) {
		_, err := f.service.VerifySecurityQuestions(ctx, &VerifySecurityQuestionsRequest{
			Email: "rahim@example.com",
			Answers: []SecurityQuestionInput{
				{Question: "First car?", Answer: "Civic"},
				{Question: "Home town?", Answer: "Sylhet"},
			},
		})
		assert.ErrorIs(t, err, ErrSecurityAnswers)
	})

	t.Run("AnswerCountMismatch", func(t *testing.T) {
		_, err := f.service.VerifySecurityQuestions(ctx, &VerifySecurityQuestionsRequest{
			Email:   "rahim@example.com",
			Answers: []SecurityQuestionInput{{Question: "First car?", Answer: "Corolla"}},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ResetWithSessionTokenRejected", func(t *testing.T) {
		login, err := f.service.Login(ctx, &LoginRequest{Email: "rahim@example.com", Password: "secret123"})
		require.NoError(t, err)

		err = f.service.ResetPassword(ctx, &ResetPasswordRequest{ResetToken: login.Token, NewPassword: "newsecret"})
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("VerifyAndReset", func(t *testing.T) {
		verified, err := f.service.VerifySecurityQuestions(ctx, &VerifySecurityQuestionsRequest{
			Email: "rahim@example.com",
			Answers: []SecurityQuestionInput{
				{Question: "Home town?", Answer: "  sylhet "},
				{Question: "First car?", Answer: "COROLLA"},
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, verified.ResetToken)

		err = f.service.ResetPassword(ctx, &ResetPasswordRequest{ResetToken: verified.ResetToken, NewPassword: "newsecret"})
		require.NoError(t, err)

		_, err = f.service.Login(ctx, &LoginRequest{Email: "rahim@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = f.service.Login(ctx, &LoginRequest{Email: "rahim@example.com", Password: "newsecret"})
		assert.NoError(t, err)
	})
}

func TestAuthService_SetSecurityQuestions(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	result, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)

	err = f.service.SetSecurityQuestions(ctx, result.User.ID, &SetSecurityQuestionsRequest{
		Questions: []SecurityQuestionInput{{Question: "Favourite road?", Answer: "N2"}},
	})
	require.NoError(t, err)

	questions, err := f.service.MySecurityQuestions(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Favourite road?"}, questions)
	assert.Equal(t, 2, f.tx.calls)

	assert.ErrorIs(t, f.service.SetSecurityQuestions(ctx, "not-an-id", &SetSecurityQuestionsRequest{}), ErrValidation)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	result, err := f.service.Register(ctx, registerRequest("rahim@example.com"))
	require.NoError(t, err)

	me, err := f.service.Me(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, result.User, me)

	_, err = f.service.Me(ctx, "64b7f0c2a1b2c3d4e5f60718")
	assert.ErrorIs(t, err, ErrNotFound)
}
