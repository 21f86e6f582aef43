package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-tracker/internal/models"
	"fuel-tracker/internal/repository"
	"fuel-tracker/pkg/database"
	"fuel-tracker/pkg/jwt"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type AuthService struct {
	users     UserStore
	questions SecurityQuestionStore
	settings  SettingsStore
	tx        database.Transactor
	jwtUtil   *jwt.JWTUtil
	log       *log.Entry
}

func NewAuthService(users UserStore, questions SecurityQuestionStore, settings SettingsStore, tx database.Transactor, jwtUtil *jwt.JWTUtil) *AuthService {
	return &AuthService{
		users:     users,
		questions: questions,
		settings:  settings,
		tx:        tx,
		jwtUtil:   jwtUtil,
		log:       logger.For(logger.ComponentAuth),
	}
}

type SecurityQuestionInput struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

type RegisterRequest struct {
	Email             string                  `json:"email" validate:"required,email"`
	Password          string                  `json:"password" validate:"required,min=6"`
	Name              string                  `json:"name,omitempty" validate:"omitempty,max=100"`
	SecurityQuestions []SecurityQuestionInput `json:"securityQuestions" validate:"required,min=1,dive"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifySecurityQuestionsRequest struct {
	Email   string                  `json:"email" validate:"required,email"`
	Answers []SecurityQuestionInput `json:"answers" validate:"required,min=1,dive"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type SetSecurityQuestionsRequest struct {
	Questions []SecurityQuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// AuthResult is returned by register and login. The token is also set as the
// auth cookie by the handler.
type AuthResult struct {
	User  *models.AuthUser `json:"user"`
	Token string           `json:"token"`
}

type VerifyResult struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// TokenTTL is how long session tokens, and so the auth cookie, live.
func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtUtil.Expiry()
}

// Register creates the user, their hashed security questions and default
// settings in one transaction and logs them in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)

	passwordHash, err := hash(req.Password)
	if err != nil {
		return nil, err
	}
	questions, err := hashQuestions(req.SecurityQuestions)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return ErrEmailExists
		}

		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.questions.ReplaceForUser(ctx, user.ID, questions); err != nil {
			return fmt.Errorf("failed to store security questions: %w", err)
		}
		if _, err := s.settings.Upsert(ctx, models.DefaultSettings(user.ID)); err != nil {
			return fmt.Errorf("failed to create settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField(logger.FieldUserID, user.ID.Hex()).Info("User registered")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user.ToAuthUser(), Token: token}, nil
}

// RefreshToken reissues a session token that is close to expiry.
func (s *AuthService) RefreshToken(tokenString string) (string, error) {
	token, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	return token, nil
}

func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, normalizeEmail(email))
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.AuthUser, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user.ToAuthUser(), nil
}

// SecurityQuestionsForEmail returns the recovery questions of the account
// with the given email, without their answers.
func (s *AuthService) SecurityQuestionsForEmail(ctx context.Context, email string) ([]string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	questions, err := s.questionTexts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoSecurityQuestions
	}
	return questions, nil
}

func (s *AuthService) MySecurityQuestions(ctx context.Context, userID string) ([]string, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	return s.questionTexts(ctx, id)
}

func (s *AuthService) questionTexts(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	stored, err := s.questions.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(stored))
	for i, q := range stored {
		texts[i] = q.Question
	}
	return texts, nil
}

// VerifySecurityQuestions checks every stored question against the submitted
// answers and, when all match, issues a short-lived password reset token.
func (s *AuthService) VerifySecurityQuestions(ctx context.Context, req *VerifySecurityQuestionsRequest) (*VerifyResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stored, err := s.questions.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, ErrNoSecurityQuestions
	}
	if len(stored) != len(req.Answers) {
		return nil, fmt.Errorf("%w: expected %d answers", ErrValidation, len(stored))
	}

	answers := make(map[string]string, len(req.Answers))
	for _, a := range req.Answers {
		answers[strings.TrimSpace(a.Question)] = a.Answer
	}
	for _, q := range stored {
		answer, ok := answers[q.Question]
		if !ok || bcrypt.CompareHashAndPassword([]byte(q.Answer), []byte(normalizeAnswer(answer))) != nil {
			s.log.WithField(logger.FieldUserID, user.ID.Hex()).Info("Security question verification failed")
			return nil, ErrSecurityAnswers
		}
	}

	token, err := s.jwtUtil.GenerateResetToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	return &VerifyResult{ResetToken: token, ExpiresAt: time.Now().Add(s.jwtUtil.ResetExpiry())}, nil
}

// ResetPassword sets a new password for the account named by a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	claims, err := s.jwtUtil.ValidateResetToken(req.ResetToken)
	if err != nil {
		return ErrInvalidResetToken
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return ErrInvalidResetToken
	}

	passwordHash, err := hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, id, passwordHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.WithField(logger.FieldUserID, claims.UserID).Info("Password reset")
	return nil
}

// SetSecurityQuestions replaces the user's recovery questions atomically.
func (s *AuthService) SetSecurityQuestions(ctx context.Context, userID string, req *SetSecurityQuestionsRequest) error {
	id, err := parseID("user", userID)
	if err != nil {
		return err
	}
	questions, err := hashQuestions(req.Questions)
	if err != nil {
		return err
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.questions.ReplaceForUser(ctx, id, questions)
	})
}

func hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashed), nil
}

// hashQuestions hashes the answers. Question texts must be unique, compared
// case-insensitively.
func hashQuestions(inputs []SecurityQuestionInput) ([]*models.SecurityQuestion, error) {
	now := time.Now()
	questions := make([]*models.SecurityQuestion, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		key := strings.ToLower(strings.TrimSpace(input.Question))
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate security question %q", ErrValidation, strings.TrimSpace(input.Question))
		}
		seen[key] = true

		answer, err := hash(normalizeAnswer(input.Answer))
		if err != nil {
			return nil, err
		}
		questions[i] = &models.SecurityQuestion{
			Question:  strings.TrimSpace(input.Question),
			Answer:    answer,
			CreatedAt: now,
		}
	}
	return questions, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Answers are compared case-insensitively and without surrounding blanks.
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
