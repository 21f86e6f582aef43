package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"

	issuer = "fuel-tracker"
)

var ErrWrongPurpose = errors.New("token issued for a different purpose")

type JWTUtil struct {
	secretKey   []byte
	expiry      time.Duration
	resetExpiry time.Duration
}

type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewJWTUtil builds a signer from the configured secret and lifetimes.
// Unparseable lifetimes fall back to seven days for sessions and fifteen
// minutes for password reset tokens.
func NewJWTUtil(secret, expiry, resetExpiry string) *JWTUtil {
	if secret == "" {
		secret = "default-secret-key-change-this-in-production"
	}

	sessionTTL, err := time.ParseDuration(expiry)
	if err != nil || sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}

	resetTTL, err := time.ParseDuration(resetExpiry)
	if err != nil || resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}

	return &JWTUtil{
		secretKey:   []byte(secret),
		expiry:      sessionTTL,
		resetExpiry: resetTTL,
	}
}

func (j *JWTUtil) Expiry() time.Duration {
	return j.expiry
}

func (j *JWTUtil) ResetExpiry() time.Duration {
	return j.resetExpiry
}

func (j *JWTUtil) GenerateToken(userID, email, name string) (string, error) {
	return j.sign(userID, email, name, PurposeSession, j.expiry)
}

// GenerateResetToken issues a short lived token that only authorises a
// password reset for userID.
func (j *JWTUtil) GenerateResetToken(userID, email string) (string, error) {
	return j.sign(userID, email, "", PurposePasswordReset, j.resetExpiry)
}

func (j *JWTUtil) sign(userID, email, name, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		Name:    name,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateToken accepts session tokens only.
func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, PurposeSession)
}

func (j *JWTUtil) ValidateResetToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, PurposePasswordReset)
}

func (j *JWTUtil) validate(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}

	return claims, nil
}

func (j *JWTUtil) RefreshToken(tokenString string) (string, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	// Reissue only inside the last day of validity
	if time.Until(claims.ExpiresAt.Time) > 24*time.Hour {
		return tokenString, nil
	}

	return j.GenerateToken(claims.UserID, claims.Email, claims.Name)
}
