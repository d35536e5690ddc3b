package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/auth"
	"github.com/fathima-sithara/social-app/internal/mailer"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/repository"
	"github.com/fathima-sithara/social-app/internal/utils"
)

const (
	otpPrefix      = "otp:register:"
	pendingPrefix  = "pending:"
	otpRatePrefix  = "otp_rate:"
	refreshPrefix  = "refresh:"
	otpCodeLength  = 6
)

// pendingRegistration is the temp record held in the code store between
// register and confirm. No user document exists until the OTP is confirmed.
type pendingRegistration struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `json:"password_hash"`
}

// TokenPair is the result of a successful login, confirm or refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthService struct {
	users       repository.UserRepository
	codes       CodeStore
	mail        mailer.Mailer
	jwt         *auth.JWTManager
	otpTTL      time.Duration
	otpPerHour  int
	refreshTTL  time.Duration
	log         *zap.SugaredLogger
}

func NewAuthService(
	users repository.UserRepository,
	codes CodeStore,
	mail mailer.Mailer,
	jwtManager *auth.JWTManager,
	otpTTLMinutes, otpRateLimitPerHour, refreshTTLDays int,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		users:      users,
		codes:      codes,
		mail:       mail,
		jwt:        jwtManager,
		otpTTL:     time.Duration(otpTTLMinutes) * time.Minute,
		otpPerHour: otpRateLimitPerHour,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
		log:        log,
	}
}

// Register stores a pending registration and emails a fresh OTP. Requesting
// again before expiry overwrites both: the newest code supersedes any earlier
// one, which then no longer confirms.
func (s *AuthService) Register(ctx context.Context, username, email, phone, password string) error {
	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	}
	if existing, err := s.users.FindByUsername(ctx, username); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("username already taken: %w", apperr.ErrConflict)
	}

	count, err := s.codes.Incr(ctx, otpRatePrefix+email, time.Hour)
	if err != nil {
		return err
	}
	if count > int64(s.otpPerHour) {
		return fmt.Errorf("too many OTP requests for %s: %w", email, apperr.ErrRateLimited)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	pending, err := json.Marshal(pendingRegistration{
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, pendingPrefix+email, string(pending), s.otpTTL); err != nil {
		return err
	}

	code := utils.GenerateOTP(otpCodeLength)
	if err := s.codes.Set(ctx, otpPrefix+email, code, s.otpTTL); err != nil {
		return err
	}

	body := fmt.Sprintf("Your verification code is <b>%s</b>. It is valid for %d minutes.",
		code, int(s.otpTTL.Minutes()))
	if err := s.mail.SendEmail(ctx, email, "Verify your account", body); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// Confirm checks the OTP, creates the account from the pending record and
// logs the new user in.
func (s *AuthService) Confirm(ctx context.Context, email, code string) (*models.User, *TokenPair, error) {
	stored, err := s.codes.Get(ctx, otpPrefix+email)
	if err != nil {
		return nil, nil, err
	}
	if stored == "" {
		return nil, nil, fmt.Errorf("otp expired or never requested: %w", apperr.ErrUnauthorized)
	}
	if stored != code {
		return nil, nil, fmt.Errorf("invalid otp: %w", apperr.ErrUnauthorized)
	}

	raw, err := s.codes.Get(ctx, pendingPrefix+email)
	if err != nil {
		return nil, nil, err
	}
	if raw == "" {
		return nil, nil, fmt.Errorf("registration expired: %w", apperr.ErrUnauthorized)
	}
	var pending pendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Username:     pending.Username,
		Email:        pending.Email,
		Phone:        pending.Phone,
		PasswordHash: pending.PasswordHash,
		Role:         models.RoleUser,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, nil, fmt.Errorf("account already exists: %w", apperr.ErrConflict)
		}
		return nil, nil, err
	}

	_ = s.codes.Del(ctx, otpPrefix+email)
	_ = s.codes.Del(ctx, pendingPrefix+email)

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login returns distinct messages for a disabled account and for bad
// credentials: the former is actionable by support, the latter is not.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("account disabled: %w", apperr.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh rotates the token pair after checking the presented refresh token
// against the stored hash.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}
	stored, err := s.codes.Get(ctx, refreshPrefix+claims.UserID)
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != hashToken(refreshToken) {
		return nil, fmt.Errorf("refresh token revoked: %w", apperr.ErrUnauthorized)
	}

	oid, err := parseObjectID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("account disabled: %w", apperr.ErrForbidden)
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.codes.Del(ctx, refreshPrefix+userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, exp, err := s.jwt.GenerateAccessToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.jwt.GenerateRefreshToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Set(ctx, refreshPrefix+user.ID.Hex(), hashToken(refresh), s.refreshTTL); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
