package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the user identity and role inside access and refresh tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 access/refresh token pairs.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTManager(secret string, accessMinutes, refreshDays int) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshDays) * 24 * time.Hour,
	}
}

func (j *JWTManager) generate(userID, role, audience string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Audience:  jwt.ClaimStrings{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	return signed, exp, err
}

func (j *JWTManager) GenerateAccessToken(userID, role string) (string, time.Time, error) {
	return j.generate(userID, role, "access", j.accessTTL)
}

func (j *JWTManager) GenerateRefreshToken(userID, role string) (string, time.Time, error) {
	return j.generate(userID, role, "refresh", j.refreshTTL)
}

// VerifyToken checks the signature and expiry and returns the claims.
func (j *JWTManager) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess verifies tokenStr as an access token and returns its claims.
func (j *JWTManager) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := j.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if !containsAudience(claims.Audience, "access") {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh verifies tokenStr as a refresh token and returns its claims.
func (j *JWTManager) ParseRefresh(tokenStr string) (*Claims, error) {
	claims, err := j.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if !containsAudience(claims.Audience, "refresh") {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseBearerToken extracts the token from an Authorization header.
func ParseBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header empty")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

func containsAudience(aud jwt.ClaimStrings, target string) bool {
	for _, a := range aud {
		if a == target {
			return true
		}
	}
	return false
}
