package service

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/config"
	"github.com/pribylovaa/gearguard/internal/models"
)

// TokenKind - тип токена (claim "typ").
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims - полезная нагрузка JWT. Refresh-токен несёт только uid:
// роль и прочие атрибуты перечитываются из хранилища при ротации.
type Claims struct {
	UserID   string    `json:"uid"`
	Email    string    `json:"email,omitempty"`
	Username string    `json:"username,omitempty"`
	Role     string    `json:"role,omitempty"`
	Kind     TokenKind `json:"typ"`
	jwt.RegisteredClaims

	uid uuid.UUID
}

// UID возвращает идентификатор пользователя, проверенный Verify.
func (c *Claims) UID() uuid.UUID { return c.uid }

// TokenService выпускает и проверяет access/refresh JWT (HS256).
// Access и refresh подписываются разными секретами. Verify не обращается к хранилищу.
type TokenService struct {
	cfg config.AuthConfig
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// IssueAccessToken выпускает access-токен с id/email/username/role.
func (t *TokenService) IssueAccessToken(user *models.User, now time.Time) (string, time.Time, error) {
	const op = "service.token.IssueAccessToken"

	exp := now.Add(t.cfg.AccessTokenTTL)
	claims := Claims{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(t.cfg.Audience),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// IssueRefreshToken выпускает refresh-токен. jti делает каждый токен уникальным,
// даже если две ротации попали в одну секунду.
func (t *TokenService) IssueRefreshToken(userID uuid.UUID, now time.Time) (string, time.Time, error) {
	const op = "service.token.IssueRefreshToken"

	exp := now.Add(t.cfg.RefreshTokenTTL)
	claims := Claims{
		UserID: userID.String(),
		Kind:   KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.cfg.Issuer,
			Subject:   userID.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.RefreshTokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Verify проверяет подпись, issuer, audience (для access), срок и тип токена.
// Ошибки: ErrTokenMalformed, ErrInvalidSignature, ErrTokenExpired (все оборачивают ErrInvalidToken).
func (t *TokenService) Verify(token string, kind TokenKind) (*Claims, error) {
	const op = "service.token.Verify"

	secret := t.cfg.AccessTokenSecret
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
	}

	switch kind {
	case KindAccess:
		if len(t.cfg.Audience) > 0 {
			opts = append(opts, jwt.WithAudience(t.cfg.Audience...))
		}
	case KindRefresh:
		secret = t.cfg.RefreshTokenSecret
	default:
		return nil, fmt.Errorf("%s: unknown kind %q: %w", op, kind, ErrTokenMalformed)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
		}
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%s: kind %q: %w", op, claims.Kind, ErrTokenMalformed)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
	}
	claims.uid = uid

	return claims, nil
}

// hashToken - sha256 от токена в base64url; в БД и кэше хранится только он.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
