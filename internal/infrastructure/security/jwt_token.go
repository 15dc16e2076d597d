package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTManager signs access and refresh tokens with separate HMAC secrets.
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string

	now func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer, audience string) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Issuer:        issuer,
		Audience:      audience,
		now:           time.Now,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(userID, email, role string) (string, error) {
	return m.sign(&Claims{UserID: userID, Email: email, Role: role, Type: tokenTypeAccess}, m.AccessSecret, m.AccessTTL)
}

func (m *JWTManager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(&Claims{UserID: userID, Type: tokenTypeRefresh}, m.RefreshSecret, m.RefreshTTL)
}

func (m *JWTManager) VerifyAccessToken(token string) (*service.TokenPayload, error) {
	claims, err := m.parse(token, m.AccessSecret, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &service.TokenPayload{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *JWTManager) VerifyRefreshToken(token string) (string, error) {
	claims, err := m.parse(token, m.RefreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (m *JWTManager) AccessTokenTTL() time.Duration  { return m.AccessTTL }
func (m *JWTManager) RefreshTokenTTL() time.Duration { return m.RefreshTTL }

func (m *JWTManager) sign(claims *Claims, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.UserID,
		Issuer:    m.Issuer,
		Audience:  jwt.ClaimStrings{m.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *JWTManager) parse(tokenStr string, secret []byte, wantType string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithIssuer(m.Issuer),
		jwt.WithAudience(m.Audience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tkn.Valid || claims.Type != wantType {
		return nil, service.ErrInvalidToken
	}
	return claims, nil
}

var _ service.TokenService = (*JWTManager)(nil)
