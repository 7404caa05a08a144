package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrRefreshExpired    = errors.New("refresh expired")
	ErrRefreshInvalid    = errors.New("refresh invalid")
	ErrTokenParseFailure = errors.New("token parse failure")
)

const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Identity is what a token says about its holder.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Locale string `json:"locale"`
}

type Claims struct {
	Identity
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type TokenManager struct {
	cfg JWTConfig
	now func() time.Time
}

func NewTokenManager(cfg JWTConfig) *TokenManager {
	return &TokenManager{cfg: cfg, now: time.Now}
}

func (m *TokenManager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

func (m *TokenManager) GeneratePair(id Identity) (*Pair, error) {
	now := m.now()

	access, err := m.sign(id, subjectAccess, now, m.cfg.AccessTTL, m.cfg.AccessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(id, subjectRefresh, now, m.cfg.RefreshTTL, m.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(id Identity, subject string, now time.Time, ttl time.Duration, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseAccess validates an access token.
func (m *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, m.cfg.AccessSecret, subjectAccess)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, err
		}
	}
	return claims, nil
}

// Refresh issues a new pair from a valid refresh token.
func (m *TokenManager) Refresh(refreshToken string) (*Pair, *Claims, error) {
	claims, err := m.parse(refreshToken, m.cfg.RefreshSecret, subjectRefresh)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, nil, ErrRefreshInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, nil, ErrRefreshExpired
		}
		return nil, nil, err
	}
	pair, err := m.GeneratePair(claims.Identity)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

func (m *TokenManager) parse(tokenStr, secret, subject string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithSubject(subject),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrTokenParseFailure
	}
	return token.Claims.(*Claims), nil
}
