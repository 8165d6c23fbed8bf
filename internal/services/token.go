package services

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"contactbook/internal/config"
)

// 令牌用途（scope 声明），校验时必须精确匹配。
const (
	ScopeAccess  = "access"
	ScopeRefresh = "refresh"
	ScopeEmail   = "email"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService 负责签发与校验 HS256 JWT（访问/刷新/邮件令牌）。
type TokenService struct {
	cfg config.Config
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

func (s *TokenService) issue(email, scope string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"iss":   s.cfg.JWT.Issuer,
		"sub":   email,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
		"scope": scope,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueAccessToken 签发短时访问令牌。
func (s *TokenService) IssueAccessToken(email string) (string, time.Time, error) {
	return s.issue(email, ScopeAccess, s.cfg.JWT.AccessTokenTTL)
}

// IssueRefreshToken 签发长时刷新令牌，调用方需持久化到用户记录。
func (s *TokenService) IssueRefreshToken(email string) (string, error) {
	tok, _, err := s.issue(email, ScopeRefresh, s.cfg.JWT.RefreshTokenTTL)
	return tok, err
}

// IssueEmailToken 签发用于邮箱验证链接的令牌。
func (s *TokenService) IssueEmailToken(email string) (string, error) {
	tok, _, err := s.issue(email, ScopeEmail, s.cfg.JWT.EmailTokenTTL)
	return tok, err
}

// Verify 校验令牌签名、有效期与用途，返回令牌主体（邮箱）。
// 任何不匹配（篡改、过期、scope 错误）均返回 ErrInvalidToken。
func (s *TokenService) Verify(tokenStr, wantScope string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	scope, _ := claims["scope"].(string)
	if scope != wantScope {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
