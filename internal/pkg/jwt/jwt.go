package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gh-integration/internal/pkg/config"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

// UserClaims 用户Claims
type UserClaims struct {
	UserID      int64    `json:"uid"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	AuthType    string   `json:"auth_type"` // ldap or local
	Roles       []string `json:"roles"`
	Type        string   `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

// Subject 签发会话Token所需的用户信息
type Subject struct {
	UserID      int64
	Username    string
	DisplayName string
	AuthType    string
	Roles       []string
}

func sign(s Subject, tokenType string, ttl time.Duration) (string, error) {
	cfg := config.GlobalConfig.Auth.JWT
	now := time.Now()

	claims := UserClaims{
		UserID:      s.UserID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		AuthType:    s.AuthType,
		Roles:       s.Roles,
		Type:        tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// GenerateAccessToken 生成访问Token
func GenerateAccessToken(s Subject) (string, error) {
	ttl := time.Duration(config.GlobalConfig.Auth.JWT.AccessTokenExpire) * time.Second
	return sign(s, constants.JWTTypeAccess, ttl)
}

// GenerateRefreshToken 生成刷新Token
func GenerateRefreshToken(s Subject) (string, error) {
	ttl := time.Duration(config.GlobalConfig.Auth.JWT.RefreshTokenExpire) * time.Second
	return sign(s, constants.JWTTypeRefresh, ttl)
}

// ParseToken 解析Token, 过期的Token返回 ErrTokenExpired
func ParseToken(tokenString string) (*UserClaims, error) {
	cfg := config.GlobalConfig.Auth.JWT

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgErrors.ErrTokenExpired
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeUnauthorized, "解析Token失败", err)
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, pkgErrors.ErrInvalidToken
}

// ValidateToken 验证Token有效性及类型
func ValidateToken(tokenString, tokenType string) (*UserClaims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenType {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "无效的Token类型")
	}
	return claims, nil
}
