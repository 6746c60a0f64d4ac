package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAppToken 签发 GitHub App JWT (RS256)
// iat=now, exp=now+ttl, iss=appID; now 由调用方读取一次并截断到秒
func GenerateAppToken(appID, privateKeyPEM string, now time.Time, ttl time.Duration) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    appID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}
