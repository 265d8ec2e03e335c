package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity contained in a JWT.
type Claims struct {
	Sub     string
	Email   string
	Name    string
	Picture string
	Exp     int64
	Iat     int64
}

type tokenClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

const tokenTTL = 24 * time.Hour

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// SignJWT signs the given claims with HS256 using the configured secret.
func SignJWT(claims Claims) (string, error) {
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}

	now := time.Now().UTC()
	iat := now
	if claims.Iat != 0 {
		iat = time.Unix(claims.Iat, 0)
	}
	exp := now.Add(tokenTTL)
	if claims.Exp != 0 {
		exp = time.Unix(claims.Exp, 0)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Sub,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return token.SignedString(secret)
}

// VerifyJWT verifies a token and returns its claims.
func VerifyJWT(raw string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}

	var parsed tokenClaims
	_, err = jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		Sub:     parsed.Subject,
		Email:   parsed.Email,
		Name:    parsed.Name,
		Picture: parsed.Picture,
	}
	if parsed.ExpiresAt != nil {
		out.Exp = parsed.ExpiresAt.Unix()
	}
	if parsed.IssuedAt != nil {
		out.Iat = parsed.IssuedAt.Unix()
	}
	return out, nil
}

func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	env := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env == "production" || env == "prod" {
		if secret == "" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
	}
	if secret == "" {
		secret = "dev-secret"
	}
	return []byte(secret), nil
}
