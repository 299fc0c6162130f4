package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Validator verifies bearer tokens. HS256 tokens are checked against Secret;
// RS256 tokens are checked against the JWKS key named by the kid header.
type Validator struct {
	secret   []byte
	jwks     *JWKSClient
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

type ValidatorConfig struct {
	Secret   string
	JWKS     *JWKSClient
	Issuer   string
	Audience string
	Leeway   time.Duration
}

func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	secret := []byte(strings.TrimSpace(cfg.Secret))
	if len(secret) == 0 && cfg.JWKS == nil {
		return nil, errors.New("jwt validation needs a secret or a jwks url")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = 5 * time.Second
	}
	return &Validator{
		secret:   secret,
		jwks:     cfg.JWKS,
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		leeway:   leeway,
		now:      time.Now,
	}, nil
}

func (v *Validator) Validate(ctx context.Context, token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithValidMethods(v.methods()),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if len(v.secret) == 0 {
				return nil, errors.New("hmac tokens are not accepted")
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.jwks == nil {
				return nil, errors.New("rsa tokens are not accepted")
			}
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid header")
			}
			return v.jwks.Get(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Validator) methods() []string {
	var out []string
	if len(v.secret) > 0 {
		out = append(out, jwt.SigningMethodHS256.Alg())
	}
	if v.jwks != nil {
		out = append(out, jwt.SigningMethodRS256.Alg())
	}
	return out
}

// IssueHS256 mints a token for local tooling and tests.
func IssueHS256(secret string, claims Claims, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret is required")
	}
	now := time.Now()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil && ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(secret)))
}
