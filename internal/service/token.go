package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
)

// Purpose claims carried by issued tokens.
const (
	ClaimID          = "id"
	ClaimConfirm     = "confirm"
	ClaimReset       = "reset"
	ClaimChangeEmail = "change_email"
	ClaimNewEmail    = "new_email"
)

// Token is a verified token.
type Token struct {
	Subject   string
	Claims    map[string]any
	ExpiresAt time.Time
}

// Claim returns a purpose claim as a string. Callers check ok before
// trusting the value.
func (t *Token) Claim(key string) (string, bool) {
	v, ok := t.Claims[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// TokenService issues and verifies HS256 tokens. The secret is read only
// after construction.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for subject that expires after ttl.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	return s.IssueWithClaims(subject, nil, ttl)
}

// IssueWithClaims signs a token carrying extra purpose claims. Registered
// claim names in claims are overwritten.
func (s *TokenService) IssueWithClaims(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	now := s.now()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc["sub"] = subject
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(s.secret)
	if err != nil {
		return "", domainerrors.WrapError(domainerrors.ErrInternal, err)
	}
	return signed, nil
}

// Verify checks structure, then signature, then expiry. Structural
// problems are reported before any signature work is done.
func (s *TokenService) Verify(raw string) (*Token, error) {
	if err := checkStructure(raw); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	subject, _ := claims.GetSubject()
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, domainerrors.WrapError(domainerrors.ErrMalformedToken, err)
	}

	return &Token{Subject: subject, Claims: claims, ExpiresAt: exp.Time}, nil
}

func checkStructure(raw string) error {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return domainerrors.ErrMalformedToken
	}
	for _, part := range parts[:2] {
		data, err := base64.RawURLEncoding.Strict().DecodeString(part)
		if err != nil {
			return domainerrors.WrapError(domainerrors.ErrMalformedToken, err)
		}
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return domainerrors.WrapError(domainerrors.ErrMalformedToken, err)
		}
	}
	return nil
}

func classifyTokenError(err error) error {
	var corrupt base64.CorruptInputError
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.As(err, &corrupt):
		return domainerrors.WrapError(domainerrors.ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainerrors.WrapError(domainerrors.ErrTokenExpired, err)
	default:
		return domainerrors.WrapError(domainerrors.ErrMalformedToken, err)
	}
}
