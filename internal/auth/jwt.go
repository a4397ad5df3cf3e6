package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken means the string could not be decoded as a JWT at all.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidToken covers decodable tokens that fail verification:
	// bad signature, unexpected algorithm, expired.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of an identity-provider token.
//
// The subject (RegisteredClaims.Subject) is the user's cognitoId; the role
// travels in the custom "custom:role" claim as "tenant" or "manager".
type Claims struct {
	Role  string `json:"custom:role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks token signatures. It accepts HS256 when a shared secret is
// configured and RS256 when a public key is configured; any other algorithm
// is rejected before the key is consulted.
//
// Why two algorithms?
//   - Production tokens are issued by the identity provider and signed with
//     its private RSA key. We only ever hold the public half, so this
//     service can verify tokens but never mint them.
//   - Local development and tests have no identity provider. A shared
//     HS256 secret lets `rentalrabbit token` (and GenerateToken in tests) issue
//     tokens the same gate accepts.
//   - The allowed list is built from what is configured. A deployment with
//     only a public key rejects HS256 outright, which closes the classic
//     "sign with the public key as an HMAC secret" confusion attack.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	methods   []string
}

func NewVerifier(secret string, publicKey *rsa.PublicKey) (*Verifier, error) {
	v := &Verifier{publicKey: publicKey}
	if secret != "" {
		v.secret = []byte(secret)
		v.methods = append(v.methods, jwt.SigningMethodHS256.Alg())
	}
	if publicKey != nil {
		v.methods = append(v.methods, jwt.SigningMethodRS256.Alg())
	}
	if len(v.methods) == 0 {
		return nil, fmt.Errorf("verifier needs a secret or a public key")
	}
	return v, nil
}

// LoadRSAPublicKey reads a PEM encoded RSA public key.
// TODO: fetch the identity provider's JWKS document and select keys by kid.
func LoadRSAPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}

// Parse verifies the token and returns its claims. Errors wrap either
// ErrMalformedToken or ErrInvalidToken.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	// ParseWithClaims decodes the token, then checks the algorithm against
	// WithValidMethods before v.key hands out a key, then verifies the
	// signature and the exp claim. A decode failure surfaces as
	// jwt.ErrTokenMalformed; everything after it is a verification failure.
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.key,
		jwt.WithValidMethods(v.methods),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// The subject is the cognitoId every handler keys on, so a token
	// without one is useless even if its signature is fine.
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Verifier) key(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, fmt.Errorf("hmac tokens not accepted")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.publicKey == nil {
			return nil, fmt.Errorf("rsa tokens not accepted")
		}
		return v.publicKey, nil
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// GenerateToken issues an HS256 token. Production tokens come from the
// identity provider; this exists for local development and tests.
func GenerateToken(subject, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "rentalrabbit",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
