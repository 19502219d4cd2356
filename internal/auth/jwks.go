package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwk is one RSA entry of a JSON Web Key Set.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type cognitoClaims struct {
	TokenUse string `json:"token_use"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// JWKSVerifier validates RS256 tokens issued by a Cognito user pool. The key set is fetched once
// at construction and is read-only afterwards.
type JWKSVerifier struct {
	keys     map[string]*rsa.PublicKey
	issuer   string
	clientID string
}

// NewJWKSVerifier downloads the key set at jwksURL. When clientID is non-empty, id tokens must
// carry it as audience and access tokens as client_id.
func NewJWKSVerifier(ctx context.Context, client *http.Client, jwksURL, issuer, clientID string) (*JWKSVerifier, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}
	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			return nil, fmt.Errorf("jwk %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks at %s has no RSA keys", jwksURL)
	}
	return &JWKSVerifier{keys: keys, issuer: issuer, clientID: clientID}, nil
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// Subject validates signature, issuer, expiry and token use, and returns the sub claim.
func (v *JWKSVerifier) Subject(_ context.Context, tokenString string) (string, error) {
	var claims cognitoClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := v.keys[kid]
		if !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	switch claims.TokenUse {
	case "id":
		if v.clientID != "" && !containsString(claims.Audience, v.clientID) {
			return "", ErrInvalidToken
		}
	case "access":
		if v.clientID != "" && claims.ClientID != v.clientID {
			return "", ErrInvalidToken
		}
	default:
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
