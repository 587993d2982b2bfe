package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator resolves the caller identity of a request from its headers.
type Authenticator interface {
	Authenticate(ctx context.Context, header http.Header) (string, error)
}

// AllowListRepository defines lookups against the provisioned identities.
type AllowListRepository interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Add(ctx context.Context, userID string) error
}

// Digest returns the hex-encoded SHA-256 of a credential. The result is the
// caller's identity and the allow-list key.
func Digest(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// HeaderAuthenticator authenticates a shared secret carried in a fixed header.
type HeaderAuthenticator struct {
	header    string
	allowList AllowListRepository
}

func NewHeaderAuthenticator(header string, allowList AllowListRepository) *HeaderAuthenticator {
	return &HeaderAuthenticator{header: header, allowList: allowList}
}

// Authenticate digests the header value exactly as sent and checks it against
// the allow-list. Header names are matched case-insensitively. A blank value
// counts as missing.
func (a *HeaderAuthenticator) Authenticate(ctx context.Context, header http.Header) (string, error) {
	credential := header.Get(a.header)
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}
	return checkAllowList(ctx, a.allowList, Digest(credential))
}

// JWTAuthenticator accepts HMAC-signed bearer tokens. The token subject takes
// the place of the shared secret: its digest is the identity and must be
// provisioned in the allow-list.
type JWTAuthenticator struct {
	secret    []byte
	allowList AllowListRepository
}

func NewJWTAuthenticator(secret string, allowList AllowListRepository) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), allowList: allowList}
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, header http.Header) (string, error) {
	tokenString, err := bearerToken(header)
	if err != nil {
		return "", ErrMissingCredential
	}
	subject, err := parseTokenSubject(tokenString, a.secret)
	if err != nil {
		return "", ErrUnauthorized
	}
	return checkAllowList(ctx, a.allowList, Digest(subject))
}

// Provision adds the digest of credential to the allow-list and returns it.
// The credential is digested verbatim so it matches what Authenticate sees.
func Provision(ctx context.Context, allowList AllowListRepository, credential string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}
	userID := Digest(credential)
	if err := allowList.Add(ctx, userID); err != nil {
		return "", fmt.Errorf("provision identity: %w", err)
	}
	return userID, nil
}

func checkAllowList(ctx context.Context, allowList AllowListRepository, userID string) (string, error) {
	ok, err := allowList.Exists(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("allow-list lookup: %w", err)
	}
	if !ok {
		return "", ErrUnauthorized
	}
	return userID, nil
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(header http.Header) (string, error) {
	auth := strings.TrimSpace(header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
