package security

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// Principal is the caller a bearer token was issued to.
type Principal struct {
	UserID string
	Email  string
	Admin  bool
}

// Authenticator turns a bearer token into a Principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type jwtAuthenticator struct {
	tokens TokenManager
}

// NewJWTAuthenticator accepts HS256 access tokens; the admin role grants admin.
func NewJWTAuthenticator(tokens TokenManager) Authenticator {
	return &jwtAuthenticator{tokens: tokens}
}

func (a *jwtAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return &Principal{UserID: claims.UserID, Email: claims.Email, Admin: claims.HasRole(RoleAdmin)}, nil
}

// IDTokenVerifier is the part of the Firebase Auth client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseAuthenticator struct {
	verifier IDTokenVerifier
}

// NewFirebaseAuthenticator accepts Firebase ID tokens. Admins carry the
// custom claim admin=true.
func NewFirebaseAuthenticator(verifier IDTokenVerifier) Authenticator {
	return &firebaseAuthenticator{verifier: verifier}
}

func (a *firebaseAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	tok, err := a.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.UID == "" {
		return nil, ErrInvalidToken
	}
	p := &Principal{UserID: tok.UID}
	p.Admin, _ = tok.Claims[RoleAdmin].(bool)
	p.Email, _ = tok.Claims["email"].(string)
	return p, nil
}
