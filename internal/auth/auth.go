package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	usernameClaim = "username"
	expClaim      = "exp"

	// DefaultTokenExpiration matches the original session lifetime.
	DefaultTokenExpiration = time.Hour
)

// ErrUnauthorized is returned for any missing, malformed, expired or
// otherwise invalid credential. Callers must not surface more detail
// to the client than this.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator issues and verifies session tokens and password hashes.
// It is the only component that holds the signing key.
type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey []byte) (*Authenticator, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key cannot be empty")
	}
	return &Authenticator{signingKey: signingKey}, nil
}

func (a *Authenticator) HashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func (a *Authenticator) VerifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}

func (a *Authenticator) CreateToken(username string, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		usernameClaim: username,
		expClaim:      time.Now().Add(exp).Unix(),
	})

	return token.SignedString(a.signingKey)
}

// VerifyToken validates a session token and returns the identity it was
// issued for. Any failure is reported as ErrUnauthorized.
func (a *Authenticator) VerifyToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthorized
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}

	username, ok := claims[usernameClaim].(string)
	if !ok || username == "" {
		return "", ErrUnauthorized
	}

	return username, nil
}
