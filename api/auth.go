package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"tasksync/domain"
)

var errMissingUserClaim = errors.New("token missing user claim")

// UserIDFromToken extracts the user identifier from a JWT's sub claim,
// falling back to user_id. The signature is not verified here; that is
// the backend's job — the client only needs to know who the token is
// for.
func UserIDFromToken(token string) (string, error) {
	claims, err := parseClaims(token)
	if err != nil {
		return "", err
	}
	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, nil
	}
	if uid, _ := claims["user_id"].(string); uid != "" {
		return uid, nil
	}
	return "", errMissingUserClaim
}

// ValidateToken checks that the token belongs to userID and has not
// expired. The event endpoint closes the socket on either violation, so
// catching them before dialing gives a usable error instead of a retry
// loop.
func ValidateToken(token, userID string) error {
	claims, err := parseClaims(token)
	if err != nil {
		return err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub, _ = claims["user_id"].(string)
	}
	if sub == "" {
		return errMissingUserClaim
	}
	if sub != userID {
		return fmt.Errorf("token subject %q: %w", sub, domain.ErrUserMismatch)
	}
	if !claims.VerifyExpiresAt(time.Now().Unix(), false) {
		return errors.New("token expired")
	}
	return nil
}

func parseClaims(token string) (jwt.MapClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, errors.New("malformed token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return claims, nil
}
