// backend/src/security/state.go
package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidState is returned for OAuth state values that fail verification.
var ErrInvalidState = errors.New("invalid oauth state")

const stateIssuer = "taxwizz-integrations"

// StateClaims bind an OAuth round trip to a software and a firm client.
type StateClaims struct {
	SoftwareID string `json:"sid"`
	jwt.RegisteredClaims
}

// StateSigner issues and verifies HMAC-signed OAuth state values.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a signer. The secret must not be empty.
func NewStateSigner(secret string, ttl time.Duration) (*StateSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("state signer: empty secret")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed state for the software and client.
func (s *StateSigner) Issue(softwareID string, clientID int64) (string, error) {
	now := s.now()
	claims := StateClaims{
		SoftwareID: softwareID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			Subject:   strconv.FormatInt(clientID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and the expected software, returning the client ID.
func (s *StateSigner) Verify(state, softwareID string) (int64, error) {
	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.SoftwareID != softwareID {
		return 0, fmt.Errorf("%w: issued for %q, received for %q", ErrInvalidState, claims.SoftwareID, softwareID)
	}
	clientID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject: %v", ErrInvalidState, err)
	}
	return clientID, nil
}
