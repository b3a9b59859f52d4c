package confirm

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gowebpki/jcs"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"

	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/platform/apperr"
)

const tokenIssuer = "rollcall/confirm"

// Claims of a confirmation token. fp is the digest of the canonical intent JSON.
type Claims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

type Ticket struct {
	Token     string
	ExpiresAt time.Time
}

// Issuer binds proposed destructive intents to short-lived, single-use tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	store  PendingStore
	clock  func() time.Time
}

// NewIssuer: an empty secret gets a random per-process key, so tokens do not
// survive a restart.
func NewIssuer(secret string, ttl time.Duration, store PendingStore) (*Issuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Issuer{secret: key, ttl: ttl, store: store, clock: time.Now}, nil
}

// WithClock overrides the clock for tests.
func (i *Issuer) WithClock(clock func() time.Time) *Issuer {
	i.clock = clock
	return i
}

func (i *Issuer) Issue(ctx context.Context, in intent.Intent) (Ticket, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return Ticket{}, err
	}
	fp, err := fingerprint(payload)
	if err != nil {
		return Ticket{}, err
	}
	now := i.clock()
	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return Ticket{}, err
	}
	exp := now.Add(i.ttl)

	claims := Claims{
		Fingerprint: fp,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Issuer:    tokenIssuer,
			Subject:   string(in.Kind),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Ticket{}, err
	}
	if err := i.store.Put(ctx, claims.ID, payload, i.ttl); err != nil {
		return Ticket{}, err
	}
	return Ticket{Token: signed, ExpiresAt: exp.UTC()}, nil
}

// Redeem verifies the token and takes the pending intent it refers to.
// Each token executes at most once.
func (i *Issuer) Redeem(ctx context.Context, token string) (intent.Intent, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return intent.Intent{}, apperr.ErrInvalid("confirmation expired; please issue the command again")
	case err != nil:
		return intent.Intent{}, apperr.ErrInvalid("invalid confirmation token")
	}

	payload, ok, err := i.store.Take(ctx, claims.ID)
	if err != nil {
		return intent.Intent{}, apperr.ErrInternal("failed to read pending confirmation").Wrap(err)
	}
	if !ok {
		return intent.Intent{}, apperr.ErrNotFound("this confirmation was already used or has expired")
	}

	fp, err := fingerprint(payload)
	if err != nil || subtle.ConstantTimeCompare([]byte(fp), []byte(claims.Fingerprint)) != 1 {
		return intent.Intent{}, apperr.ErrInvalid("confirmation does not match the pending action")
	}
	var in intent.Intent
	if err := json.Unmarshal(payload, &in); err != nil {
		return intent.Intent{}, apperr.ErrInternal("corrupt pending confirmation").Wrap(err)
	}
	if err := in.Check(); err != nil {
		return intent.Intent{}, apperr.ErrInternal("corrupt pending confirmation").Wrap(err)
	}
	return in, nil
}

// fingerprint is blake2b-256 over the RFC 8785 canonical form, hex encoded.
func fingerprint(payload []byte) (string, error) {
	canon, err := jcs.Transform(payload)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint of an intent, as carried in the fp claim.
func Fingerprint(in intent.Intent) (string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return fingerprint(payload)
}
