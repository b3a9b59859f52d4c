package confirm

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/platform/apperr"
)

func deleteIntent(class, date string) intent.Intent {
	return intent.Intent{Kind: intent.KindDelete, Delete: &intent.Delete{Filter: intent.FilterSpec{ClassName: class, Date: date}}}
}

func TestDecide(t *testing.T) {
	create := intent.Intent{Kind: intent.KindCreate, Create: &intent.Create{ClassName: "7B"}}
	query := intent.Intent{Kind: intent.KindQuery, Query: &intent.Query{ResultKind: intent.ResultAll}}
	update := intent.Intent{Kind: intent.KindUpdate, Update: &intent.Update{
		Filter:  intent.FilterSpec{ClassName: "7B"},
		Updates: intent.Updates{RenameClass: &intent.RenameClass{NewClassName: "7C"}},
	}}
	del := deleteIntent("9", "2025-10-15")

	for _, in := range []intent.Intent{create, query} {
		assert.True(t, Decide(in, false).Execute, in.Kind)
		assert.True(t, Decide(in, true).Execute, in.Kind)
	}

	d := Decide(del, false)
	assert.False(t, d.Execute)
	assert.Contains(t, d.Message, "delete this record")
	assert.Contains(t, d.Message, "class 9 on 2025-10-15")

	d = Decide(update, false)
	assert.False(t, d.Execute)
	assert.Contains(t, d.Message, "update record(s)")
	assert.Contains(t, d.Message, "rename class to 7C")

	assert.True(t, Decide(del, true).Execute)
	assert.True(t, Decide(update, true).Execute)
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newIssuer(t *testing.T, store PendingStore) (*Issuer, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)}
	iss, err := NewIssuer("test-secret", 5*time.Minute, store)
	require.NoError(t, err)
	return iss.WithClock(clock.now), clock
}

func TestIssueAndRedeemOnce(t *testing.T) {
	store := NewMemoryStore()
	iss, clock := newIssuer(t, store)
	store.WithClock(clock.now)
	ctx := context.Background()

	in := deleteIntent("9", "2025-10-15")
	ticket, err := iss.Issue(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(5*time.Minute), ticket.ExpiresAt)

	got, err := iss.Redeem(ctx, ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = iss.Redeem(ctx, ticket.Token)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestRedeemRejectsTamperedToken(t *testing.T) {
	iss, _ := newIssuer(t, NewMemoryStore())
	ticket, err := iss.Issue(context.Background(), deleteIntent("9", ""))
	require.NoError(t, err)

	parts := strings.Split(ticket.Token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	forged := parts[0] + "." + parts[1] + "." + string(sig)
	_, err = iss.Redeem(context.Background(), forged)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	other, err := NewIssuer("another-secret", time.Minute, NewMemoryStore())
	require.NoError(t, err)
	_, err = other.Redeem(context.Background(), ticket.Token)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	_, err = iss.Redeem(context.Background(), "not-a-token")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

func TestRedeemRejectsExpiredToken(t *testing.T) {
	store := NewMemoryStore()
	iss, clock := newIssuer(t, store)
	store.WithClock(clock.now)

	ticket, err := iss.Issue(context.Background(), deleteIntent("9", ""))
	require.NoError(t, err)

	clock.t = clock.t.Add(6 * time.Minute)
	_, err = iss.Redeem(context.Background(), ticket.Token)
	require.Error(t, err)
	var api *apperr.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, apperr.CodeInvalidArgument, api.Code)
	assert.Contains(t, api.Message, "expired")
}

// swapStore hands back a different payload than the one that was issued.
type swapStore struct {
	*MemoryStore
	replacement []byte
}

func (s swapStore) Take(ctx context.Context, id string) ([]byte, bool, error) {
	if _, ok, err := s.MemoryStore.Take(ctx, id); !ok || err != nil {
		return nil, ok, err
	}
	return s.replacement, true, nil
}

func TestRedeemRejectsFingerprintMismatch(t *testing.T) {
	store := swapStore{MemoryStore: NewMemoryStore(), replacement: []byte(`{"intent":"delete","delete":{"filter":{"className":"10A"}}}`)}
	iss, _ := newIssuer(t, store)

	ticket, err := iss.Issue(context.Background(), deleteIntent("9", ""))
	require.NoError(t, err)
	_, err = iss.Redeem(context.Background(), ticket.Token)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

func TestFingerprintIsCanonical(t *testing.T) {
	a, err := fingerprint([]byte(`{"intent":"delete","delete":{"filter":{"className":"9","date":"2025-10-15"}}}`))
	require.NoError(t, err)
	b, err := fingerprint([]byte(`{ "delete": {"filter": {"date":"2025-10-15", "className":"9"}}, "intent": "delete" }`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Fingerprint(deleteIntent("9", "2025-10-15"))
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	m := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "a", []byte("x"), time.Minute))
	now = now.Add(2 * time.Minute)
	_, ok, err := m.Take(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	s := NewRedisStore(addr, "", 0)
	defer s.Close()
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	require.NoError(t, s.Put(ctx, "test-id", []byte(`{"intent":"delete"}`), time.Minute))
	b, ok, err := s.Take(ctx, "test-id")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"intent":"delete"}`, string(b))

	_, ok, err = s.Take(ctx, "test-id")
	require.NoError(t, err)
	assert.False(t, ok)
}
