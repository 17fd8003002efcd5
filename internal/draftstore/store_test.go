package draftstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// fakeDynamo keeps items keyed by pk.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func pkOf(m map[string]types.AttributeValue) string {
	if s, ok := m["pk"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[pkOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, pkOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func openBadger(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var testCodec = Codec{Prefix: "opulanz", MaxBytes: DefaultMaxBytes}

func allStores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := newTestLogger(t)
	return map[string]Store{
		"memory":   NewMemoryStore(testCodec, log),
		"redis":    NewRedisStore(rdb, testCodec, time.Hour, log),
		"badger":   NewBadgerStore(openBadger(t), testCodec, 0, log),
		"dynamodb": NewDynamoStore(newFakeDynamo(), "drafts", testCodec, 0, log),
	}
}

func sampleSnapshot(t *testing.T) Snapshot {
	draft, err := Normalize(map[string]interface{}{
		"companyType":   "SARL",
		"capitalAmount": 12000,
		"proposedNames": []string{"Acme SARL", "Acme Lux"},
		"shareholders": []map[string]interface{}{
			{"name": "Ada", "percentage": 60},
			{"name": "Grace", "percentage": 40},
		},
		"domiciliationNeeded": true,
		"notes":               nil,
	})
	require.NoError(t, err)

	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	return Snapshot{WizardID: "formation", CurrentStep: 4, Draft: draft, CreatedAt: at, UpdatedAt: at}
}

// ==========================
// Backend Conformance Tests
// ==========================

func TestStores_SaveLoadRoundTrip(t *testing.T) {
	for name, store := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{Namespace: "opulanz_company_formation_user-1", UserRef: "user-1"}
			snap := sampleSnapshot(t)

			require.NoError(t, store.Save(ctx, key, snap))

			got, ok, err := store.Load(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, snap.Draft, got.Draft)
			assert.Equal(t, snap.WizardID, got.WizardID)
			assert.Equal(t, 4, got.CurrentStep)
			assert.True(t, snap.UpdatedAt.Equal(got.UpdatedAt))
			assert.Equal(t, name, store.Name())
		})
	}
}

func TestStores_LastWriteWins(t *testing.T) {
	for name, store := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{Namespace: "insurance-application-progress", UserRef: "u"}

			first := sampleSnapshot(t)
			second := sampleSnapshot(t)
			second.CurrentStep = 5
			second.Draft["companyType"] = "SA"

			require.NoError(t, store.Save(ctx, key, first))
			require.NoError(t, store.Save(ctx, key, second))

			got, ok, err := store.Load(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 5, got.CurrentStep)
			assert.Equal(t, "SA", got.Draft["companyType"])
		})
	}
}

func TestStores_ClearAndMissing(t *testing.T) {
	for name, store := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{Namespace: "personal-account-progress", UserRef: "u"}

			_, ok, err := store.Load(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Save(ctx, key, sampleSnapshot(t)))
			require.NoError(t, store.Clear(ctx, key))

			_, ok, err = store.Load(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStores_QuotaExceeded(t *testing.T) {
	small := Codec{Prefix: "opulanz", MaxBytes: 256}
	store := NewMemoryStore(small, newTestLogger(t))

	snap := sampleSnapshot(t)
	snap.Draft["blob"] = strings.Repeat("x", 512)

	err := store.Save(context.Background(), Key{Namespace: "n", UserRef: "u"}, snap)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

// ==========================
// Corrupt Data Handling
// ==========================

func TestMemoryStore_CorruptEntryIsDropped(t *testing.T) {
	store := NewMemoryStore(testCodec, newTestLogger(t))
	key := Key{Namespace: "business-account-progress", UserRef: "u"}
	store.put(key, []byte("{not json"))

	_, ok, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)

	store.mu.RLock()
	_, still := store.items[testCodec.Path(key)]
	store.mu.RUnlock()
	assert.False(t, still)
}

func TestRedisStore_CorruptEntryIsDropped(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisStore(rdb, testCodec, 0, newTestLogger(t))
	key := Key{Namespace: "ns", UserRef: "u"}
	require.NoError(t, mr.Set(testCodec.Path(key), "garbage"))

	_, ok, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(testCodec.Path(key)))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, testCodec, 0, newTestLogger(t))
	key := Key{Namespace: "ns", UserRef: "u"}

	mock.ExpectGet(testCodec.Path(key)).SetErr(errors.New("connection refused"))

	_, ok, err := store.Load(context.Background(), key)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_TTLApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisStore(rdb, testCodec, 30*time.Minute, newTestLogger(t))
	key := Key{Namespace: "ns", UserRef: "u"}
	require.NoError(t, store.Save(context.Background(), key, sampleSnapshot(t)))

	assert.Equal(t, 30*time.Minute, mr.TTL(testCodec.Path(key)))
}

func TestDynamoStore_ExpiredItemIsMissing(t *testing.T) {
	ctx := context.Background()
	saved := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	store := NewDynamoStore(newFakeDynamo(), "drafts", testCodec, time.Hour, newTestLogger(t))
	store.clock = func() time.Time { return saved }

	key := Key{Namespace: "ns", UserRef: "u"}
	require.NoError(t, store.Save(ctx, key, sampleSnapshot(t)))

	store.clock = func() time.Time { return saved.Add(59 * time.Minute) }
	_, ok, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	store.clock = func() time.Time { return saved.Add(61 * time.Minute) }
	_, ok, err = store.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodec_Path(t *testing.T) {
	assert.Equal(t, "opulanz:insurance-application-progress:u1", testCodec.Path(Key{Namespace: "insurance-application-progress", UserRef: "u1"}))
	assert.Equal(t, "ns:u1", Codec{}.Path(Key{Namespace: "ns", UserRef: "u1"}))
}

// ==========================
// History Tests
// ==========================

func TestHistory_KeepsLastTen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	histories := map[string]History{
		"memory": NewMemoryHistory(),
		"redis":  NewRedisHistory(rdb, "opulanz"),
	}

	for name, h := range histories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 12; i++ {
				require.NoError(t, h.Append(ctx, "user-1", models.ApplicationMetadata{
					ID:   "REF-" + string(rune('A'+i)),
					Type: "insurance",
				}))
			}

			list, err := h.List(ctx, "user-1")
			require.NoError(t, err)
			require.Len(t, list, HistoryLimit)
			assert.Equal(t, "REF-L", list[0].ID)
			assert.Equal(t, "REF-C", list[HistoryLimit-1].ID)

			empty, err := h.List(ctx, "someone-else")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}
