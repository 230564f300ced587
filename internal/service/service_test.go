package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtypes "github.com/nitesh/cafe_service/internal/db"
	"github.com/nitesh/cafe_service/internal/logger"
	"github.com/nitesh/cafe_service/internal/places"
	"github.com/nitesh/cafe_service/pkg/models"
)

// ==========================
// Test doubles
// ==========================

type fakeStore struct {
	cafes     []*models.Cafe
	count     int
	countErr  error
	saveErr   error
	updateErr error

	saved   [][]*models.Cafe
	updated map[string]dbtypes.Hours
}

func (f *fakeStore) SaveMany(_ context.Context, cafes []*models.Cafe) (int, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, cafes)
	return len(cafes), nil
}

func (f *fakeStore) Count(context.Context) (int, error) { return f.count, f.countErr }

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Cafe, error) {
	for _, c := range f.cafes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New("CAFE_NOT_FOUND")
}

func (f *fakeStore) GetByIDs(context.Context, []string) ([]*models.Cafe, error) { return f.cafes, nil }

func (f *fakeStore) List(context.Context, int) ([]*models.Cafe, error) { return f.cafes, nil }

func (f *fakeStore) All(context.Context) ([]*models.Cafe, error) { return f.cafes, nil }

func (f *fakeStore) UpdateHours(_ context.Context, id string, hours dbtypes.Hours) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = map[string]dbtypes.Hours{}
	}
	f.updated[id] = hours
	return nil
}

func (f *fakeStore) Nearby(context.Context, float64, float64, float64, int) ([]*models.Cafe, error) {
	return f.cafes, nil
}

type fakeSearcher struct {
	cafes []*models.Cafe
	err   error
	calls []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]*models.Cafe, error) {
	f.calls = append(f.calls, query)
	return f.cafes, f.err
}

// ==========================
// Test Helper Functions
// ==========================

func enabledOptions() Options {
	return Options{ProviderEnabled: true, SeedQuery: "coffee shops in Atlanta", CacheTTL: 15 * time.Minute}
}

func newTestService(t *testing.T, repo CafeStore, searcher Searcher, rdb *redis.Client, opts Options) *Service {
	t.Helper()
	return NewService(repo, searcher, rdb, opts, logger.NewTestLogger(t))
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func providerCafes(names ...string) []*models.Cafe {
	out := make([]*models.Cafe, 0, len(names))
	for _, n := range names {
		out = append(out, &models.Cafe{Name: n, Source: models.SourceProvider, Hours: dbtypes.Hours{}})
	}
	return out
}

// ==========================
// Import Tests
// ==========================

func TestService_Import_SavesSearchResults(t *testing.T) {
	repo := &fakeStore{}
	searcher := &fakeSearcher{cafes: providerCafes("Octane", "Docent")}

	res, err := newTestService(t, repo, searcher, nil, enabledOptions()).Import(context.Background(), "  coffee shops in Atlanta ")

	require.NoError(t, err)
	assert.Equal(t, "coffee shops in Atlanta", res.Query)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, []string{"coffee shops in Atlanta"}, searcher.calls)
	require.Len(t, repo.saved, 1)
	assert.Len(t, repo.saved[0], 2)
}

func TestService_Import_Errors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		opts     Options
		searcher *fakeSearcher
		repo     *fakeStore
		wantErr  error
	}{
		{
			name:     "blank query",
			query:    "   ",
			opts:     enabledOptions(),
			searcher: &fakeSearcher{},
			repo:     &fakeStore{},
			wantErr:  ErrEmptyQuery,
		},
		{
			name:     "provider disabled",
			query:    "espresso",
			opts:     Options{},
			searcher: &fakeSearcher{},
			repo:     &fakeStore{},
			wantErr:  ErrProviderDisabled,
		},
		{
			name:     "provider unavailable",
			query:    "espresso",
			opts:     enabledOptions(),
			searcher: &fakeSearcher{err: fmt.Errorf("text search: %w", places.ErrProviderUnavailable)},
			repo:     &fakeStore{},
			wantErr:  places.ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestService(t, tt.repo, tt.searcher, nil, tt.opts).Import(context.Background(), tt.query)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, tt.repo.saved)
		})
	}
}

func TestService_Import_SaveFailure(t *testing.T) {
	repo := &fakeStore{saveErr: errors.New("connection reset")}
	searcher := &fakeSearcher{cafes: providerCafes("Octane")}

	_, err := newTestService(t, repo, searcher, nil, enabledOptions()).Import(context.Background(), "espresso")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cafes")
}

// ==========================
// Preview Cache Tests
// ==========================

func TestService_Preview_CachesResults(t *testing.T) {
	mr, rdb := newMiniredis(t)
	searcher := &fakeSearcher{cafes: providerCafes("Octane")}
	svc := newTestService(t, &fakeStore{}, searcher, rdb, enabledOptions())

	first, err := svc.Preview(context.Background(), "espresso")
	require.NoError(t, err)
	second, err := svc.Preview(context.Background(), "espresso")
	require.NoError(t, err)

	assert.Len(t, searcher.calls, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.True(t, mr.Exists("places:search:espresso"))
	assert.Equal(t, 15*time.Minute, mr.TTL("places:search:espresso"))
}

func TestService_Preview_ExpiredEntryRefetches(t *testing.T) {
	mr, rdb := newMiniredis(t)
	searcher := &fakeSearcher{cafes: providerCafes("Octane")}
	svc := newTestService(t, &fakeStore{}, searcher, rdb, enabledOptions())

	_, err := svc.Preview(context.Background(), "espresso")
	require.NoError(t, err)
	mr.FastForward(16 * time.Minute)
	_, err = svc.Preview(context.Background(), "espresso")
	require.NoError(t, err)

	assert.Len(t, searcher.calls, 2)
}

func TestService_Preview_UnreadableEntryIgnored(t *testing.T) {
	mr, rdb := newMiniredis(t)
	require.NoError(t, mr.Set("places:search:espresso", "{not json"))
	searcher := &fakeSearcher{cafes: providerCafes("Octane")}

	cafes, err := newTestService(t, &fakeStore{}, searcher, rdb, enabledOptions()).Preview(context.Background(), "espresso")

	require.NoError(t, err)
	assert.Len(t, cafes, 1)
	assert.Len(t, searcher.calls, 1)

	raw, err := mr.Get("places:search:espresso")
	require.NoError(t, err)
	var stored []*models.Cafe
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "Octane", stored[0].Name)
}

func TestService_Preview_CacheErrorsAreIgnored(t *testing.T) {
	searcher := &fakeSearcher{cafes: providerCafes("Octane")}
	payload, err := json.Marshal(searcher.cafes)
	require.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("places:search:espresso").SetErr(errors.New("connection refused"))
	mock.ExpectSet("places:search:espresso", payload, 15*time.Minute).SetErr(errors.New("connection refused"))

	cafes, err := newTestService(t, &fakeStore{}, searcher, rdb, enabledOptions()).Preview(context.Background(), "espresso")

	require.NoError(t, err)
	assert.Len(t, cafes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Preview_NoRedis(t *testing.T) {
	searcher := &fakeSearcher{cafes: providerCafes("Octane")}
	svc := newTestService(t, &fakeStore{}, searcher, nil, enabledOptions())

	_, err := svc.Preview(context.Background(), "espresso")
	require.NoError(t, err)
	_, err = svc.Preview(context.Background(), "espresso")
	require.NoError(t, err)
	assert.Len(t, searcher.calls, 2)
}

func TestService_Preview_ErrorsNotCached(t *testing.T) {
	mr, rdb := newMiniredis(t)
	searcher := &fakeSearcher{err: places.ErrProviderUnavailable}

	cafes, err := newTestService(t, &fakeStore{}, searcher, rdb, enabledOptions()).Preview(context.Background(), "espresso")

	assert.Nil(t, cafes)
	assert.ErrorIs(t, err, places.ErrProviderUnavailable)
	assert.False(t, mr.Exists("places:search:espresso"))
}

func TestService_Preview_Disabled(t *testing.T) {
	_, err := newTestService(t, &fakeStore{}, &fakeSearcher{}, nil, Options{}).Preview(context.Background(), "espresso")
	assert.ErrorIs(t, err, ErrProviderDisabled)
}

// ==========================
// Seed Tests
// ==========================

func TestService_Seed_EmptyStoreImportsFromProvider(t *testing.T) {
	repo := &fakeStore{}
	searcher := &fakeSearcher{cafes: providerCafes("Octane", "Docent", "Muchacho")}

	err := newTestService(t, repo, searcher, nil, enabledOptions()).Seed(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"coffee shops in Atlanta"}, searcher.calls)
	require.Len(t, repo.saved, 1)
	assert.Len(t, repo.saved[0], 3)
}

func TestService_Seed_FallsBackToBuiltInCafes(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		searcher *fakeSearcher
	}{
		{"provider error", enabledOptions(), &fakeSearcher{err: places.ErrProviderUnavailable}},
		{"provider disabled", Options{SeedQuery: "coffee shops in Atlanta"}, &fakeSearcher{}},
		{"provider found nothing", enabledOptions(), &fakeSearcher{cafes: []*models.Cafe{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeStore{}
			err := newTestService(t, repo, tt.searcher, nil, tt.opts).Seed(context.Background())

			require.NoError(t, err)
			require.NotEmpty(t, repo.saved)
			fallback := repo.saved[len(repo.saved)-1]
			assert.Len(t, fallback, len(FallbackCafes()))
			for _, c := range fallback {
				assert.Equal(t, models.SourceFallback, c.Source)
			}
		})
	}
}

func TestService_Seed_NonEmptyStoreBackfillsHours(t *testing.T) {
	repo := &fakeStore{
		count: 2,
		cafes: []*models.Cafe{
			{ID: "a", Hours: dbtypes.Hours{1: "6:00-14:00"}},
			{ID: "b", Hours: dbtypes.Hours{0: "7:00-19:00", 1: "7:00-19:00", 2: "7:00-19:00", 3: "7:00-19:00", 4: "7:00-19:00", 5: "7:00-19:00", 6: "7:00-19:00"}},
		},
	}
	searcher := &fakeSearcher{}

	err := newTestService(t, repo, searcher, nil, enabledOptions()).Seed(context.Background())

	require.NoError(t, err)
	assert.Empty(t, searcher.calls)
	assert.Empty(t, repo.saved)
	require.Contains(t, repo.updated, "a")
	assert.NotContains(t, repo.updated, "b")
}

func TestService_Seed_CountError(t *testing.T) {
	repo := &fakeStore{countErr: errors.New("db down")}
	err := newTestService(t, repo, &fakeSearcher{}, nil, enabledOptions()).Seed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count cafes")
}

// ==========================
// Hours Backfill Tests
// ==========================

func TestService_BackfillHours_KeepsExistingEntries(t *testing.T) {
	repo := &fakeStore{cafes: []*models.Cafe{
		{ID: "a", Hours: dbtypes.Hours{1: "6:00-14:00", 6: "8:00-12:00"}},
		{ID: "b", Hours: nil},
	}}

	n, err := newTestService(t, repo, &fakeSearcher{}, nil, enabledOptions()).BackfillHours(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a := repo.updated["a"]
	require.Len(t, a, 7)
	assert.Equal(t, "6:00-14:00", a[1])
	assert.Equal(t, "8:00-12:00", a[6])
	assert.Equal(t, "7:00-19:00", a[0])
	assert.Equal(t, "7:00-19:00", a[3])

	b := repo.updated["b"]
	require.Len(t, b, 7)
	for day := 0; day < 7; day++ {
		assert.Equal(t, "7:00-19:00", b[day])
	}
}

func TestService_BackfillHours_UpdateError(t *testing.T) {
	repo := &fakeStore{
		cafes:     []*models.Cafe{{ID: "a"}},
		updateErr: errors.New("deadlock"),
	}

	n, err := newTestService(t, repo, &fakeSearcher{}, nil, enabledOptions()).BackfillHours(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
}

// ==========================
// Fallback Data Tests
// ==========================

func TestFallbackCafes(t *testing.T) {
	cafes := FallbackCafes()
	require.NotEmpty(t, cafes)

	for _, c := range cafes {
		assert.NotEmpty(t, c.Name)
		assert.Equal(t, "Atlanta", c.City)
		assert.Equal(t, "GA", c.State)
		assert.Len(t, c.Hours, 7)
		assert.Empty(t, c.Hours.Missing())
		assert.Equal(t, models.ClaimStatusUnclaimed, c.ClaimStatus)
		assert.NotZero(t, c.Latitude)
		assert.NotZero(t, c.Longitude)
	}

	cafes[0].Tags[0] = "mutated"
	assert.NotEqual(t, "mutated", FallbackCafes()[0].Tags[0])
}
