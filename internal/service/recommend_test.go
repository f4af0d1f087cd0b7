package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
	"github.com/shelfrate/shelfrate-server/internal/recommend"
	"github.com/shelfrate/shelfrate-server/internal/service"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

type fakeRecommender struct {
	recs    []recommend.Recommendation
	err     error
	calls   int
	lastReq recommend.Request
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) ([]recommend.Recommendation, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

// seedRatedHistory gives userID one rating on n distinct books.
func seedRatedHistory(t *testing.T, s *store.Store, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		bookID := fmt.Sprintf("book-%03d", i)
		createTestBook(t, s, bookID, "Book "+bookID, fmt.Sprintf("%010d", i+1))
		createTestRating(t, s, fmt.Sprintf("rating-%s-%03d", userID, i), userID, bookID, float64(1+i%10))
	}
}

func TestSpecialBooks_BelowThresholdSkipsUpstream(t *testing.T) {
	s := setupTestStore(t)
	fake := &fakeRecommender{}
	svc := service.NewRecommendService(s, fake, 5, testLogger())

	seedRatedHistory(t, s, "user-1", 4)

	result, err := svc.SpecialBooks(context.Background(), "user-1")
	require.NoError(t, err)

	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Zero(t, fake.calls, "recommender must not be called below the rating threshold")
}

func TestSpecialBooks_SendsFullHistory(t *testing.T) {
	s := setupTestStore(t)
	fake := &fakeRecommender{}
	svc := service.NewRecommendService(s, fake, 5, testLogger())

	seedRatedHistory(t, s, "user-1", 6)

	_, err := svc.SpecialBooks(context.Background(), "user-1")
	require.NoError(t, err)

	require.Equal(t, 1, fake.calls)
	assert.Len(t, fake.lastReq.Ratings, 6)
	assert.Equal(t, 2.0, fake.lastReq.Ratings["0000000002"])
}

func TestSpecialBooks_MatchesCatalogByCanonicalISBN(t *testing.T) {
	s := setupTestStore(t)

	// Catalog stores the hyphenated form; the recommender returns the bare
	// digits. The two must still match.
	matched := createTestBook(t, s, "book-100", "Spin Glasses", "0-19-853453-1")

	fake := &fakeRecommender{
		recs: []recommend.Recommendation{
			{ISBN: "0198534531", Extra: map[string]any{"bookTitle": "Spin Glasses"}},
			{ISBN: "9999999999", Extra: map[string]any{"bookTitle": "Not In Catalog"}},
		},
	}
	svc := service.NewRecommendService(s, fake, 5, testLogger())
	seedRatedHistory(t, s, "user-1", 5)

	result, err := svc.SpecialBooks(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, result, 2)

	require.NotNil(t, result[0].ID)
	assert.Equal(t, matched.ID, *result[0].ID)
	require.NotNil(t, result[0].Book)
	assert.Equal(t, "Spin Glasses", result[0].Book.Title)

	// Unmatched recommendations are returned too, with a null ID.
	assert.Nil(t, result[1].ID)
	assert.Nil(t, result[1].Book)
	assert.Equal(t, "9999999999", result[1].ISBN)
	assert.Equal(t, "Not In Catalog", result[1].Extra["bookTitle"])
}

func TestSpecialBooks_HyphenatedUpstreamISBN(t *testing.T) {
	s := setupTestStore(t)

	matched := createTestBook(t, s, "book-100", "Spin Glasses", "0198534531")

	fake := &fakeRecommender{
		recs: []recommend.Recommendation{{ISBN: "0-19-853453-1"}},
	}
	svc := service.NewRecommendService(s, fake, 5, testLogger())
	seedRatedHistory(t, s, "user-1", 5)

	result, err := svc.SpecialBooks(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].ID)
	assert.Equal(t, matched.ID, *result[0].ID)
}

func TestSpecialBooks_EmptyUpstreamResult(t *testing.T) {
	s := setupTestStore(t)
	fake := &fakeRecommender{}
	svc := service.NewRecommendService(s, fake, 5, testLogger())

	seedRatedHistory(t, s, "user-1", 5)

	result, err := svc.SpecialBooks(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Equal(t, 1, fake.calls)
}

func TestSpecialBooks_UpstreamErrorPropagates(t *testing.T) {
	s := setupTestStore(t)
	fake := &fakeRecommender{err: apperr.Upstream("recommendation service returned status 500")}
	svc := service.NewRecommendService(s, fake, 5, testLogger())

	seedRatedHistory(t, s, "user-1", 5)

	result, err := svc.SpecialBooks(context.Background(), "user-1")
	require.Error(t, err)
	assert.Nil(t, result, "an upstream failure must not degrade to an empty result")
	assert.True(t, apperr.Is(err, apperr.ErrUpstream))
	assert.Equal(t, 1, fake.calls)
}

func TestNewRecommendService_DefaultThreshold(t *testing.T) {
	s := setupTestStore(t)
	fake := &fakeRecommender{}
	svc := service.NewRecommendService(s, fake, 0, testLogger())

	seedRatedHistory(t, s, "user-1", service.DefaultMinRatings-1)

	result, err := svc.SpecialBooks(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, fake.calls)
}
