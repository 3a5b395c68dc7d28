package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumeware/SnackBar/internal/domain"
)

// stubSearcher returns fixed results and records what was asked for
type stubSearcher struct {
	results  []domain.Product
	err      error
	query    string
	pageSize int
}

func (s *stubSearcher) Search(ctx context.Context, query string, pageSize int) ([]domain.Product, error) {
	s.query = query
	s.pageSize = pageSize
	return s.results, s.err
}

func TestRecommender_SearchTerm(t *testing.T) {
	searcher := &stubSearcher{}
	recommender := NewRecommender(searcher, false, zerolog.Nop())

	_, err := recommender.Recommend(context.Background(), domain.Product{
		Code:       "1",
		Categories: []string{"en:snacks"},
	}, 4)

	require.NoError(t, err)
	assert.Equal(t, "snacks", searcher.query)
	assert.Equal(t, 28, searcher.pageSize)
}

func TestRecommender_ExcludesSource(t *testing.T) {
	searcher := &stubSearcher{results: productsWithCodes("src", "a", "src", "b")}
	recommender := NewRecommender(searcher, false, zerolog.Nop())

	result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src", Name: "Kaurajuoma"}, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, codesOf(result))
	assert.Len(t, searcher.results, 4, "search results are not modified")
}

func TestRecommender_Ranking(t *testing.T) {
	t.Run("orders allergen-free candidates by nutrition score", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{
			{Code: "e", NutritionScore: scorePtr(domain.NutritionScoreE)},
			{Code: "a", NutritionScore: scorePtr(domain.NutritionScoreA)},
			{Code: "c", NutritionScore: scorePtr(domain.NutritionScoreC)},
			{Code: "b", NutritionScore: scorePtr(domain.NutritionScoreB)},
		}}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 4)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "e"}, codesOf(result))
	})

	t.Run("missing score ranks like d", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{
			{Code: "e", NutritionScore: scorePtr(domain.NutritionScoreE)},
			{Code: "none"},
			{Code: "d", NutritionScore: scorePtr(domain.NutritionScoreD)},
			{Code: "c", NutritionScore: scorePtr(domain.NutritionScoreC)},
		}}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 4)

		require.NoError(t, err)
		assert.Equal(t, []string{"c", "none", "d", "e"}, codesOf(result))
	})

	t.Run("allergen-free wins ties", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{
			{Code: "nuts", NutritionScore: scorePtr(domain.NutritionScoreB), Allergens: strPtr("en:nuts")},
			{Code: "blank", NutritionScore: scorePtr(domain.NutritionScoreB), Allergens: strPtr("  ")},
			{Code: "free", NutritionScore: scorePtr(domain.NutritionScoreB)},
		}}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 4)

		require.NoError(t, err)
		assert.Equal(t, []string{"blank", "free", "nuts"}, codesOf(result))
	})

	t.Run("limit is applied after ranking", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{
			{Code: "e", NutritionScore: scorePtr(domain.NutritionScoreE)},
			{Code: "d", NutritionScore: scorePtr(domain.NutritionScoreD)},
			{Code: "c", NutritionScore: scorePtr(domain.NutritionScoreC)},
			{Code: "b", NutritionScore: scorePtr(domain.NutritionScoreB)},
			{Code: "a", NutritionScore: scorePtr(domain.NutritionScoreA)},
		}}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, codesOf(result))
	})

	t.Run("zero limit means four", func(t *testing.T) {
		searcher := &stubSearcher{results: productsWithCodes("1", "2", "3", "4", "5", "6")}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 0)

		require.NoError(t, err)
		assert.Len(t, result, 4)
	})
}

func TestRecommender_CountryPreference(t *testing.T) {
	t.Run("keeps the local match over better foreign products", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{
			{Code: "de", NutritionScore: scorePtr(domain.NutritionScoreA), Countries: []string{"en:germany"}},
			{Code: "fi", NutritionScore: scorePtr(domain.NutritionScoreD), Countries: []string{"FI", "en:sweden"}},
			{Code: "fr", NutritionScore: scorePtr(domain.NutritionScoreB), Countries: []string{"en:france"}},
		}}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src", Countries: []string{"fi"}}, 4)

		require.NoError(t, err)
		assert.Equal(t, []string{"fi"}, codesOf(result))
	})

	t.Run("uses all candidates when none match", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{
			{Code: "de", Countries: []string{"en:germany"}},
			{Code: "fr", Countries: []string{"en:france"}},
		}}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src", Countries: []string{"fi"}}, 4)

		require.NoError(t, err)
		assert.Equal(t, []string{"de", "fr"}, codesOf(result))
	})
}

func TestRecommender_SearchErrors(t *testing.T) {
	t.Run("too short term yields empty result", func(t *testing.T) {
		searcher := &stubSearcher{results: []domain.Product{}, err: domain.ErrInvalidQuery}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src", Brands: "X"}, 4)

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		searcher := &stubSearcher{err: boom}
		recommender := NewRecommender(searcher, false, zerolog.Nop())

		_, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 4)

		assert.ErrorIs(t, err, boom)
	})

	t.Run("no candidates is an empty slice", func(t *testing.T) {
		recommender := NewRecommender(&stubSearcher{}, false, zerolog.Nop())

		result, err := recommender.Recommend(context.Background(), domain.Product{Code: "src"}, 4)

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})
}

func TestRecommender_WithCatalogService(t *testing.T) {
	client := NewMockCatalogClient()
	client.searchResults["chocolates"] = []domain.Product{
		{Code: "src", NutritionScore: scorePtr(domain.NutritionScoreA), Countries: []string{"en:finland"}},
		{Code: "x", NutritionScore: scorePtr(domain.NutritionScoreC), Countries: []string{"en:finland"}},
		{Code: "y", NutritionScore: scorePtr(domain.NutritionScoreB), Countries: []string{"en:finland"}},
	}
	catalog := newTestCatalogService(NewMockCacheRepository(), client)
	recommender := NewRecommender(catalog, false, zerolog.Nop())

	result, err := recommender.Recommend(context.Background(), domain.Product{
		Code:       "src",
		Categories: []string{"en:chocolates"},
		Countries:  []string{"en:finland"},
	}, 4)

	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, codesOf(result))
	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 28, calls[0].PageSize)
}
