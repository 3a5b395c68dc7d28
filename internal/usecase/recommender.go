package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tumeware/SnackBar/internal/domain"
)

const (
	defaultAlternativeLimit = 4
	alternativeSearchSize   = 28
)

// ProductSearcher is the search capability the recommender draws candidates from
type ProductSearcher interface {
	Search(ctx context.Context, query string, pageSize int) ([]domain.Product, error)
}

// Recommender suggests allergen-friendly, better-scored products similar to a given one
type Recommender struct {
	searcher     ProductSearcher
	preprocessor *QueryPreprocessor
	logger       zerolog.Logger
}

// NewRecommender creates a new recommender backed by a product searcher
func NewRecommender(searcher ProductSearcher, enableDebugLogging bool, logger zerolog.Logger) *Recommender {
	logger = logger.With().Str("component", "recommender").Logger()
	return &Recommender{
		searcher:     searcher,
		preprocessor: NewQueryPreprocessor(enableDebugLogging, logger),
		logger:       logger,
	}
}

// Recommend returns up to limit alternatives for product, never including
// the product itself. Candidates sold in one of the product's countries are
// preferred; allergen-free candidates come first, then better nutrition scores.
func (r *Recommender) Recommend(ctx context.Context, product domain.Product, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultAlternativeLimit
	}

	term := r.preprocessor.AlternativeTerm(product)
	candidates, err := r.searcher.Search(ctx, term, alternativeSearchSize)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			return []domain.Product{}, nil
		}
		return nil, err
	}

	candidates = slices.DeleteFunc(slices.Clone(candidates), func(c domain.Product) bool {
		return c.Code == product.Code
	})

	pool := candidates
	if local := sameCountry(candidates, product.Countries); len(local) > 0 {
		pool = local
	}

	ranked := rankAlternatives(pool)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	r.logger.Debug().
		Str("code", product.Code).
		Str("term", term).
		Int("candidates", len(candidates)).
		Int("returned", len(ranked)).
		Msg("alternatives ranked")

	return ranked, nil
}

// sameCountry keeps the candidates sharing at least one country tag with countries
func sameCountry(candidates []domain.Product, countries []string) []domain.Product {
	if len(countries) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(countries))
	for _, country := range countries {
		wanted[strings.ToLower(country)] = struct{}{}
	}

	matched := make([]domain.Product, 0, len(candidates))
	for _, candidate := range candidates {
		for _, country := range candidate.Countries {
			if _, ok := wanted[strings.ToLower(country)]; ok {
				matched = append(matched, candidate)
				break
			}
		}
	}
	return matched
}

// rankAlternatives orders allergen-free products first, then by nutrition
// score rank. Both passes are stable, so ties keep the search order.
func rankAlternatives(products []domain.Product) []domain.Product {
	ranked := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.AllergenFree() {
			ranked = append(ranked, p)
		}
	}
	for _, p := range products {
		if !p.AllergenFree() {
			ranked = append(ranked, p)
		}
	}

	slices.SortStableFunc(ranked, func(a, b domain.Product) int {
		return a.ScoreRank() - b.ScoreRank()
	})
	return ranked
}
