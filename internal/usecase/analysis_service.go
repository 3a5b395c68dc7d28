package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tumeware/SnackBar/internal/domain"
)

// AlternativeFinder is implemented by Recommender
type AlternativeFinder interface {
	Recommend(ctx context.Context, product domain.Product, limit int) ([]domain.Product, error)
}

// AnalysisService combines the AI appraisal of a product with its alternatives
type AnalysisService struct {
	insights     domain.InsightGenerator
	alternatives AlternativeFinder
	logger       zerolog.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(insights domain.InsightGenerator, alternatives AlternativeFinder, logger zerolog.Logger) *AnalysisService {
	return &AnalysisService{
		insights:     insights,
		alternatives: alternatives,
		logger:       logger.With().Str("component", "analysis").Logger(),
	}
}

// Analyze generates the insight and the alternatives concurrently and fails if either fails
func (s *AnalysisService) Analyze(ctx context.Context, product domain.Product) (*domain.Analysis, error) {
	if strings.TrimSpace(product.Code) == "" {
		return nil, domain.ErrInvalidRequest
	}

	var (
		insight      string
		alternatives []domain.Product
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		text, err := s.insights.GenerateInsight(groupCtx, product)
		if err != nil {
			return err
		}
		insight = text
		return nil
	})
	group.Go(func() error {
		found, err := s.alternatives.Recommend(groupCtx, product, defaultAlternativeLimit)
		if err != nil {
			return err
		}
		alternatives = found
		return nil
	})

	if err := group.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("code", product.Code).Msg("analysis failed")
		return nil, err
	}

	if alternatives == nil {
		alternatives = []domain.Product{}
	}

	return &domain.Analysis{Insight: insight, Alternatives: alternatives}, nil
}
