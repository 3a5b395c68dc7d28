package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tumeware/SnackBar/internal/domain"
)

// Query shaping limits
const (
	minQueryLength       = 2 // shorter trimmed queries are never sent upstream
	minFallbackTermLen   = 3 // fallback tokens must be longer than 2 characters
	maxFallbackTerms     = 4
	minCategoryTermLen   = 4 // stripped category tags must be longer than 3 characters
	alternativeNameWords = 3
)

// fallbackAlternativeTerm is searched when a product offers nothing better ("product" in Finnish)
const fallbackAlternativeTerm = "tuote"

// localePrefixPattern matches the two-letter language prefix of catalog tags, e.g. "fi:"
var localePrefixPattern = regexp.MustCompile(`^[a-z]{2}:`)

// QueryPreprocessor derives the search terms sent to the catalog
type QueryPreprocessor struct {
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool, logger zerolog.Logger) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
		logger:             logger,
	}
}

// ValidQuery reports whether a trimmed query is long enough to search for
func ValidQuery(trimmed string) bool {
	return utf8.RuneCountInString(trimmed) >= minQueryLength
}

// CacheKey builds the search cache key for a trimmed query and page size
func CacheKey(trimmed string, pageSize int) string {
	return strings.ToLower(trimmed) + "::" + strconv.Itoa(pageSize)
}

// FallbackTerms splits a query into the individual tokens searched when the
// literal query finds nothing. Short tokens are dropped and at most four kept,
// in their original order.
func (p *QueryPreprocessor) FallbackTerms(query string) []string {
	terms := make([]string, 0, maxFallbackTerms)
	for _, token := range strings.Fields(query) {
		if utf8.RuneCountInString(token) < minFallbackTermLen {
			continue
		}
		terms = append(terms, token)
		if len(terms) == maxFallbackTerms {
			break
		}
	}

	if p.enableDebugLogging {
		p.logger.Debug().Str("query", query).Strs("terms", terms).Msg("fallback terms")
	}

	return terms
}

// AlternativeTerm picks the most specific search term describing a product:
// its first meaningful category, then the start of its name, then its brand
func (p *QueryPreprocessor) AlternativeTerm(product domain.Product) string {
	term, source := fallbackAlternativeTerm, "fallback"

	if category, ok := primaryCategory(product.Categories); ok {
		term, source = category, "category"
	} else if chunk := nameChunk(product.Name); chunk != "" {
		term, source = chunk, "name"
	} else if brands := strings.TrimSpace(product.Brands); brands != "" {
		term, source = brands, "brand"
	}

	if p.enableDebugLogging {
		p.logger.Debug().Str("code", product.Code).Str("term", term).Str("source", source).Msg("alternative search term")
	}

	return term
}

// primaryCategory returns the first category tag whose locale-stripped form
// is longer than three characters
func primaryCategory(categories []string) (string, bool) {
	for _, category := range categories {
		stripped := StripLocalePrefix(category)
		if utf8.RuneCountInString(stripped) >= minCategoryTermLen {
			return stripped, true
		}
	}
	return "", false
}

// StripLocalePrefix removes a leading "xx:" language code from a catalog tag
func StripLocalePrefix(tag string) string {
	return localePrefixPattern.ReplaceAllString(tag, "")
}

func nameChunk(name string) string {
	words := strings.Fields(name)
	if len(words) > alternativeNameWords {
		words = words[:alternativeNameWords]
	}
	return strings.Join(words, " ")
}
