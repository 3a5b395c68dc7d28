package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultProductName is used when the catalog has no name for a product
const DefaultProductName = "Unnamed product"

// Product is the canonical catalog record handed to callers.
// Values are never mutated after mapping; enrichment works on copies.
type Product struct {
	Code           string                   `json:"code" binding:"required"`
	Name           string                   `json:"name"`
	Brands         string                   `json:"brands"`
	ImageThumbURL  *string                  `json:"imageThumb"`
	ImageURL       *string                  `json:"image"`
	NutritionScore *NutritionScore          `json:"nutriScore"`
	Quantity       *string                  `json:"quantity"`
	Categories     []string                 `json:"categories"`
	Nutriments     map[string]NutrientValue `json:"nutriments"`
	Ingredients    *string                  `json:"ingredients"`
	Allergens      *string                  `json:"allergens"`
	Origins        *string                  `json:"origins"`
	Countries      []string                 `json:"countries"`
}

// AllergenFree reports whether the product lists no allergens at all
func (p Product) AllergenFree() bool {
	return p.Allergens == nil || strings.TrimSpace(*p.Allergens) == ""
}

// ScoreRank returns the nutrition score rank, treating a missing score as D
func (p Product) ScoreRank() int {
	if p.NutritionScore == nil {
		return absentScoreRank
	}
	return p.NutritionScore.Rank()
}

// QuantityUnit guesses the unit family of the product amount.
// Liquids contain "ml" or "l", solids "kg" or "g".
func (p Product) QuantityUnit() string {
	if p.Quantity == nil || *p.Quantity == "" {
		return "g"
	}
	lower := strings.ToLower(*p.Quantity)
	if strings.Contains(lower, "ml") || strings.Contains(lower, "l") {
		return "ml"
	}
	if strings.Contains(lower, "kg") || strings.Contains(lower, "g") {
		return "g"
	}
	return "g/ml"
}

// NutritionScore is the catalog's A (best) to E (worst) grade
type NutritionScore string

// Known nutrition score grades, in quality order
const (
	NutritionScoreA NutritionScore = "a"
	NutritionScoreB NutritionScore = "b"
	NutritionScoreC NutritionScore = "c"
	NutritionScoreD NutritionScore = "d"
	NutritionScoreE NutritionScore = "e"
)

const absentScoreRank = 3

var scoreRanks = map[NutritionScore]int{
	NutritionScoreA: 0,
	NutritionScoreB: 1,
	NutritionScoreC: 2,
	NutritionScoreD: 3,
	NutritionScoreE: 4,
}

// ParseNutritionScore accepts a grade letter in any case
func ParseNutritionScore(s string) (NutritionScore, bool) {
	score := NutritionScore(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := scoreRanks[score]; !ok {
		return "", false
	}
	return score, true
}

// Rank orders grades from 0 (A) to 4 (E)
func (s NutritionScore) Rank() int {
	if rank, ok := scoreRanks[s]; ok {
		return rank
	}
	return absentScoreRank
}

func (s NutritionScore) String() string {
	return strings.ToUpper(string(s))
}

// UnmarshalJSON rejects letters outside the A-E range
func (s *NutritionScore) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	score, ok := ParseNutritionScore(raw)
	if !ok {
		return fmt.Errorf("unknown nutrition score %q", raw)
	}
	*s = score
	return nil
}

// NutrientValue is a raw nutriment value as the catalog sent it:
// either a number or a free-form string
type NutrientValue struct {
	Number   float64
	Text     string
	IsNumber bool
}

// NumberValue wraps a numeric nutriment value
func NumberValue(v float64) NutrientValue {
	return NutrientValue{Number: v, IsNumber: true}
}

// TextValue wraps a textual nutriment value
func TextValue(v string) NutrientValue {
	return NutrientValue{Text: v}
}

func (v NutrientValue) String() string {
	if v.IsNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// IsEmpty reports whether the value carries nothing displayable
func (v NutrientValue) IsEmpty() bool {
	return !v.IsNumber && v.Text == ""
}

// MarshalJSON keeps the original JSON type
func (v NutrientValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts JSON numbers and strings only
func (v *NutrientValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*v = NumberValue(number)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("nutriment value must be a number or string: %s", string(data))
	}
	*v = TextValue(text)
	return nil
}
