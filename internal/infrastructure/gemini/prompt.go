package gemini

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tumeware/SnackBar/internal/domain"
)

// Prompt size limits
const (
	maxPromptCategories  = 5
	maxPromptCountries   = 4
	maxPromptNutrients   = 12
	maxPromptIngredients = 320
	maxPromptAllergens   = 160
)

// nutrientLabels maps catalog nutriment keys to Finnish display labels
var nutrientLabels = map[string]string{
	"alcohol":             "Alkoholi",
	"caffeine":            "Kofeiini",
	"calcium":             "Kalsium",
	"carbohydrates":       "Hiilihydraatit",
	"casein":              "Kaseiini",
	"chloride":            "Kloridi",
	"cholesterol":         "Kolesteroli",
	"cocoa":               "Kaakaopitoisuus",
	"energy":              "Energia",
	"energy-kcal":         "Energia (kcal)",
	"energy-kj":           "Energia (kJ)",
	"fat":                 "Rasva",
	"fiber":               "Ravintokuitu",
	"folates":             "Folaatti",
	"fructose":            "Fruktoosi",
	"galactose":           "Galaktoosi",
	"glucose":             "Glukoosi",
	"iron":                "Rauta",
	"iodine":              "Jodi",
	"lactose":             "Laktoosi",
	"magnesium":           "Magnesium",
	"maltose":             "Maltoosi",
	"monounsaturated-fat": "Kertatyydyttymätön rasva",
	"nucleotides":         "Nukleotidit",
	"omega-3-fat":         "Omega-3",
	"omega-6-fat":         "Omega-6",
	"omega-9-fat":         "Omega-9",
	"phosphorus":          "Fosfori",
	"polyols":             "Sokerialkoholit",
	"polyunsaturated-fat": "Monityydyttymätön rasva",
	"potassium":           "Kalium",
	"proteins":            "Proteiini",
	"salt":                "Suola",
	"sodium":              "Natrium",
	"starch":              "Tärkkelys",
	"sugars":              "Sokerit",
	"taurine":             "Tauriini",
	"trans-fat":           "Transrasva",
	"vitamin-a":           "A-vitamiini",
	"vitamin-b1":          "Tiamiini (B1)",
	"vitamin-b12":         "B12-vitamiini",
	"vitamin-b2":          "Riboflaviini (B2)",
	"vitamin-b6":          "B6-vitamiini",
	"vitamin-b9":          "B9-vitamiini",
	"vitamin-c":           "C-vitamiini",
	"vitamin-d":           "D-vitamiini",
	"vitamin-e":           "E-vitamiini",
	"vitamin-k":           "K-vitamiini",
	"vitamin-pp":          "Niasiini (PP/B3)",
	"zinc":                "Sinkki",

	"fruits-vegetables-nuts-estimate-from-ingredients": "Hedelmä-, vihannes- ja pähkinäpitoisuus (arvio)",
}

// basisLabels names the measurement basis of a nutrient value
var basisLabels = map[string]string{
	domain.BasisPer100g: "100 g:ssa",
	domain.BasisServing: "annoksessa",
	domain.BasisUnit:    "yksikkö",
	domain.BasisValue:   "arvo",
}

var separatorPattern = regexp.MustCompile(`[_\-\s]+`)

const promptHeader = `You are a senior dietitian helping a consumer understand a packaged food.
Respond in Finnish.
Write a concise appraisal with four short sections (keep total output under 170 words):
1) "Yhdellä vilkaisulla": 3 bulletia (ravitsemuslaatu, ainesosien laatu, huomiot).
2) "Kenelle sopii?": 2 bulletia (sopiva / ei-sopiva).
3) "Terveysnäkökulmat": 2 bulletia (mahdolliset riskit, allergeenit tai runsaasti sokeria/suolaa/rasvaa).
4) "Suositellut terveelliset vaihtoehdot": 3 bulletia, konkreettiset elintarvikeryhmät/tuotekategoriat (vähäsokeriset, vähäsuolaiset, korkeakuituiset tms.).
Keep tone pragmatic and evidence-based. Avoid hallucinating nutrients that are not present.
Base your answer strictly on the data below. If data is missing, say it succinctly.

Product data:
`

// NutrientLine is one labelled nutrient value shown to the model
type NutrientLine struct {
	Label string
	Value string
}

// BuildPrompt renders the dietitian prompt for a product
func BuildPrompt(product domain.Product) string {
	nutrients := NutrientLines(product.Nutriments)
	if len(nutrients) > maxPromptNutrients {
		nutrients = nutrients[:maxPromptNutrients]
	}
	rendered := make([]string, 0, len(nutrients))
	for _, line := range nutrients {
		rendered = append(rendered, line.Label+": "+line.Value)
	}

	score := "Unavailable"
	if product.NutritionScore != nil {
		score = product.NutritionScore.String()
	}

	lines := []string{
		fmt.Sprintf("Product: %s (%s)", product.Name, orDefault(product.Brands, "Unknown brand")),
		"Nutri-Score: " + score,
		"Quantity: " + orDefault(deref(product.Quantity), "Unknown"),
		"Categories: " + orDefault(strings.Join(head(product.Categories, maxPromptCategories), ", "), "Unspecified"),
		"Allergens: " + orDefault(domain.Excerpt(deref(product.Allergens), maxPromptAllergens), "Not listed"),
		"Origins: " + orDefault(deref(product.Origins), "Not listed"),
		"Countries: " + orDefault(strings.Join(head(product.Countries, maxPromptCountries), ", "), "Not listed"),
		"Ingredients: " + orDefault(domain.Excerpt(deref(product.Ingredients), maxPromptIngredients), "Not listed"),
		"Nutriments: " + strings.Join(rendered, ", "),
	}

	return promptHeader + strings.Join(lines, "\n")
}

// NutrientLines flattens grouped nutriments into labelled values: the main
// value first, then per 100 g and per serving. Empty values are skipped.
func NutrientLines(nutriments map[string]domain.NutrientValue) []NutrientLine {
	var lines []NutrientLine
	for _, entry := range domain.GroupNutrients(nutriments) {
		unit := ""
		if entry.Unit != "" {
			unit = " " + entry.Unit
		}

		add := func(basis string, value *domain.NutrientValue) {
			if value == nil || value.IsEmpty() {
				return
			}
			lines = append(lines, NutrientLine{
				Label: NutrientLabel(entry.Key, basis),
				Value: value.String() + unit,
			})
		}

		add("", entry.Base)
		add(domain.BasisPer100g, entry.Per100g)
		add(domain.BasisServing, entry.PerServing)
	}
	return lines
}

// NutrientLabel returns the Finnish label of a nutrient key, optionally
// qualified with a measurement basis: "Energia (100 g:ssa)",
// "Energia (kcal, annoksessa)"
func NutrientLabel(key, basis string) string {
	label, ok := nutrientLabels[strings.ToLower(key)]
	if !ok {
		label = prettifyKey(key)
	}
	if basis == "" {
		return label
	}

	suffix, ok := basisLabels[strings.ToLower(basis)]
	if !ok {
		suffix = basis
	}
	if strings.HasSuffix(label, ")") && strings.Contains(label, "(") {
		return label[:len(label)-1] + ", " + suffix + ")"
	}
	return label + " (" + suffix + ")"
}

// prettifyKey turns an unknown key like "beta-carotene" into "Beta Carotene"
func prettifyKey(key string) string {
	spaced := strings.TrimSpace(separatorPattern.ReplaceAllString(key, " "))
	return cases.Title(language.Und, cases.NoLower).String(spaced)
}

func head(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
