package openfoodfacts

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/tumeware/SnackBar/internal/domain"
)

// MapToProduct converts a raw catalog record to our domain Product.
// It never fails: malformed or missing fields fall back to defaults.
func MapToProduct(raw RawProduct) domain.Product {
	name := stringField(raw, "product_name")
	if name == "" {
		name = domain.DefaultProductName
	}

	return domain.Product{
		Code:           codeField(raw),
		Name:           name,
		Brands:         stringField(raw, "brands"),
		ImageThumbURL:  secureImageURL(stringField(raw, "image_small_url")),
		ImageURL:       secureImageURL(stringField(raw, "image_url")),
		NutritionScore: nutritionScore(stringField(raw, "nutriscore_grade")),
		Quantity:       optionalStringField(raw, "quantity"),
		Categories:     stringListField(raw, "categories_tags"),
		Nutriments:     nutrimentsField(raw),
		Ingredients:    optionalStringField(raw, "ingredients_text"),
		Allergens:      optionalStringField(raw, "allergens"),
		Origins:        optionalStringField(raw, "origins"),
		Countries:      stringListField(raw, "countries_tags"),
	}
}

// codeField reads the product code, which some records carry as a number
func codeField(raw RawProduct) string {
	if code := stringField(raw, "code"); code != "" {
		return strings.TrimSpace(code)
	}
	var number json.Number
	if data, ok := raw["code"]; ok && json.Unmarshal(data, &number) == nil {
		return number.String()
	}
	return ""
}

func stringField(raw RawProduct, key string) string {
	data, ok := raw[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return ""
	}
	return value
}

// optionalStringField distinguishes an absent field (nil) from an empty one
func optionalStringField(raw RawProduct, key string) *string {
	data, ok := raw[key]
	if !ok {
		return nil
	}
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return nil
	}
	return value
}

// stringListField keeps the string elements of an array field, in order
func stringListField(raw RawProduct, key string) []string {
	values := []string{}
	data, ok := raw[key]
	if !ok {
		return values
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return values
	}
	for _, element := range elements {
		if string(element) == "null" {
			continue
		}
		var value string
		if err := json.Unmarshal(element, &value); err == nil {
			values = append(values, value)
		}
	}
	return values
}

// nutrimentsField keeps the number and string values of the nutriments object
func nutrimentsField(raw RawProduct) map[string]domain.NutrientValue {
	nutriments := make(map[string]domain.NutrientValue)
	data, ok := raw["nutriments"]
	if !ok {
		return nutriments
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nutriments
	}
	for key, entry := range entries {
		if string(entry) == "null" {
			continue
		}
		var value domain.NutrientValue
		if err := json.Unmarshal(entry, &value); err == nil {
			nutriments[key] = value
		}
	}
	return nutriments
}

func nutritionScore(grade string) *domain.NutritionScore {
	score, ok := domain.ParseNutritionScore(grade)
	if !ok {
		return nil
	}
	return &score
}

// secureImageURL upgrades http and scheme-relative URLs to https.
// Anything that is not an absolute https URL afterwards is dropped.
func secureImageURL(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case len(raw) >= len("http://") && strings.EqualFold(raw[:len("http://")], "http://"):
		raw = "https://" + raw[len("http://"):]
	}

	parsed, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(parsed.Scheme, "https") || parsed.Host == "" {
		return nil
	}
	return &raw
}

// statusFlag reads the product endpoint status, tolerating a quoted number
func statusFlag(data json.RawMessage) int {
	var number int
	if err := json.Unmarshal(data, &number); err == nil {
		return number
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return parsed
		}
	}
	return 0
}
