package domain

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Nutriment key suffixes naming the measurement basis
const (
	BasisPer100g = "100g"
	BasisServing = "serving"
	BasisUnit    = "unit"
	BasisValue   = "value"
)

var (
	nutrientSuffixPattern = regexp.MustCompile(`(?i)^(.+)_(100g|serving|unit|value)$`)
	leadingNumberPattern  = regexp.MustCompile(`-?\d*\.?\d+`)
)

// NutrientEntry groups the raw values of one nutrient across measurement bases
type NutrientEntry struct {
	Key        string         `json:"key"`
	Unit       string         `json:"unit,omitempty"`
	Base       *NutrientValue `json:"base,omitempty"`
	Per100g    *NutrientValue `json:"per100g,omitempty"`
	PerServing *NutrientValue `json:"perServing,omitempty"`
}

// SplitNutrientKey separates a raw nutriment key into base key and basis suffix.
// The suffix is empty when the key carries none.
func SplitNutrientKey(key string) (string, string) {
	match := nutrientSuffixPattern.FindStringSubmatch(key)
	if match == nil {
		return key, ""
	}
	return match[1], strings.ToLower(match[2])
}

// GroupNutrients folds raw nutriment keys into one entry per nutrient.
// Prepared-food values are skipped. Output follows sorted base key order.
func GroupNutrients(nutriments map[string]NutrientValue) []NutrientEntry {
	keys := make([]string, 0, len(nutriments))
	for key := range nutriments {
		if strings.Contains(strings.ToLower(key), "prepared") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	grouped := make(map[string]*NutrientEntry)
	fallback := make(map[string]NutrientValue)
	var order []string

	for _, key := range keys {
		value := nutriments[key]
		baseKey, basis := SplitNutrientKey(key)

		entry, ok := grouped[baseKey]
		if !ok {
			entry = &NutrientEntry{Key: baseKey}
			grouped[baseKey] = entry
			order = append(order, baseKey)
		}

		v := value
		switch basis {
		case BasisUnit:
			entry.Unit = value.String()
		case BasisPer100g:
			entry.Per100g = &v
		case BasisServing:
			entry.PerServing = &v
		case BasisValue:
			fallback[baseKey] = value
		default:
			entry.Base = &v
		}
	}

	sort.Strings(order)
	entries := make([]NutrientEntry, 0, len(order))
	for _, baseKey := range order {
		entry := grouped[baseKey]
		if entry.Base == nil {
			if v, ok := fallback[baseKey]; ok {
				entry.Base = &v
			}
		}
		entries = append(entries, *entry)
	}
	return entries
}

// ParseNumber reads a nutriment value leniently: numbers pass through,
// strings yield their first numeric run with a decimal comma accepted
func ParseNumber(v NutrientValue) (float64, bool) {
	if v.IsNumber {
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return 0, false
		}
		return v.Number, true
	}

	normalized := strings.Replace(v.Text, ",", ".", 1)
	match := leadingNumberPattern.FindString(normalized)
	if match == "" {
		return 0, false
	}
	number, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

// NutrientRow is the numeric view of a NutrientEntry used by clients
// that scale values per amount
type NutrientRow struct {
	Key        string   `json:"key"`
	Unit       string   `json:"unit"`
	Base       *float64 `json:"base"`
	Per100g    *float64 `json:"per100g"`
	PerServing *float64 `json:"perServing"`
}

// NutrientRows converts grouped entries to their numeric form
func NutrientRows(entries []NutrientEntry) []NutrientRow {
	rows := make([]NutrientRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, NutrientRow{
			Key:        entry.Key,
			Unit:       entry.Unit,
			Base:       parseOptional(entry.Base),
			Per100g:    parseOptional(entry.Per100g),
			PerServing: parseOptional(entry.PerServing),
		})
	}
	return rows
}

func parseOptional(v *NutrientValue) *float64 {
	if v == nil {
		return nil
	}
	number, ok := ParseNumber(*v)
	if !ok {
		return nil
	}
	return &number
}

// Analysis is the combined AI appraisal and alternative products for one product
type Analysis struct {
	Insight      string    `json:"insight"`
	Alternatives []Product `json:"alternatives"`
}
