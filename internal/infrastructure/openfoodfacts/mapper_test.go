package openfoodfacts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumeware/SnackBar/internal/domain"
)

func rawFromJSON(t *testing.T, data string) RawProduct {
	t.Helper()
	var raw RawProduct
	require.NoError(t, json.Unmarshal([]byte(data), &raw))
	return raw
}

func TestMapToProduct_CompleteRecord(t *testing.T) {
	raw := rawFromJSON(t, `{
		"code": "6410405082657",
		"product_name": "Kanafilee",
		"brands": "Kariniemen",
		"image_small_url": "http://images.openfoodfacts.org/small.jpg",
		"image_url": "https://images.openfoodfacts.org/full.jpg",
		"nutriscore_grade": "B",
		"quantity": "400 g",
		"categories_tags": ["fi:liha", "en:chicken"],
		"nutriments": {"energy-kcal_100g": 110, "proteins_100g": "23.5", "energy-kcal_unit": "kcal"},
		"ingredients_text": "kananrintafilee 98%, suola",
		"allergens": "",
		"origins": "Suomi",
		"countries_tags": ["en:finland"]
	}`)

	product := MapToProduct(raw)

	assert.Equal(t, "6410405082657", product.Code)
	assert.Equal(t, "Kanafilee", product.Name)
	assert.Equal(t, "Kariniemen", product.Brands)
	require.NotNil(t, product.ImageThumbURL)
	assert.Equal(t, "https://images.openfoodfacts.org/small.jpg", *product.ImageThumbURL)
	require.NotNil(t, product.ImageURL)
	assert.Equal(t, "https://images.openfoodfacts.org/full.jpg", *product.ImageURL)
	require.NotNil(t, product.NutritionScore)
	assert.Equal(t, domain.NutritionScoreB, *product.NutritionScore)
	require.NotNil(t, product.Quantity)
	assert.Equal(t, "400 g", *product.Quantity)
	assert.Equal(t, []string{"fi:liha", "en:chicken"}, product.Categories)
	assert.Equal(t, domain.NumberValue(110), product.Nutriments["energy-kcal_100g"])
	assert.Equal(t, domain.TextValue("23.5"), product.Nutriments["proteins_100g"])
	assert.Equal(t, domain.TextValue("kcal"), product.Nutriments["energy-kcal_unit"])
	require.NotNil(t, product.Allergens)
	assert.True(t, product.AllergenFree())
	assert.Equal(t, []string{"en:finland"}, product.Countries)
}

func TestMapToProduct_MissingFields(t *testing.T) {
	product := MapToProduct(rawFromJSON(t, `{"code": "123"}`))

	assert.Equal(t, "123", product.Code)
	assert.Equal(t, "Unnamed product", product.Name)
	assert.Equal(t, "", product.Brands)
	assert.Nil(t, product.ImageThumbURL)
	assert.Nil(t, product.ImageURL)
	assert.Nil(t, product.NutritionScore)
	assert.Nil(t, product.Quantity)
	assert.Nil(t, product.Ingredients)
	assert.Nil(t, product.Allergens)
	assert.Nil(t, product.Origins)
	assert.NotNil(t, product.Categories)
	assert.Empty(t, product.Categories)
	assert.NotNil(t, product.Countries)
	assert.Empty(t, product.Countries)
	assert.NotNil(t, product.Nutriments)
	assert.Empty(t, product.Nutriments)
}

func TestMapToProduct_MalformedFieldsDegrade(t *testing.T) {
	raw := rawFromJSON(t, `{
		"code": 737628064502,
		"product_name": 42,
		"brands": null,
		"image_url": "not a url",
		"image_small_url": ["http://x"],
		"nutriscore_grade": "unknown",
		"quantity": {"value": 1},
		"categories_tags": ["en:snacks", 5, null, "en:chips"],
		"nutriments": {"fat_100g": 12, "flag": true, "nested": {"a": 1}, "empty": null},
		"countries_tags": "en:france"
	}`)

	assert.NotPanics(t, func() { MapToProduct(raw) })
	product := MapToProduct(raw)

	assert.Equal(t, "737628064502", product.Code)
	assert.Equal(t, "Unnamed product", product.Name)
	assert.Equal(t, "", product.Brands)
	assert.Nil(t, product.ImageURL)
	assert.Nil(t, product.ImageThumbURL)
	assert.Nil(t, product.NutritionScore)
	assert.Nil(t, product.Quantity)
	assert.Equal(t, []string{"en:snacks", "en:chips"}, product.Categories)
	assert.Equal(t, map[string]domain.NutrientValue{"fat_100g": domain.NumberValue(12)}, product.Nutriments)
	assert.Empty(t, product.Countries)
}

func TestSecureImageURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{name: "https kept", raw: "https://img.example.org/a.jpg", want: strPtr("https://img.example.org/a.jpg")},
		{name: "http upgraded", raw: "http://img.example.org/a.jpg", want: strPtr("https://img.example.org/a.jpg")},
		{name: "uppercase scheme upgraded", raw: "HTTP://img.example.org/a.jpg", want: strPtr("https://img.example.org/a.jpg")},
		{name: "scheme relative upgraded", raw: "//img.example.org/a.jpg", want: strPtr("https://img.example.org/a.jpg")},
		{name: "empty dropped", raw: "", want: nil},
		{name: "relative path dropped", raw: "/images/a.jpg", want: nil},
		{name: "other scheme dropped", raw: "ftp://img.example.org/a.jpg", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secureImageURL(tt.raw))
		})
	}
}

func TestStatusFlag(t *testing.T) {
	assert.Equal(t, 1, statusFlag(json.RawMessage(`1`)))
	assert.Equal(t, 0, statusFlag(json.RawMessage(`0`)))
	assert.Equal(t, 1, statusFlag(json.RawMessage(`"1"`)))
	assert.Equal(t, 0, statusFlag(json.RawMessage(`"product not found"`)))
	assert.Equal(t, 0, statusFlag(nil))
}

func strPtr(s string) *string {
	return &s
}
