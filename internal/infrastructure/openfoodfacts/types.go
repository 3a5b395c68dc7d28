package openfoodfacts

import "encoding/json"

// productFields limits the catalog response to the fields the mapper reads
var productFields = []string{
	"code",
	"product_name",
	"brands",
	"image_small_url",
	"image_url",
	"nutriscore_grade",
	"quantity",
	"categories_tags",
	"nutriments",
	"ingredients_text",
	"allergens",
	"origins",
	"countries_tags",
}

// RawProduct is one catalog record with every field kept undecoded,
// so that a malformed optional field cannot fail the whole response
type RawProduct map[string]json.RawMessage

// SearchResponse represents the response of the catalog search endpoint
type SearchResponse struct {
	Count    json.RawMessage `json:"count"`
	Page     json.RawMessage `json:"page"`
	PageSize json.RawMessage `json:"page_size"`
	Products []RawProduct    `json:"products"`
}

// ProductResponse represents the response of the single product endpoint.
// Status is 1 when the code resolves to an active product.
type ProductResponse struct {
	Status  json.RawMessage `json:"status"`
	Product RawProduct      `json:"product"`
}
