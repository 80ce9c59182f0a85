package inventory

import (
	"encoding/json"
	"strconv"
	"time"
)

// UnknownTitle is used when no title element can be resolved
const UnknownTitle = "Unknown Product"

// Condition values an item can carry
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
	ConditionUsed    = "used"
)

// Item is a normalized product record extracted from one merchant page.
// ProductURL is its identity within a crawl.
type Item struct {
	Title        string            `json:"title"`
	Price        *float64          `json:"price"`
	Currency     string            `json:"currency"`
	Quantity     *int              `json:"quantity"`
	SKU          string            `json:"sku"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Brand        string            `json:"brand"`
	ImageURL     string            `json:"image_url"`
	ProductURL   string            `json:"product_url"`
	Merchant     string            `json:"merchant"`
	Condition    string            `json:"condition"`
	InStock      bool              `json:"in_stock"`
	ScrapedAt    time.Time         `json:"scraped_at"`
	CustomFields map[string]string `json:"custom_fields"`
}

// NewItem returns an item with every field at its default and the scrape
// timestamp set to now.
func NewItem(productURL, merchant string) Item {
	quantity := 1
	return Item{
		Title:      UnknownTitle,
		Currency:   "USD",
		Quantity:   &quantity,
		ProductURL: productURL,
		Merchant:   merchant,
		Condition:  ConditionUsed,
		InStock:    true,
		ScrapedAt:  time.Now().UTC(),
	}
}

// MarshalJSON writes unset optional text fields as null so consumers can
// tell a missing value from an empty one.
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		SKU         *string `json:"sku"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		Brand       *string `json:"brand"`
		ImageURL    *string `json:"image_url"`
	}{
		plain:       plain(i),
		SKU:         nullable(i.SKU),
		Description: nullable(i.Description),
		Category:    nullable(i.Category),
		Brand:       nullable(i.Brand),
		ImageURL:    nullable(i.ImageURL),
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// csvColumns lists the exported field names in output order
var csvColumns = []string{
	"title", "price", "currency", "quantity", "sku", "description", "category", "brand",
	"image_url", "product_url", "merchant", "condition", "in_stock", "scraped_at", "custom_fields",
}

// FieldNames returns the item's field names in export order
func (i Item) FieldNames() []string {
	return append([]string(nil), csvColumns...)
}

// Record renders the item as one CSV row matching FieldNames. Custom fields
// are flattened into a single JSON cell.
func (i Item) Record() []string {
	price := ""
	if i.Price != nil {
		price = strconv.FormatFloat(*i.Price, 'f', -1, 64)
	}
	quantity := ""
	if i.Quantity != nil {
		quantity = strconv.Itoa(*i.Quantity)
	}
	custom := ""
	if len(i.CustomFields) > 0 {
		if b, err := json.Marshal(i.CustomFields); err == nil {
			custom = string(b)
		}
	}

	return []string{
		i.Title,
		price,
		i.Currency,
		quantity,
		i.SKU,
		i.Description,
		i.Category,
		i.Brand,
		i.ImageURL,
		i.ProductURL,
		i.Merchant,
		i.Condition,
		strconv.FormatBool(i.InStock),
		i.ScrapedAt.Format(time.RFC3339),
		custom,
	}
}
