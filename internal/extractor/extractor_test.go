package extractor

import (
	"testing"

	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/inventory"
	"sjsage522/inventoryhub/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(url, body string) *fetcher.RawPage {
	return &fetcher.RawPage{URL: url, Body: body, Transport: profile.TransportHTTP}
}

func lookup(t *testing.T, name string) *profile.MerchantProfile {
	t.Helper()
	p, ok := profile.Lookup(name)
	require.True(t, ok)
	return p
}

func TestExtractWithoutMatchingSelectors(t *testing.T) {
	p := lookup(t, "generic")
	item := Extract(page("https://shop.example.com/product/1", "<html><body><p>nothing here</p></body></html>"), p)

	assert.Equal(t, inventory.UnknownTitle, item.Title)
	assert.Nil(t, item.Price)
	assert.Equal(t, "USD", item.Currency)
	assert.True(t, item.InStock)
	assert.Equal(t, "Generic", item.Merchant)
	assert.Equal(t, "https://shop.example.com/product/1", item.ProductURL)
	assert.Empty(t, item.SKU)
	assert.Nil(t, item.CustomFields)
	require.NotNil(t, item.Quantity)
	assert.Equal(t, 1, *item.Quantity)
}

func TestExtractNeverFailsOnGarbage(t *testing.T) {
	p := lookup(t, "depop")
	assert.NotPanics(t, func() {
		item := Extract(page("https://www.depop.com/products/x/", "<<<>>>\x00</div></div>"), p)
		assert.Equal(t, inventory.UnknownTitle, item.Title)
		assert.Equal(t, "DEPOP-x", item.SKU)
	})
	assert.NotPanics(t, func() {
		item := Extract(nil, p)
		assert.Equal(t, inventory.UnknownTitle, item.Title)
	})
}

func TestExtractSingleProductPage(t *testing.T) {
	def := profile.Definition{
		Name: "Thrift",
		Selectors: profile.Selectors{
			Title:     []string{"h1"},
			Price:     []string{".price"},
			Condition: []string{".condition"},
		},
	}
	p, err := profile.New(def)
	require.NoError(t, err)

	body := `<html><body>
		<h1>  Vintage Jacket </h1>
		<span class="price">£45.00</span>
		<div class="condition">Good</div>
	</body></html>`

	item := Extract(page("https://thrift.example.com/item/jacket", body), p)

	assert.Equal(t, "Vintage Jacket", item.Title)
	require.NotNil(t, item.Price)
	assert.InDelta(t, 45.0, *item.Price, 0.0001)
	assert.Equal(t, "GBP", item.Currency)
	assert.Equal(t, "good", item.Condition)
	assert.True(t, item.InStock)
}

func TestExtractSelectorFallbackOrder(t *testing.T) {
	p := lookup(t, "generic")
	body := `<html><body>
		<h1>   </h1>
		<div class="product-title">Fallback Title</div>
		<span class="product-price">$1,299.00</span>
		<span class="price"></span>
	</body></html>`

	item := Extract(page("https://shop.example.com/product/2", body), p)
	assert.Equal(t, "Fallback Title", item.Title)
	require.NotNil(t, item.Price)
	assert.InDelta(t, 1299.0, *item.Price, 0.0001)
	assert.Equal(t, "USD", item.Currency)
}

func TestExtractGenericDefaultsToNewCondition(t *testing.T) {
	p := lookup(t, "generic")
	item := Extract(page("https://shop.example.com/product/3", "<h1>Mug</h1>"), p)
	assert.Equal(t, inventory.ConditionNew, item.Condition)
}

func TestExtractStockText(t *testing.T) {
	p := lookup(t, "generic")
	body := `<h1>Lamp</h1><div class="availability">Sold out</div>`
	item := Extract(page("https://shop.example.com/product/4", body), p)
	assert.False(t, item.InStock)
}

func TestExtractDepopProduct(t *testing.T) {
	p := lookup(t, "depop")
	body := `<html><body>
		<h1 data-testid="product__title">Levi's 501</h1>
		<p data-testid="product__price">£30.00</p>
		<p data-testid="product__description">Classic fit,
			barely worn.</p>
		<img data-testid="product__image" src="/images/501.jpg">
		<a data-testid="product__brand" href="/brand/levis">Levi's</a>
		<p data-testid="product__condition">Like new</p>
		<p data-testid="product__size">W32 L34</p>
		<span data-testid="product__sold">Sold</span>
	</body></html>`

	item := Extract(page("https://www.depop.com/products/seller-levis-501-abc_1/", body), p)

	assert.Equal(t, "Depop", item.Merchant)
	assert.Equal(t, "Levi's 501", item.Title)
	assert.Equal(t, "GBP", item.Currency)
	assert.Equal(t, "Classic fit, barely worn.", item.Description)
	assert.Equal(t, "https://www.depop.com/images/501.jpg", item.ImageURL)
	assert.Equal(t, "Levi's", item.Brand)
	assert.Equal(t, inventory.ConditionLikeNew, item.Condition)
	assert.Equal(t, "DEPOP-seller-levis-501-abc_1", item.SKU)
	assert.False(t, item.InStock)
	assert.Equal(t, map[string]string{"size": "W32 L34"}, item.CustomFields)
}

func TestExtractMercariSKUFromURL(t *testing.T) {
	p := lookup(t, "mercari")
	body := `<div data-testid="item-name">Switch Console</div>
		<div data-testid="price">$199</div>
		<img class="item-image" data-src="https://static.mercdn.net/item/m123.jpg">`

	item := Extract(page("https://www.mercari.com/us/item/m12345678/", body), p)

	assert.Equal(t, "Switch Console", item.Title)
	assert.Equal(t, "MERC-12345678", item.SKU)
	assert.Equal(t, "USD", item.Currency)
	assert.Equal(t, "https://static.mercdn.net/item/m123.jpg", item.ImageURL)
	assert.Equal(t, inventory.ConditionUsed, item.Condition)
	assert.True(t, item.InStock)
}

func TestExtractSKUElementWins(t *testing.T) {
	p := lookup(t, "generic")
	body := `<span class="sku">ABC-001</span>`
	item := Extract(page("https://shop.example.com/product/5", body), p)
	assert.Equal(t, "ABC-001", item.SKU)
}

func TestExtractRelativeImageWithoutBaseURL(t *testing.T) {
	p := lookup(t, "generic")
	body := `<div class="main-image"><img src="../img/5.png"></div>`
	item := Extract(page("https://shop.example.com/product/5", body), p)
	assert.Equal(t, "https://shop.example.com/img/5.png", item.ImageURL)
}
