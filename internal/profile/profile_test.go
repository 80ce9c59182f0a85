package profile

import (
	"testing"

	crawlerrors "sjsage522/inventoryhub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(Definition{
		Name:      " Shop ",
		Selectors: Selectors{Title: []string{"h1"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shop", p.Name())
	assert.Equal(t, TransportHTTP, p.Transport())
	assert.Equal(t, PageNumber, p.Pagination().Style)
	assert.Equal(t, "page", p.Pagination().Param)
	assert.Equal(t, "USD", p.DefaultCurrency())
	assert.True(t, p.HasSelectors(FieldTitle))
	assert.False(t, p.HasSelectors(FieldPrice))
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"missing name", Definition{}},
		{"bad transport", Definition{Name: "x", Transport: "ftp"}},
		{"bad pagination", Definition{Name: "x", Pagination: Pagination{Style: "cursor"}}},
		{"offset without page size", Definition{Name: "x", Pagination: Pagination{Style: Offset}}},
		{"bad selector", Definition{Name: "x", Selectors: Selectors{Price: []string{"div[data-testid="}}}},
		{"bad custom selector", Definition{Name: "x", Selectors: Selectors{Custom: map[string][]string{"size": {"span["}}}}},
		{"bad sku pattern", Definition{Name: "x", SKUPattern: "(["}},
		{"sku pattern without group", Definition{Name: "x", SKUPattern: `/m\d+`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			require.Error(t, err)
			assert.True(t, crawlerrors.Is(err, crawlerrors.ErrorTypeValidation))
		})
	}
}

func TestDeriveSKU(t *testing.T) {
	depop, ok := Lookup("depop")
	require.True(t, ok)
	assert.Equal(t, "DEPOP-vintage-jacket_01", depop.DeriveSKU("https://www.depop.com/products/vintage-jacket_01/"))
	assert.Equal(t, "", depop.DeriveSKU("https://www.depop.com/search/?q=jacket"))

	mercari, ok := Lookup("Mercari")
	require.True(t, ok)
	assert.Equal(t, "MERC-88213", mercari.DeriveSKU("https://www.mercari.com/us/item/m88213/"))

	generic, _ := Lookup("generic")
	assert.Equal(t, "", generic.DeriveSKU("https://shop.example.com/product/123"))
}

func TestDefinitionReturnsCopy(t *testing.T) {
	p, _ := Lookup("depop")
	def := p.Definition()
	def.Selectors.Title[0] = "h2"
	def.Selectors.Custom["size"] = nil

	again := p.Definition()
	assert.Equal(t, `h1[data-testid="product__title"]`, again.Selectors.Title[0])
	assert.Len(t, again.Selectors.Custom["size"], 3)
	assert.Equal(t, []string{"size"}, p.CustomFields())
	assert.Len(t, p.CustomMatchers("size"), 3)
}
