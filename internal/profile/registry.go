package profile

import (
	"sort"
	"strings"
)

// Overrides adjusts a profile for one crawl without touching the registry
type Overrides struct {
	Name          string
	TitleSelector string
	PriceSelector string
	Rendered      bool
}

var builtins = map[string]Definition{
	"generic": {
		Name:      "Generic",
		Transport: TransportHTTP,
		Selectors: Selectors{
			Title:       []string{"h1", ".product-title", ".item-title"},
			Price:       []string{".price", ".product-price", "[itemprop='price']"},
			Description: []string{".description", ".product-description", "[itemprop='description']"},
			Image:       []string{"img.product-image", ".main-image img", "[itemprop='image']"},
			SKU:         []string{".sku", ".product-code", "[itemprop='sku']"},
			Stock:       []string{".stock", ".availability", "[itemprop='availability']"},
			Links:       []string{"a.product-link", `a[href*="/product/"]`, `a[href*="/item/"]`},
		},
		Pagination:       Pagination{Style: PageNumber, Param: "page"},
		DefaultCondition: "new",
		MaxLinksPerPage:  10,
	},
	"custommerchant": {
		Name:      "CustomMerchant",
		Transport: TransportHTTP,
		Selectors: Selectors{
			Title:       []string{"h1.product-name"},
			Price:       []string{"span.price-value"},
			Description: []string{"div.product-desc"},
			Image:       []string{"img.main-product-image"},
			SKU:         []string{"span.product-sku"},
			Stock:       []string{"div.stock-info"},
			Links:       []string{"a.product-link", `a[href*="/product/"]`},
		},
		Pagination:       Pagination{Style: PageNumber, Param: "page"},
		DefaultCondition: "new",
		MaxLinksPerPage:  10,
	},
	"depop": {
		Name:      "Depop",
		BaseURL:   "https://www.depop.com",
		Transport: TransportRendered,
		Selectors: Selectors{
			Title:       []string{`h1[data-testid="product__title"]`, "h1.product-title", "h1"},
			Price:       []string{`p[data-testid="product__price"]`, "span.price", "p.product-price"},
			Description: []string{`p[data-testid="product__description"]`, "div.product-description", "div.description"},
			Image:       []string{`img[data-testid="product__image"]`, "img.product-image", "picture img"},
			SoldMarker:  []string{`[data-testid="product__sold"]`, ".sold-badge", "span.sold"},
			Brand:       []string{`a[data-testid="product__brand"]`, "span.brand", "a.product-brand"},
			Category:    []string{`a[data-testid="product__category"]`, "span.category", "nav.breadcrumb"},
			Condition:   []string{`p[data-testid="product__condition"]`, "span.condition"},
			Links:       []string{`a[href*="/products/"]`, `a[data-testid="product-card"]`},
			Custom: map[string][]string{
				"size": {`p[data-testid="product__size"]`, "span.size", "div.product-size"},
			},
		},
		Pagination: Pagination{Style: Offset, Param: "offset", PageSize: 20},
		SKUPattern: `/products/([a-zA-Z0-9\-_]+)`,
		SKUPrefix:  "DEPOP-",
	},
	"mercari": {
		Name:      "Mercari",
		BaseURL:   "https://www.mercari.com",
		Transport: TransportRendered,
		Selectors: Selectors{
			Title:       []string{`h1[data-testid="item-name"]`, "h1.item-name", `div[data-testid="item-name"]`},
			Price:       []string{`div[data-testid="price"]`, "span.price", "div.item-price"},
			Description: []string{`div[data-testid="description"]`, "div.item-description", "p.description"},
			Image:       []string{`img[data-testid="item-photo"]`, "img.item-image", "img.product-image"},
			SoldMarker:  []string{`div[data-testid="sold"]`, "span.sold", "div.item-sold"},
			Brand:       []string{`div[data-testid="brand"]`, "span.brand", "div.item-brand"},
			Category:    []string{`div[data-testid="category"]`, "span.category", "nav.breadcrumb"},
			Condition:   []string{`div[data-testid="condition"]`, "span.condition", "div.item-condition"},
			Links:       []string{`a[href*="/item/"]`, `a[data-testid="item-card"]`},
		},
		Pagination:      Pagination{Style: PageNumber, Param: "page"},
		SKUPattern:      `/m(\d+)`,
		SKUPrefix:       "MERC-",
		DefaultCurrency: "USD",
	},
}

var registry = compileBuiltins()

func compileBuiltins() map[string]*MerchantProfile {
	compiled := make(map[string]*MerchantProfile, len(builtins))
	for key, def := range builtins {
		compiled[key] = MustNew(def)
	}
	return compiled
}

// Names returns the keys of the built-in profiles
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in profile for merchant (case-insensitive).
// Unknown merchants get the generic profile renamed to merchant.
func Lookup(merchant string) (*MerchantProfile, bool) {
	key := strings.ToLower(strings.TrimSpace(merchant))
	if p, ok := registry[key]; ok {
		return p, true
	}

	def := registry["generic"].Definition()
	if name := strings.TrimSpace(merchant); name != "" {
		def.Name = name
	}
	return MustNew(def), false
}

// Resolve looks up merchant and applies overrides. Overrides only apply to
// merchants without a dedicated built-in selector set.
func Resolve(merchant string, o Overrides) (*MerchantProfile, error) {
	p, builtin := Lookup(merchant)
	if builtin && strings.ToLower(strings.TrimSpace(merchant)) != "generic" {
		return p, nil
	}
	return p.With(o)
}

// With derives a new profile with the overrides applied
func (p *MerchantProfile) With(o Overrides) (*MerchantProfile, error) {
	def := p.Definition()
	if o.Name != "" {
		def.Name = o.Name
	}
	if o.TitleSelector != "" {
		def.Selectors.Title = []string{o.TitleSelector}
	}
	if o.PriceSelector != "" {
		def.Selectors.Price = []string{o.PriceSelector}
	}
	if o.Rendered {
		def.Transport = TransportRendered
	}
	return New(def)
}
