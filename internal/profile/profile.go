package profile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	crawlerrors "sjsage522/inventoryhub/pkg/errors"

	"github.com/andybalholm/cascadia"
)

// Transport selects how pages of a merchant are fetched
type Transport string

const (
	// TransportHTTP fetches static HTML with a plain GET
	TransportHTTP Transport = "http"
	// TransportRendered fetches the DOM after headless-browser rendering
	TransportRendered Transport = "rendered"
)

// PaginationStyle selects how listing page URLs are built
type PaginationStyle string

const (
	// PageNumber sets the parameter to 1, 2, 3, ...
	PageNumber PaginationStyle = "page"
	// Offset sets the parameter to 0, PageSize, 2*PageSize, ...
	Offset PaginationStyle = "offset"
)

// Field names a logical item field that is located by selectors
type Field string

const (
	FieldTitle       Field = "title"
	FieldPrice       Field = "price"
	FieldDescription Field = "description"
	FieldImage       Field = "image"
	FieldSKU         Field = "sku"
	FieldStock       Field = "stock"
	FieldSoldMarker  Field = "sold_marker"
	FieldBrand       Field = "brand"
	FieldCategory    Field = "category"
	FieldCondition   Field = "condition"
	FieldLinks       Field = "links"
)

// Selectors contains ordered fallback CSS selectors for each field
type Selectors struct {
	Title       []string
	Price       []string
	Description []string
	Image       []string
	SKU         []string
	Stock       []string
	SoldMarker  []string
	Brand       []string
	Category    []string
	Condition   []string

	// Product link discovery on listing pages
	Links []string

	// Ancillary fields collected into the item's custom fields, keyed by name
	Custom map[string][]string
}

// Pagination describes a merchant's listing page convention
type Pagination struct {
	Style    PaginationStyle
	Param    string
	PageSize int
}

// Definition is the plain-data description of a merchant. It is compiled
// into a MerchantProfile by New.
type Definition struct {
	Name       string
	BaseURL    string
	Transport  Transport
	Selectors  Selectors
	Pagination Pagination

	// SKUPattern is matched against the product URL when no SKU element is
	// found; its first capture group is prefixed with SKUPrefix.
	SKUPattern string
	SKUPrefix  string

	// Currency used when the price text carries no recognised symbol
	DefaultCurrency string
	// Condition used when the merchant has no condition selectors at all
	DefaultCondition string
	// Upper bound of product links followed per listing page, 0 is unlimited
	MaxLinksPerPage int
}

// MerchantProfile is an immutable, validated merchant configuration with
// every selector compiled once.
type MerchantProfile struct {
	def        Definition
	matchers   map[Field][]cascadia.Selector
	custom     map[string][]cascadia.Selector
	customKeys []string
	skuPattern *regexp.Regexp
}

// New validates def and compiles its selectors
func New(def Definition) (*MerchantProfile, error) {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return nil, crawlerrors.NewValidation("", "merchant name is required", nil)
	}

	switch def.Transport {
	case "":
		def.Transport = TransportHTTP
	case TransportHTTP, TransportRendered:
	default:
		return nil, crawlerrors.NewValidation(def.Name, fmt.Sprintf("unknown transport %q", def.Transport), nil)
	}

	switch def.Pagination.Style {
	case "":
		def.Pagination.Style = PageNumber
	case PageNumber, Offset:
	default:
		return nil, crawlerrors.NewValidation(def.Name, fmt.Sprintf("unknown pagination style %q", def.Pagination.Style), nil)
	}
	if def.Pagination.Param == "" {
		def.Pagination.Param = string(def.Pagination.Style)
	}
	if def.Pagination.Style == Offset && def.Pagination.PageSize <= 0 {
		return nil, crawlerrors.NewValidation(def.Name, "offset pagination requires a positive page size", nil)
	}
	if def.DefaultCurrency == "" {
		def.DefaultCurrency = "USD"
	}

	p := &MerchantProfile{
		def:      def,
		matchers: make(map[Field][]cascadia.Selector),
		custom:   make(map[string][]cascadia.Selector),
	}

	fields := map[Field][]string{
		FieldTitle:       def.Selectors.Title,
		FieldPrice:       def.Selectors.Price,
		FieldDescription: def.Selectors.Description,
		FieldImage:       def.Selectors.Image,
		FieldSKU:         def.Selectors.SKU,
		FieldStock:       def.Selectors.Stock,
		FieldSoldMarker:  def.Selectors.SoldMarker,
		FieldBrand:       def.Selectors.Brand,
		FieldCategory:    def.Selectors.Category,
		FieldCondition:   def.Selectors.Condition,
		FieldLinks:       def.Selectors.Links,
	}
	for field, selectors := range fields {
		compiled, err := compileAll(def.Name, string(field), selectors)
		if err != nil {
			return nil, err
		}
		p.matchers[field] = compiled
	}

	for key, selectors := range def.Selectors.Custom {
		compiled, err := compileAll(def.Name, key, selectors)
		if err != nil {
			return nil, err
		}
		p.custom[key] = compiled
		p.customKeys = append(p.customKeys, key)
	}
	sort.Strings(p.customKeys)

	if def.SKUPattern != "" {
		re, err := regexp.Compile(def.SKUPattern)
		if err != nil {
			return nil, crawlerrors.NewValidation(def.Name, "invalid sku pattern", err)
		}
		if re.NumSubexp() < 1 {
			return nil, crawlerrors.NewValidation(def.Name, "sku pattern needs a capture group", nil)
		}
		p.skuPattern = re
	}

	return p, nil
}

// MustNew is like New but panics on an invalid definition
func MustNew(def Definition) *MerchantProfile {
	p, err := New(def)
	if err != nil {
		panic(err)
	}
	return p
}

func compileAll(merchant, field string, selectors []string) ([]cascadia.Selector, error) {
	compiled := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, crawlerrors.NewValidation(merchant, fmt.Sprintf("invalid %s selector %q", field, s), err)
		}
		compiled = append(compiled, sel)
	}
	return compiled, nil
}

// Name returns the merchant name
func (p *MerchantProfile) Name() string { return p.def.Name }

// BaseURL returns the merchant base URL used to absolutize relative URLs
func (p *MerchantProfile) BaseURL() string { return p.def.BaseURL }

// Transport returns the transport mode
func (p *MerchantProfile) Transport() Transport { return p.def.Transport }

// Pagination returns the listing page convention
func (p *MerchantProfile) Pagination() Pagination { return p.def.Pagination }

// DefaultCurrency returns the currency used when no symbol is present
func (p *MerchantProfile) DefaultCurrency() string { return p.def.DefaultCurrency }

// DefaultCondition returns the condition for merchants without condition selectors
func (p *MerchantProfile) DefaultCondition() string { return p.def.DefaultCondition }

// MaxLinksPerPage returns the per-listing-page link cap, 0 is unlimited
func (p *MerchantProfile) MaxLinksPerPage() int { return p.def.MaxLinksPerPage }

// Matchers returns the compiled fallback selectors for field in priority order
func (p *MerchantProfile) Matchers(field Field) []cascadia.Selector {
	return p.matchers[field]
}

// HasSelectors reports whether any selector is configured for field
func (p *MerchantProfile) HasSelectors(field Field) bool {
	return len(p.matchers[field]) > 0
}

// CustomFields returns the custom field names in sorted order
func (p *MerchantProfile) CustomFields() []string {
	return append([]string(nil), p.customKeys...)
}

// CustomMatchers returns the compiled selectors of a custom field
func (p *MerchantProfile) CustomMatchers(name string) []cascadia.Selector {
	return p.custom[name]
}

// DeriveSKU builds a merchant-prefixed identifier from the product URL, or
// returns "" when the merchant has no pattern or the URL does not match.
func (p *MerchantProfile) DeriveSKU(productURL string) string {
	if p.skuPattern == nil {
		return ""
	}
	m := p.skuPattern.FindStringSubmatch(productURL)
	if len(m) < 2 || m[1] == "" {
		return ""
	}
	return p.def.SKUPrefix + m[1]
}

// Definition returns a copy of the definition the profile was built from
func (p *MerchantProfile) Definition() Definition {
	def := p.def
	def.Selectors = copySelectors(def.Selectors)
	return def
}

func copySelectors(s Selectors) Selectors {
	clone := func(in []string) []string { return append([]string(nil), in...) }
	out := Selectors{
		Title:       clone(s.Title),
		Price:       clone(s.Price),
		Description: clone(s.Description),
		Image:       clone(s.Image),
		SKU:         clone(s.SKU),
		Stock:       clone(s.Stock),
		SoldMarker:  clone(s.SoldMarker),
		Brand:       clone(s.Brand),
		Category:    clone(s.Category),
		Condition:   clone(s.Condition),
		Links:       clone(s.Links),
	}
	if s.Custom != nil {
		out.Custom = make(map[string][]string, len(s.Custom))
		for k, v := range s.Custom {
			out.Custom[k] = clone(v)
		}
	}
	return out
}
