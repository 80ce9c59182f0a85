package extractor

import (
	"strings"

	"sjsage522/inventoryhub/helpers"
	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/inventory"
	"sjsage522/inventoryhub/internal/profile"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// image URL attributes in priority order
var imageAttrs = []string{"src", "data-src", "content"}

// Extract maps a fetched product page onto an inventory item using the
// profile's selectors. It never fails: fields that cannot be found keep
// their defaults.
func Extract(page *fetcher.RawPage, p *profile.MerchantProfile) inventory.Item {
	if page == nil {
		page = &fetcher.RawPage{}
	}

	base := p.BaseURL()
	if base == "" {
		base = page.URL
	}

	item := inventory.NewItem(helpers.ResolveURL(base, page.URL), p.Name())
	item.Currency = p.DefaultCurrency()
	if !p.HasSelectors(profile.FieldCondition) && p.DefaultCondition() != "" {
		item.Condition = p.DefaultCondition()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		item.SKU = p.DeriveSKU(item.ProductURL)
		return item
	}

	if title := firstText(doc, p.Matchers(profile.FieldTitle)); title != "" {
		item.Title = title
	}

	priceText := firstText(doc, p.Matchers(profile.FieldPrice))
	item.Currency = DetectCurrency(priceText, p.DefaultCurrency())
	item.Price = ExtractPrice(priceText)

	item.Description = firstText(doc, p.Matchers(profile.FieldDescription))
	item.Brand = firstText(doc, p.Matchers(profile.FieldBrand))
	item.Category = firstText(doc, p.Matchers(profile.FieldCategory))

	if src := firstAttr(doc, p.Matchers(profile.FieldImage), imageAttrs); src != "" {
		item.ImageURL = helpers.ResolveURL(base, src)
	}

	item.SKU = firstText(doc, p.Matchers(profile.FieldSKU))
	if item.SKU == "" {
		item.SKU = p.DeriveSKU(item.ProductURL)
	}

	if p.HasSelectors(profile.FieldCondition) {
		item.Condition = NormalizeCondition(firstText(doc, p.Matchers(profile.FieldCondition)))
	}

	soldMarked := anyMatch(doc, p.Matchers(profile.FieldSoldMarker))
	item.InStock = !soldMarked && InStockFromText(firstText(doc, p.Matchers(profile.FieldStock)))

	custom := make(map[string]string)
	for _, name := range p.CustomFields() {
		if value := firstText(doc, p.CustomMatchers(name)); value != "" {
			custom[name] = value
		}
	}
	if len(custom) > 0 {
		item.CustomFields = custom
	}

	return item
}

// firstText returns the text of the first element with non-empty text,
// trying matchers in order.
func firstText(doc *goquery.Document, matchers []cascadia.Selector) string {
	for _, m := range matchers {
		var text string
		doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = NormalizeText(s.Text())
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the first non-empty attribute value among attrs,
// trying matchers in order.
func firstAttr(doc *goquery.Document, matchers []cascadia.Selector, attrs []string) string {
	for _, m := range matchers {
		var value string
		doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, attr := range attrs {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					value = strings.TrimSpace(v)
					return false
				}
			}
			return true
		})
		if value != "" {
			return value
		}
	}
	return ""
}

func anyMatch(doc *goquery.Document, matchers []cascadia.Selector) bool {
	for _, m := range matchers {
		if doc.FindMatcher(m).Length() > 0 {
			return true
		}
	}
	return false
}
