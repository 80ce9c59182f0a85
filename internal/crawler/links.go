package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sjsage522/inventoryhub/helpers"
	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/profile"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// PageURL builds the URL of listing page n (1-based) by merging the
// merchant's page or offset parameter into start's query string.
func PageURL(start string, pg profile.Pagination, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("page number must be positive, got %d", n)
	}

	value := n
	if pg.Style == profile.Offset {
		value = (n - 1) * pg.PageSize
	}

	param := pg.Param
	if param == "" {
		param = string(pg.Style)
	}

	return helpers.SetQueryParam(start, param, strconv.Itoa(value))
}

// DiscoverLinks returns the product links found on a listing page, resolved
// against the page URL, deduplicated in document order and capped by the
// profile's per-page limit. An element matching any link selector counts,
// so the cap applies across selectors in page order.
func DiscoverLinks(page *fetcher.RawPage, p *profile.MerchantProfile) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil
	}

	matchers := p.Matchers(profile.FieldLinks)
	if len(matchers) == 0 {
		return nil
	}
	anyLink := cascadia.Selector(func(n *html.Node) bool {
		for _, m := range matchers {
			if m.Match(n) {
				return true
			}
		}
		return false
	})

	limit := p.MaxLinksPerPage()
	seen := make(map[string]struct{})
	var links []string

	doc.FindMatcher(anyLink).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}

		link := normalizeLink(page.URL, href)
		if link == "" {
			return true
		}
		if _, dup := seen[link]; dup {
			return true
		}

		seen[link] = struct{}{}
		links = append(links, link)
		return limit <= 0 || len(links) < limit
	})

	return links
}

// normalizeLink resolves href and drops fragments, returning "" for
// anything that is not an http(s) URL
func normalizeLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(helpers.ResolveURL(base, href))
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	u.Fragment = ""
	return u.String()
}
