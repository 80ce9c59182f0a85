package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageURLPageNumber(t *testing.T) {
	pg := profile.Pagination{Style: profile.PageNumber, Param: "page"}

	got, err := PageURL("https://shop.test/search?q=red+shoes&page=9&sort=new", pg, 2)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "2", u.Query().Get("page"))
	assert.Equal(t, "red shoes", u.Query().Get("q"))
	assert.Equal(t, "new", u.Query().Get("sort"))
	assert.Len(t, u.Query()["page"], 1)
}

func TestPageURLKeepsUnparseablePairs(t *testing.T) {
	pg := profile.Pagination{Style: profile.PageNumber, Param: "page"}

	got, err := PageURL("https://shop.test/search?q=red;blue&sort=new", pg, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/search?q=red;blue&sort=new&page=2", got)
}

func TestPageURLOffset(t *testing.T) {
	depop, ok := profile.Lookup("depop")
	require.True(t, ok)

	first, err := PageURL("https://www.depop.com/search/?q=levis", depop.Pagination(), 1)
	require.NoError(t, err)
	assert.Contains(t, first, "offset=0")

	third, err := PageURL("https://www.depop.com/search/?q=levis", depop.Pagination(), 3)
	require.NoError(t, err)
	assert.Contains(t, third, "offset=40")
	assert.Contains(t, third, "q=levis")
}

func TestPageURLRejectsBadInput(t *testing.T) {
	_, err := PageURL("https://shop.test/list", profile.Pagination{Style: profile.PageNumber}, 0)
	assert.Error(t, err)

	_, err = PageURL("http://[::1", profile.Pagination{Style: profile.PageNumber}, 1)
	assert.Error(t, err)
}

func TestDiscoverLinks(t *testing.T) {
	p, ok := profile.Lookup("generic")
	require.True(t, ok)

	body := `<html><body>
		<a class="product-link" href="/product/1">1</a>
		<a class="product-link" href="/product/1#top">dup</a>
		<a class="product-link" href="#">anchor</a>
		<a class="product-link" href="javascript:void(0)">js</a>
		<a class="product-link">no href</a>
		<a href="https://other.test/item/77">absolute</a>
		<a href="/about">about</a>
	</body></html>`

	links := DiscoverLinks(&fetcher.RawPage{URL: "https://shop.test/list?page=1", Body: body}, p)
	assert.Equal(t, []string{"https://shop.test/product/1", "https://other.test/item/77"}, links)
}

func TestDiscoverLinksCap(t *testing.T) {
	p, ok := profile.Lookup("generic")
	require.True(t, ok)

	var hrefs []string
	for i := 0; i < 25; i++ {
		hrefs = append(hrefs, fmt.Sprintf("/product/%d", i))
	}

	links := DiscoverLinks(&fetcher.RawPage{URL: "https://shop.test/list", Body: listingHTML(hrefs...)}, p)
	require.Len(t, links, p.MaxLinksPerPage())
	assert.Equal(t, "https://shop.test/product/0", links[0])
}

func TestDiscoverLinksCapFollowsPageOrderAcrossSelectors(t *testing.T) {
	p, ok := profile.Lookup("generic")
	require.True(t, ok)

	var b strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, `<a href="/item/%d">item</a>`, i)
	}
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, `<a class="product-link" href="/p/%d">card</a>`, i)
	}

	links := DiscoverLinks(&fetcher.RawPage{URL: "https://shop.test/list", Body: b.String()}, p)
	require.Len(t, links, 10)
	assert.Equal(t, "https://shop.test/item/0", links[0])
	assert.Equal(t, "https://shop.test/item/5", links[5])
	assert.Equal(t, "https://shop.test/p/0", links[6])
	assert.Equal(t, "https://shop.test/p/3", links[9])
}

func TestDiscoverLinksDepop(t *testing.T) {
	p, ok := profile.Lookup("depop")
	require.True(t, ok)

	body := `<a href="/products/seller-item-1/">a</a><a href="/products/seller-item-2/">b</a><a href="/sellers/x">c</a>`
	links := DiscoverLinks(&fetcher.RawPage{URL: "https://www.depop.com/search/?q=x", Body: body}, p)
	assert.Equal(t, []string{
		"https://www.depop.com/products/seller-item-1/",
		"https://www.depop.com/products/seller-item-2/",
	}, links)
}
