package helpers

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveURL makes ref absolute against base. An empty ref stays empty and
// refs that cannot be parsed are returned trimmed but otherwise unchanged.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return refURL.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}

	return baseURL.ResolveReference(refURL).String()
}

// SetQueryParam sets key=value in rawURL's query string. Existing pairs for
// key are replaced by one appended pair; every other pair and the fragment
// are kept byte for byte.
func SetQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	var pairs []string
	if u.RawQuery != "" {
		for _, pair := range strings.Split(u.RawQuery, "&") {
			if queryKey(pair) == key {
				continue
			}
			pairs = append(pairs, pair)
		}
	}
	pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(value))
	u.RawQuery = strings.Join(pairs, "&")

	return u.String(), nil
}

// queryKey returns the unescaped key of a raw "k=v" query pair
func queryKey(pair string) string {
	k, _, _ := strings.Cut(pair, "=")
	if unescaped, err := url.QueryUnescape(k); err == nil {
		return unescaped
	}
	return k
}
