package helpers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBrowserHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)

	SetBrowserHeaders(req, "inventoryhub-test/1.0")

	assert.Equal(t, "inventoryhub-test/1.0", req.Header.Get("User-Agent"))
	assert.NotEmpty(t, req.Header.Get("Accept"))
	assert.NotEmpty(t, req.Header.Get("Accept-Language"))
}

func TestDecodeToUTF8(t *testing.T) {
	body, err := DecodeToUTF8([]byte("<html><body>Hello, World!</body></html>"), "text/html; charset=utf-8")
	assert.NoError(t, err)
	assert.Equal(t, "<html><body>Hello, World!</body></html>", body)
}

func TestDecodeToUTF8Latin1(t *testing.T) {
	// "£45.00" with the pound sign encoded as a single ISO-8859-1 byte
	raw := []byte("<html><body><span>\xa345.00</span></body></html>")

	body, err := DecodeToUTF8(raw, "text/html; charset=iso-8859-1")
	assert.NoError(t, err)
	assert.Contains(t, body, "£45.00")
}

func TestDecodeToUTF8MetaCharset(t *testing.T) {
	raw := []byte(`<html><head><meta charset="windows-1252"></head><body>caf` + "\xe9" + `</body></html>`)

	body, err := DecodeToUTF8(raw, "text/html")
	assert.NoError(t, err)
	assert.Contains(t, body, "café")
}
