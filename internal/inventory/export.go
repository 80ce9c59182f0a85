package inventory

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is an export format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a case-insensitive format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Export writes the collection to w in the given format
func (c *Collection) Export(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return c.WriteJSON(w)
	case FormatCSV:
		return c.WriteCSV(w)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteJSON writes the items as an indented JSON array
func (c *Collection) WriteJSON(w io.Writer) error {
	items := c.Items()
	if items == nil {
		items = []Item{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	return nil
}

// WriteCSV writes a header derived from the first item followed by one row
// per item. An empty collection writes nothing.
func (c *Collection) WriteCSV(w io.Writer) error {
	items := c.Items()
	if len(items) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(items[0].FieldNames()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, item := range items {
		if err := cw.Write(item.Record()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveToFile exports the collection to path, creating parent directories.
// Saving an empty collection as CSV is a no-op and creates no file.
// It reports whether a file was written.
func (c *Collection) SaveToFile(path string, format Format) (bool, error) {
	if format == FormatCSV && c.Len() == 0 {
		return false, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := c.Export(f, format); err != nil {
		f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return true, nil
}
