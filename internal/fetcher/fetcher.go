// Package fetcher reads raw unit records from roster exports and listing
// feeds: CSV or XLSX sheets with a header row, and JSON arrays. Sources may
// be local paths or http(s) URLs.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/council-ops/unit-roster/internal/model"
)

// Format is the encoding of a record source.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// DetectFormat picks a format from the file extension of a path or URL.
func DetectFormat(src string) (Format, error) {
	name := src
	if isURL(src) {
		u, err := url.Parse(src)
		if err != nil {
			return "", eris.Wrapf(err, "fetcher: parse url %q", src)
		}
		name = u.Path
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", eris.Errorf("fetcher: unsupported input format for %q", src)
	}
}

// ReadRecords loads every record from src. URLs are fetched with dl, which
// may be nil when only local paths are expected.
func ReadRecords(ctx context.Context, src string, dl *Downloader) ([]model.RawRecord, error) {
	format, err := DetectFormat(src)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	if isURL(src) {
		if dl == nil {
			return nil, eris.Errorf("fetcher: no downloader configured for %s", src)
		}
		body, err = dl.Download(ctx, src)
	} else {
		body, err = os.Open(src)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", src)
	}
	defer body.Close() //nolint:errcheck

	records, err := DecodeRecords(ctx, body, format)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", src)
	}

	zap.L().Debug("fetcher: records loaded",
		zap.String("source", src),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// DecodeRecords parses records of the given format from r.
func DecodeRecords(ctx context.Context, r io.Reader, format Format) ([]model.RawRecord, error) {
	switch format {
	case FormatCSV:
		rows, err := ReadCSVTable(ctx, r)
		if err != nil {
			return nil, err
		}
		return RecordsFromTable(rows)
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "xlsx: read body")
		}
		rows, err := ReadWorkbook(data, "")
		if err != nil {
			return nil, err
		}
		return RecordsFromTable(rows)
	case FormatJSON:
		return DecodeListing(ctx, r)
	default:
		return nil, eris.Errorf("fetcher: unknown format %q", format)
	}
}

// DedupeListing drops listing records whose literal identifier has already
// been seen, keeping the first occurrence.
func DedupeListing(records []model.RawRecord) []model.RawRecord {
	seen := make(map[string]bool, len(records))
	out := make([]model.RawRecord, 0, len(records))
	for _, r := range records {
		id := r.LiteralID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
