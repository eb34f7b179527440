package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSVTable reads a delimited roster export into trimmed rows, dropping
// rows whose cells are all blank. Exports saved as "Unicode text" arrive as
// UTF-16 with a byte-order mark and tab separators; both are detected from
// the first line.
func ReadCSVTable(ctx context.Context, r io.Reader) ([][]string, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))

	first, err := br.Peek(peekLimit(br))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, eris.Wrap(err, "csv: read header")
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(string(first))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var table [][]string
	for line := 1; ; line++ {
		if line%512 == 0 && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: line %d", line)
		}
		if row = trimRow(row); row != nil {
			table = append(table, row)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "csv: context cancelled")
	}
	return table, nil
}

func peekLimit(br *bufio.Reader) int {
	return min(br.Size(), 4096)
}

// sniffDelimiter picks whichever of tab, semicolon or comma occurs most in
// the header line. Commas win ties.
func sniffDelimiter(sample string) rune {
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		sample = sample[:i]
	}
	best, count := ',', strings.Count(sample, ",")
	for _, d := range []rune{'\t', ';'} {
		if n := strings.Count(sample, string(d)); n > count {
			best, count = d, n
		}
	}
	return best
}

// trimRow trims every cell in place and returns nil for an all-blank row.
func trimRow(row []string) []string {
	blank := true
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
		blank = blank && row[i] == ""
	}
	if blank {
		return nil
	}
	return row
}
