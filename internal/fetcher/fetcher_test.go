package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/council-ops/unit-roster/internal/model"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Roster")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		src  string
		want Format
	}{
		{"roster.csv", FormatCSV},
		{"ROSTER.CSV", FormatCSV},
		{"export.xlsx", FormatXLSX},
		{"listing.json", FormatJSON},
		{"https://example.org/feeds/listing.json?page=2", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := DetectFormat(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DetectFormat("roster.pdf")
	assert.Error(t, err)
}

func TestReadCSVTable_TrimsAndSkipsBlankRows(t *testing.T) {
	input := "Unit Type, Unit Number \n\n , \nPack , 7\n"
	rows, err := ReadCSVTable(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Unit Type", "Unit Number"}, rows[0])
	assert.Equal(t, []string{"Pack", "7"}, rows[1])
}

func TestReadCSVTable_Delimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"comma", "Type,Number,Town\nTroop,12,Stow\n"},
		{"semicolon", "Type;Number;Town\nTroop;12;Stow\n"},
		{"tab", "Type\tNumber\tTown\nTroop\t12\tStow\n"},
		{"utf8 bom", "\ufeffType,Number,Town\nTroop,12,Stow\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSVTable(context.Background(), strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, []string{"Type", "Number", "Town"}, rows[0])
			assert.Equal(t, []string{"Troop", "12", "Stow"}, rows[1])
		})
	}
}

func TestReadCSVTable_UTF16(t *testing.T) {
	// UTF-16LE with a byte-order mark.
	text := "Type\tTown\r\nCrew\tHarvard\r\n"
	data := []byte{0xFF, 0xFE}
	for _, r := range text {
		data = append(data, byte(r), 0)
	}

	rows, err := ReadCSVTable(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Crew", "Harvard"}, rows[1])
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter("a,b;c"))
	assert.Equal(t, ';', sniffDelimiter("a;b;c,d"))
	assert.Equal(t, '\t', sniffDelimiter("a\tb\tc\n1,2,3,4,5"))
	assert.Equal(t, ',', sniffDelimiter(""))
}

func TestReadCSVTable_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSVTable(ctx, strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestRecordsFromTable_HeaderAliases(t *testing.T) {
	table := [][]string{
		{"Unit Type", "Unit #", "Chartered Org", "Meeting Location", "Meeting Day", "E-mail", "Ignored"},
		{"Troop", "0007", "Acton Lions Club", "12 Main St, Acton, MA 01720", "Monday", "troop7@example.org", "x"},
		{"Pack", "12", "", "", "", "", ""},
	}

	records, err := RecordsFromTable(table)
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "Troop", model.Val(r.Type))
	assert.Equal(t, "0007", model.Val(r.Number))
	assert.Equal(t, "Acton Lions Club", model.Val(r.Organization))
	assert.Equal(t, "12 Main St, Acton, MA 01720", model.Val(r.Address))
	assert.Equal(t, "Monday", model.Val(r.MeetingDay))
	assert.Equal(t, "troop7@example.org", model.Val(r.Email))
	assert.Nil(t, r.Locality)

	// Blank cells are absent, not empty.
	assert.Nil(t, records[1].Organization)
	assert.Nil(t, records[1].Address)
}

func TestRecordsFromTable_ShortRows(t *testing.T) {
	table := [][]string{
		{"Type", "Number", "Town"},
		{"Crew"},
	}
	records, err := RecordsFromTable(table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Crew", model.Val(records[0].Type))
	assert.Nil(t, records[0].Number)
	assert.Nil(t, records[0].Locality)
}

func TestRecordsFromTable_UnknownHeader(t *testing.T) {
	_, err := RecordsFromTable([][]string{{"foo", "bar"}, {"1", "2"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognised columns")
}

func TestRecordsFromTable_Empty(t *testing.T) {
	records, err := RecordsFromTable(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRecords_CSV(t *testing.T) {
	path := writeTestFile(t, "roster.csv", "Type,Number,Town,Organization\nPack,7,Acton,Acton Lions Club\n")

	records, err := ReadRecords(context.Background(), path, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acton", model.Val(records[0].Locality))
}

func TestReadRecords_XLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"Unit Type", "Unit Number", "Chartered Organization"},
		{"Crew", "2021", "Harvard Sportsmen's Club"},
		{"", "", ""},
	})

	records, err := ReadRecords(context.Background(), path, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Crew", model.Val(records[0].Type))
	assert.Equal(t, "Harvard Sportsmen's Club", model.Val(records[0].Organization))
}

func TestReadWorkbook_SkipsCoverSheet(t *testing.T) {
	f := xlsx.NewFile()
	cover, err := f.AddSheet("Instructions")
	require.NoError(t, err)
	cover.AddRow().AddCell().SetString("Fill in one row per unit.")
	roster, err := f.AddSheet("Units")
	require.NoError(t, err)
	for _, cells := range [][]string{{"Unit Type", "Unit Number"}, {" Pack ", "12"}} {
		row := roster.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadWorkbook(buf.Bytes(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Pack", "12"}, rows[1])

	rows, err = ReadWorkbook(buf.Bytes(), "Instructions")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Fill in one row per unit."}}, rows)
}

func TestReadWorkbook_SheetErrors(t *testing.T) {
	data, err := os.ReadFile(createTestXLSX(t, [][]string{{"Read me"}, {"nothing here"}}))
	require.NoError(t, err)

	_, err = ReadWorkbook(data, "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = ReadWorkbook(data, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has a roster header")
}

func TestReadRecords_JSON(t *testing.T) {
	path := writeTestFile(t, "listing.json", `[
		{"type": "Pack", "number": "7", "organization": " Acton-Congregational Church ", "email": ""},
		{"type": "Troop", "number": "12"}
	]`)

	records, err := ReadRecords(context.Background(), path, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Acton-Congregational Church", model.Val(records[0].Organization))
	assert.Nil(t, records[0].Email)
}

func TestDecodeListing_Errors(t *testing.T) {
	_, err := DecodeListing(context.Background(), strings.NewReader(`{"type":"Pack"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an array")

	_, err = DecodeListing(context.Background(), strings.NewReader(`[{"type":"Pack"},{"type":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing element 1")

	records, err := DecodeListing(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRecords_MissingFile(t *testing.T) {
	_, err := ReadRecords(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.Error(t, err)
}

func TestReadRecords_URLWithoutDownloader(t *testing.T) {
	_, err := ReadRecords(context.Background(), "https://example.org/listing.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no downloader")
}

func TestReadRecords_URL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"type":"Ship","number":"9"}]`))
	}))
	defer srv.Close()

	dl := NewDownloader(HTTPOptions{BaseBackoff: time.Millisecond, RatePerSec: 1000})
	records, err := ReadRecords(context.Background(), srv.URL+"/listing.json", dl)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ship", model.Val(records[0].Type))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownloader_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dl := NewDownloader(HTTPOptions{BaseBackoff: time.Millisecond, RatePerSec: 1000})
	_, err := dl.Download(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestDownloader_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	dl := NewDownloader(HTTPOptions{BaseBackoff: time.Millisecond, RatePerSec: 1000, MaxRetries: 2})
	_, err := dl.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestDedupeListing(t *testing.T) {
	records := []model.RawRecord{
		{Type: model.Opt("Pack"), Number: model.Opt("7"), Organization: model.Opt("Acton Lions")},
		{Type: model.Opt("Pack"), Number: model.Opt("7"), Organization: model.Opt("Acton Lions"), Email: model.Opt("x@y.org")},
		{Type: model.Opt("Pack"), Number: model.Opt("007"), Organization: model.Opt("Acton Lions")},
	}

	out := DedupeListing(records)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Email)
	assert.Equal(t, "007", model.Val(out[1].Number))
}

func TestClean(t *testing.T) {
	blank := "   "
	padded := " Acton "
	rec := Clean(model.RawRecord{Locality: &padded, Email: &blank})
	assert.Equal(t, "Acton", model.Val(rec.Locality))
	assert.Nil(t, rec.Email)
}
