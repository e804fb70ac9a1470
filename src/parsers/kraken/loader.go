package kraken

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/security/validation"
)

// Worksheet identities. Each loaded file is tagged with one of these; the
// identity is the sole join key used to find a file's companion within a run.
const (
	WorksheetLedger = "Kraken D,W"
	WorksheetTrades = "Kraken T"
)

var ledgerHeader = []string{
	"txid", "refid", "time", "type", "subtype", "aclass", "asset", "amount",
	"fee", "balance",
}

// Kraken has exported trades with two header shapes over the years; both are
// accepted. The extra columns of the long shape are not read.
var tradesHeaderLong = []string{
	"txid", "ordertxid", "pair", "time", "type", "ordertype", "price", "cost",
	"fee", "vol", "margin", "misc", "ledgers", "postxid", "posstatus", "cprice",
	"ccost", "cfee", "cvol", "cmargin", "net", "trades",
}

var tradesHeaderShort = []string{
	"txid", "ordertxid", "pair", "time", "type", "ordertype", "price", "cost",
	"fee", "vol", "margin", "misc", "ledgers",
}

// Row is one line of an export file. Cells are immutable once read; Timestamp,
// Parsed and Record are write-once, set when the row is converted directly or
// consumed as fee data by its companion file.
type Row struct {
	Index     int
	Cells     []string
	Timestamp time.Time
	Parsed    bool
	Record    *models.NormalizedTransaction
}

// File is one fully loaded export file. It owns its rows for their entire
// lifetime; indexes built over a run borrow row references, they never copy.
type File struct {
	Name      string
	Worksheet string
	Header    []string
	Rows      []*Row

	columns map[string]int
}

// Cell returns the named column of a row, or "" when the row is short.
func (f *File) Cell(row *Row, column string) string {
	idx, ok := f.columns[column]
	if !ok || idx >= len(row.Cells) {
		return ""
	}
	return row.Cells[idx]
}

// Column returns the index of the named header column, or -1.
func (f *File) Column(name string) int {
	idx, ok := f.columns[name]
	if !ok {
		return -1
	}
	return idx
}

// Load reads one export file into memory and tags it with its worksheet
// identity based on the header row.
func Load(name string, r io.Reader) (*File, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header of %s: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(validation.StripUnprintable(header[i]))
	}

	worksheet, ok := matchHeader(header)
	if !ok {
		return nil, fmt.Errorf("%s: header does not match any known Kraken export layout", name)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records of %s: %w", name, err)
	}

	file := &File{
		Name:      name,
		Worksheet: worksheet,
		Header:    header,
		columns:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		file.columns[h] = i
	}
	for i, record := range records {
		for j := range record {
			record[j] = validation.StripUnprintable(record[j])
		}
		file.Rows = append(file.Rows, &Row{Index: i, Cells: record})
	}
	return file, nil
}

func matchHeader(header []string) (string, bool) {
	switch {
	case slices.Equal(header, ledgerHeader):
		return WorksheetLedger, true
	case slices.Equal(header, tradesHeaderLong), slices.Equal(header, tradesHeaderShort):
		return WorksheetTrades, true
	}
	return "", false
}
