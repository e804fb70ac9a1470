package kraken

import (
	"fmt"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
)

// Run owns the full set of files loaded for one import. Cross-file indexes are
// built lazily on first use and memoized for the remainder of the run; every
// file is resident before any row is converted, so an index always reflects the
// companion file's full contents regardless of which file was uploaded first.
type Run struct {
	files []*File

	ledgerFees      map[string][]ledgerRef
	ledgerFeesReady bool
	tradeRefs       map[string]*Row
	tradeRefsReady  bool
}

// ledgerRef points at a ledger row together with the file that owns it, so the
// row's cells can be resolved by column name later.
type ledgerRef struct {
	file *File
	row  *Row
}

func NewRun(files ...*File) *Run {
	return &Run{files: files}
}

// Convert builds one normalized transaction record per convertible row across
// every file of the run. A row consumed as fee data by its companion file is
// flagged parsed and produces no standalone record.
func (r *Run) Convert() ([]models.NormalizedTransaction, error) {
	var out []models.NormalizedTransaction
	for _, f := range r.files {
		for _, row := range f.Rows {
			if row.Parsed {
				continue
			}
			var err error
			switch f.Worksheet {
			case WorksheetLedger:
				err = r.convertLedgerRow(f, row)
			case WorksheetTrades:
				err = r.convertTradeRow(f, row)
			}
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", f.Name, row.Index+1, err)
			}
			if row.Record != nil {
				out = append(out, *row.Record)
			}
		}
	}
	return out, nil
}

// ledgerFeeIndex maps a reference id to the fee-bearing ledger rows recorded
// against it. Only rows with a transaction id and a trade or margin type
// qualify; everything else is either a failed entry or a standalone event.
func (r *Run) ledgerFeeIndex() map[string][]ledgerRef {
	if r.ledgerFeesReady {
		return r.ledgerFees
	}
	r.ledgerFees = make(map[string][]ledgerRef)
	r.ledgerFeesReady = true

	found := false
	for _, f := range r.files {
		if f.Worksheet != WorksheetLedger {
			continue
		}
		found = true
		for _, row := range f.Rows {
			if f.Cell(row, "txid") == "" {
				continue
			}
			if typ := f.Cell(row, "type"); typ != "trade" && typ != "margin" {
				continue
			}
			refid := f.Cell(row, "refid")
			r.ledgerFees[refid] = append(r.ledgerFees[refid], ledgerRef{file: f, row: row})
		}
	}
	if !found {
		logger.L.Warn("Kraken ledger export (Kraken D,W) missing from this import; trade fees fall back to the trades file's own fee column",
			"worksheet", WorksheetTrades)
	}
	return r.ledgerFees
}

// tradeIndex maps a transaction id to its executed trade row. Ledger conversion
// needs no data from it, but an empty index means trade-typed ledger rows can
// never be matched to a trade, so the degraded attribution is surfaced once.
func (r *Run) tradeIndex() map[string]*Row {
	if r.tradeRefsReady {
		return r.tradeRefs
	}
	r.tradeRefs = make(map[string]*Row)
	r.tradeRefsReady = true

	for _, f := range r.files {
		if f.Worksheet != WorksheetTrades {
			continue
		}
		for _, row := range f.Rows {
			if f.Cell(row, "txid") == "" {
				continue
			}
			if typ := f.Cell(row, "type"); typ != "buy" && typ != "sell" {
				continue
			}
			r.tradeRefs[f.Cell(row, "txid")] = row
		}
	}
	if len(r.tradeRefs) == 0 {
		logger.L.Warn("Kraken trades export (Kraken T) missing from this import; trade and margin ledger entries cannot be matched to their trades",
			"worksheet", WorksheetLedger)
	}
	return r.tradeRefs
}
