package kraken

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
)

// Wallet labels every record produced by this parser.
const Wallet = "Kraken"

// KrakenParser converts Kraken ledger and trades exports into normalized
// transaction records. Fees charged on a trade live only in the ledger export,
// keyed by a shared reference id, so both files are reconciled in one run.
type KrakenParser struct{}

func NewParser() *KrakenParser {
	return &KrakenParser{}
}

// Parse loads every file of the batch into memory first and only then converts
// rows, so cross-file fee lookups never depend on upload order.
func (p *KrakenParser) Parse(files []models.SourceFile) ([]models.NormalizedTransaction, error) {
	loaded := make([]*File, 0, len(files))
	for _, src := range files {
		f, err := Load(src.Name, src.Reader)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, f)
	}
	return NewRun(loaded...).Convert()
}

// convertLedgerRow turns one ledger row into a standalone record. Trade and
// margin typed rows are fee legs of a trade and are never converted here; they
// are consumed by the trades file through the fee index.
func (r *Run) convertLedgerRow(f *File, row *Row) error {
	if f.Cell(row, "txid") == "" {
		// Failed or incomplete entries carry no transaction id.
		return nil
	}
	r.tradeIndex()

	typ := f.Cell(row, "type")
	if typ == "trade" || typ == "margin" {
		return nil
	}

	ts, err := parseTimestamp(f.Cell(row, "time"))
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(f.Cell(row, "amount"))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", f.Cell(row, "amount"), err)
	}
	fee, err := decimal.NewFromString(f.Cell(row, "fee"))
	if err != nil {
		return fmt.Errorf("invalid fee %q: %w", f.Cell(row, "fee"), err)
	}
	asset := NormalizeAsset(f.Cell(row, "asset"))

	rec := models.NormalizedTransaction{
		Timestamp:   ts,
		FeeQuantity: &fee,
		FeeAsset:    asset,
		Wallet:      Wallet,
	}

	switch typ {
	case "deposit":
		rec.Kind = models.KindDeposit
		rec.BuyQuantity, rec.BuyAsset = &amount, asset
	case "withdrawal":
		quantity := amount.Abs()
		rec.Kind = models.KindWithdrawal
		rec.SellQuantity, rec.SellAsset = &quantity, asset
	case "transfer":
		if amount.IsNegative() {
			quantity := amount.Abs()
			rec.Kind = models.KindSpend
			rec.SellQuantity, rec.SellAsset = &quantity, asset
		} else {
			rec.Kind = models.KindGiftReceived
			rec.BuyQuantity, rec.BuyAsset = &amount, asset
		}
	case "rollover":
		// Margin interest is a fee-only event: a zero-quantity same-asset
		// trade is synthesized purely to carry the fee.
		zero := decimal.Zero
		rec.Kind = models.KindTrade
		rec.BuyQuantity, rec.BuyAsset = &zero, asset
		rec.SellQuantity, rec.SellAsset = &zero, asset
	default:
		return &UnexpectedTypeError{ColumnIndex: f.Column("type"), ColumnName: "type", Value: typ}
	}

	row.Timestamp = ts
	row.Record = &rec
	row.Parsed = true
	return nil
}

// convertTradeRow turns one executed order into a trade record, pulling its fee
// from the companion ledger via the trade's own id.
func (r *Run) convertTradeRow(f *File, row *Row) error {
	if f.Cell(row, "txid") == "" {
		return nil
	}

	ts, err := parseTimestamp(f.Cell(row, "time"))
	if err != nil {
		return err
	}

	pair := f.Cell(row, "pair")
	base, quote := SplitTradingPair(pair)
	if base == "" && quote == "" {
		return &UnexpectedTradingPairError{ColumnIndex: f.Column("pair"), ColumnName: "pair", Value: pair}
	}
	baseAsset := NormalizeAsset(base)
	quoteAsset := NormalizeAsset(quote)

	vol, err := decimal.NewFromString(f.Cell(row, "vol"))
	if err != nil {
		return fmt.Errorf("invalid vol %q: %w", f.Cell(row, "vol"), err)
	}
	cost, err := decimal.NewFromString(f.Cell(row, "cost"))
	if err != nil {
		return fmt.Errorf("invalid cost %q: %w", f.Cell(row, "cost"), err)
	}

	feeAsset, feeQuantity, leftovers, err := r.aggregateFees(f.Cell(row, "txid"), quoteAsset, f.Cell(row, "fee"))
	if err != nil {
		return err
	}
	for _, leftover := range leftovers {
		// A single record carries one fee pair; splits beyond the primary
		// asset are dropped, preserved in the log for a manual adjustment.
		logger.L.Warn("dropping leftover fee asset for trade",
			"txid", f.Cell(row, "txid"),
			"asset", leftover.Asset,
			"amount", leftover.Amount.String())
	}

	rec := models.NormalizedTransaction{
		Kind:        models.KindTrade,
		Timestamp:   ts,
		FeeQuantity: &feeQuantity,
		FeeAsset:    feeAsset,
		Wallet:      Wallet,
	}

	switch direction := f.Cell(row, "type"); direction {
	case "buy":
		rec.BuyQuantity, rec.BuyAsset = &vol, baseAsset
		rec.SellQuantity, rec.SellAsset = &cost, quoteAsset
	case "sell":
		rec.BuyQuantity, rec.BuyAsset = &cost, quoteAsset
		rec.SellQuantity, rec.SellAsset = &vol, baseAsset
	default:
		return &UnexpectedTypeError{ColumnIndex: f.Column("type"), ColumnName: "type", Value: direction}
	}

	row.Timestamp = ts
	row.Record = &rec
	row.Parsed = true
	return nil
}

var timeLayouts = []string{"2006-01-02 15:04:05", time.RFC3339}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse timestamp %q", value)
}
