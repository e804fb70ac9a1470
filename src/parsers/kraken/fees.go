package kraken

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// feePrecision matches the 13 significant digits Kraken itself reports fee
// amounts with.
const feePrecision = 13

// FeeAmount is one (asset, amount) fee pair left over beyond the primary fee.
type FeeAmount struct {
	Asset  string
	Amount decimal.Decimal
}

// aggregateFees collects the fee-bearing ledger rows recorded against refid and
// folds them into a single primary fee plus leftovers, one entry per additional
// fee asset. Rows it touches are consumed: they are flagged parsed and will not
// be converted to standalone records. With no matching ledger rows the trade's
// own fee column applies, denominated in the quote asset.
//
// Amounts are summed exactly in decimal and only rounded to feePrecision
// significant digits at the end.
func (r *Run) aggregateFees(refid, quoteAsset, ownFee string) (string, decimal.Decimal, []FeeAmount, error) {
	totals := make(map[string]decimal.Decimal)
	var order []string

	for _, ref := range r.ledgerFeeIndex()[refid] {
		if !ref.row.Parsed {
			ts, err := parseTimestamp(ref.file.Cell(ref.row, "time"))
			if err != nil {
				return "", decimal.Decimal{}, nil, fmt.Errorf("fee entry for refid %s: %w", refid, err)
			}
			ref.row.Timestamp = ts
			ref.row.Parsed = true
		}

		fee, err := decimal.NewFromString(ref.file.Cell(ref.row, "fee"))
		if err != nil {
			return "", decimal.Decimal{}, nil, fmt.Errorf("invalid fee amount for refid %s: %w", refid, err)
		}
		if fee.IsZero() {
			continue
		}
		asset := NormalizeAsset(ref.file.Cell(ref.row, "asset"))
		if _, seen := totals[asset]; !seen {
			order = append(order, asset)
		}
		totals[asset] = totals[asset].Add(fee)
	}

	if len(order) == 0 {
		fee, err := decimal.NewFromString(ownFee)
		if err != nil {
			return "", decimal.Decimal{}, nil, fmt.Errorf("invalid fee amount %q: %w", ownFee, err)
		}
		return quoteAsset, fee, nil, nil
	}

	var leftovers []FeeAmount
	for _, asset := range order[1:] {
		leftovers = append(leftovers, FeeAmount{Asset: asset, Amount: roundSignificant(totals[asset], feePrecision)})
	}
	return order[0], roundSignificant(totals[order[0]], feePrecision), leftovers, nil
}

// roundSignificant trims d to the given number of significant digits.
func roundSignificant(d decimal.Decimal, figures int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	places := figures - (int32(d.NumDigits()) + d.Exponent())
	return d.Round(places)
}
