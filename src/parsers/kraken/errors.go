package kraken

import "fmt"

// UnexpectedTypeError reports a row field that was expected to hold one of a
// known enumeration (e.g. a trade direction) but held something else. It carries
// the offending column so the operator can locate the value in the export.
type UnexpectedTypeError struct {
	ColumnIndex int
	ColumnName  string
	Value       string
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("unexpected value %q in column %q (%d)", e.Value, e.ColumnName, e.ColumnIndex)
}

// UnexpectedTradingPairError reports a trading-pair symbol whose quote asset is
// not in the known vocabulary, so the symbol could not be split.
type UnexpectedTradingPairError struct {
	ColumnIndex int
	ColumnName  string
	Value       string
}

func (e *UnexpectedTradingPairError) Error() string {
	return fmt.Sprintf("unrecognised trading pair %q in column %q (%d)", e.Value, e.ColumnName, e.ColumnIndex)
}
