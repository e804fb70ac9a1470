package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a normalized transaction record.
type TransactionKind string

const (
	KindDeposit      TransactionKind = "DEPOSIT"
	KindWithdrawal   TransactionKind = "WITHDRAWAL"
	KindTrade        TransactionKind = "TRADE"
	KindGiftReceived TransactionKind = "GIFT_RECEIVED"
	KindSpend        TransactionKind = "SPEND"
)

// NormalizedTransaction is the unified representation of one exchange export row.
// Each parser is responsible for populating it directly from the source files,
// including the classification and the asset-symbol normalization. Buy, sell and
// fee sides are optional; a nil quantity means the side is absent.
type NormalizedTransaction struct {
	Kind         TransactionKind  `json:"kind"`
	Timestamp    time.Time        `json:"timestamp"`
	BuyQuantity  *decimal.Decimal `json:"buy_quantity,omitempty"`
	BuyAsset     string           `json:"buy_asset,omitempty"`
	SellQuantity *decimal.Decimal `json:"sell_quantity,omitempty"`
	SellAsset    string           `json:"sell_asset,omitempty"`
	FeeQuantity  *decimal.Decimal `json:"fee_quantity,omitempty"`
	FeeAsset     string           `json:"fee_asset,omitempty"`
	Wallet       string           `json:"wallet"`
}

// StoredTransaction represents a normalized transaction after processing, in the
// shape persisted to the database. Quantities are kept as decimal strings so no
// precision is lost on the round trip.
type StoredTransaction struct {
	ID           int64  `json:"id,omitempty"`
	Date         string `json:"date"` // RFC3339
	Source       string `json:"source"`
	Kind         string `json:"kind"`
	BuyQuantity  string `json:"buy_quantity,omitempty"`
	BuyAsset     string `json:"buy_asset,omitempty"`
	SellQuantity string `json:"sell_quantity,omitempty"`
	SellAsset    string `json:"sell_asset,omitempty"`
	FeeQuantity  string `json:"fee_quantity,omitempty"`
	FeeAsset     string `json:"fee_asset,omitempty"`
	Wallet       string `json:"wallet"`
	HashId       string `json:"hash_id"` // generated hash, used for upload dedupe
}
