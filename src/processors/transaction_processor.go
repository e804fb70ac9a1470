package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/security/validation"
)

type TransactionProcessor struct{}

func NewTransactionProcessor() *TransactionProcessor { return &TransactionProcessor{} }

// Process maps normalized transactions to the stored shape: decimal quantities
// become exact strings, timestamps become RFC3339, and each row receives a
// dedupe hash so re-uploading the same export is idempotent.
func (p *TransactionProcessor) Process(source string, txs []models.NormalizedTransaction) []models.StoredTransaction {
	var storedTxs []models.StoredTransaction
	for _, tx := range txs {
		stored := models.StoredTransaction{
			Date:         tx.Timestamp.UTC().Format(time.RFC3339),
			Source:       source,
			Kind:         string(tx.Kind),
			BuyQuantity:  quantityString(tx.BuyQuantity),
			BuyAsset:     validation.SanitizeForFormulaInjection(tx.BuyAsset),
			SellQuantity: quantityString(tx.SellQuantity),
			SellAsset:    validation.SanitizeForFormulaInjection(tx.SellAsset),
			FeeQuantity:  quantityString(tx.FeeQuantity),
			FeeAsset:     validation.SanitizeForFormulaInjection(tx.FeeAsset),
			Wallet:       validation.SanitizeForFormulaInjection(tx.Wallet),
		}
		stored.HashId = generateHash(stored)
		storedTxs = append(storedTxs, stored)
	}
	return storedTxs
}

func quantityString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// generateHash creates a unique hash for the transaction based on source data.
func generateHash(tx models.StoredTransaction) string {
	input := fmt.Sprintf("%s|%s|%s|%s %s|%s %s|%s %s|%s",
		tx.Date, tx.Source, tx.Kind,
		tx.BuyQuantity, tx.BuyAsset,
		tx.SellQuantity, tx.SellAsset,
		tx.FeeQuantity, tx.FeeAsset,
		tx.Wallet)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
