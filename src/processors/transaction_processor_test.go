package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/cryptofolio/src/models"
)

func sampleTransaction(t *testing.T) models.NormalizedTransaction {
	t.Helper()
	buy := decimal.RequireFromString("2")
	sell := decimal.RequireFromString("600")
	fee := decimal.RequireFromString("0.96")
	return models.NormalizedTransaction{
		Kind:         models.KindTrade,
		Timestamp:    time.Date(2021, 3, 5, 16, 20, 0, 0, time.UTC),
		BuyQuantity:  &buy,
		BuyAsset:     "ETH",
		SellQuantity: &sell,
		SellAsset:    "USD",
		FeeQuantity:  &fee,
		FeeAsset:     "USD",
		Wallet:       "Kraken",
	}
}

func TestProcessMapsToStoredShape(t *testing.T) {
	processor := NewTransactionProcessor()

	stored := processor.Process("kraken", []models.NormalizedTransaction{sampleTransaction(t)})
	require.Len(t, stored, 1)

	tx := stored[0]
	assert.Equal(t, "2021-03-05T16:20:00Z", tx.Date)
	assert.Equal(t, "kraken", tx.Source)
	assert.Equal(t, "TRADE", tx.Kind)
	assert.Equal(t, "2", tx.BuyQuantity)
	assert.Equal(t, "ETH", tx.BuyAsset)
	assert.Equal(t, "600", tx.SellQuantity)
	assert.Equal(t, "USD", tx.SellAsset)
	assert.Equal(t, "0.96", tx.FeeQuantity)
	assert.Equal(t, "USD", tx.FeeAsset)
	assert.Equal(t, "Kraken", tx.Wallet)
	assert.Len(t, tx.HashId, 64)
}

func TestProcessNilQuantitiesBecomeEmptyStrings(t *testing.T) {
	processor := NewTransactionProcessor()
	amount := decimal.RequireFromString("100")
	fee := decimal.Zero

	stored := processor.Process("kraken", []models.NormalizedTransaction{{
		Kind:        models.KindDeposit,
		Timestamp:   time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC),
		BuyQuantity: &amount,
		BuyAsset:    "EUR",
		FeeQuantity: &fee,
		FeeAsset:    "EUR",
		Wallet:      "Kraken",
	}})
	require.Len(t, stored, 1)
	assert.Equal(t, "", stored[0].SellQuantity)
	assert.Equal(t, "", stored[0].SellAsset)
	assert.Equal(t, "0", stored[0].FeeQuantity)
}

func TestProcessHashIsDeterministic(t *testing.T) {
	processor := NewTransactionProcessor()
	tx := sampleTransaction(t)

	first := processor.Process("kraken", []models.NormalizedTransaction{tx})
	second := processor.Process("kraken", []models.NormalizedTransaction{tx})
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].HashId, second[0].HashId)
}

func TestProcessHashVariesWithSource(t *testing.T) {
	processor := NewTransactionProcessor()
	tx := sampleTransaction(t)

	kraken := processor.Process("kraken", []models.NormalizedTransaction{tx})
	other := processor.Process("other", []models.NormalizedTransaction{tx})
	assert.NotEqual(t, kraken[0].HashId, other[0].HashId)
}

func TestProcessSanitizesFormulaCharacters(t *testing.T) {
	processor := NewTransactionProcessor()
	amount := decimal.RequireFromString("1")
	fee := decimal.Zero

	stored := processor.Process("kraken", []models.NormalizedTransaction{{
		Kind:        models.KindDeposit,
		Timestamp:   time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC),
		BuyQuantity: &amount,
		BuyAsset:    "=CMD",
		FeeQuantity: &fee,
		FeeAsset:    "EUR",
		Wallet:      "Kraken",
	}})
	require.Len(t, stored, 1)
	assert.Equal(t, "'=CMD", stored[0].BuyAsset)
}

func TestProcessEmptyInput(t *testing.T) {
	processor := NewTransactionProcessor()
	assert.Empty(t, processor.Process("kraken", nil))
}
