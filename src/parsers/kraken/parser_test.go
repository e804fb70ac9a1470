package kraken

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/cryptofolio/src/models"
)

func sourceFile(name, content string) models.SourceFile {
	return models.SourceFile{Name: name, Reader: strings.NewReader(content)}
}

func TestParseDeposit(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,2021-03-01 10:00:00,deposit,,currency,ZEUR,100.00,0,100.00\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, models.KindDeposit, rec.Kind)
	assert.Equal(t, time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC), rec.Timestamp)
	require.NotNil(t, rec.BuyQuantity)
	assert.True(t, dec(t, "100.00").Equal(*rec.BuyQuantity))
	assert.Equal(t, "EUR", rec.BuyAsset)
	assert.Nil(t, rec.SellQuantity)
	require.NotNil(t, rec.FeeQuantity)
	assert.True(t, rec.FeeQuantity.IsZero())
	assert.Equal(t, "EUR", rec.FeeAsset)
	assert.Equal(t, "Kraken", rec.Wallet)
}

func TestParseWithdrawalUsesAbsoluteQuantity(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,2021-03-02 11:30:00,withdrawal,,currency,XXBT,-0.5,0.0005,1.5\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, models.KindWithdrawal, rec.Kind)
	require.NotNil(t, rec.SellQuantity)
	assert.True(t, dec(t, "0.5").Equal(*rec.SellQuantity), "withdrawal quantity must be positive, got %s", rec.SellQuantity)
	assert.Equal(t, "BTC", rec.SellAsset)
	assert.Nil(t, rec.BuyQuantity)
	require.NotNil(t, rec.FeeQuantity)
	assert.True(t, dec(t, "0.0005").Equal(*rec.FeeQuantity))
	assert.Equal(t, "BTC", rec.FeeAsset)
}

func TestParseTransferDirection(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,2021-03-03 09:00:00,transfer,,currency,XXRP,25,0,25\n" +
		"L2,R2,2021-03-03 09:05:00,transfer,,currency,XXRP,-10,0,15\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.NoError(t, err)
	require.Len(t, records, 2)

	in := records[0]
	assert.Equal(t, models.KindGiftReceived, in.Kind)
	require.NotNil(t, in.BuyQuantity)
	assert.True(t, dec(t, "25").Equal(*in.BuyQuantity))
	assert.Equal(t, "XRP", in.BuyAsset)

	out := records[1]
	assert.Equal(t, models.KindSpend, out.Kind)
	require.NotNil(t, out.SellQuantity)
	assert.True(t, dec(t, "10").Equal(*out.SellQuantity))
	assert.Equal(t, "XRP", out.SellAsset)
}

func TestParseRolloverSynthesizesZeroQuantityTrade(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,2021-03-04 14:00:00,rollover,,currency,ZEUR,0,0.05,99.95\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, models.KindTrade, rec.Kind)
	require.NotNil(t, rec.BuyQuantity)
	require.NotNil(t, rec.SellQuantity)
	assert.True(t, rec.BuyQuantity.IsZero())
	assert.True(t, rec.SellQuantity.IsZero())
	assert.Equal(t, "EUR", rec.BuyAsset)
	assert.Equal(t, "EUR", rec.SellAsset)
	require.NotNil(t, rec.FeeQuantity)
	assert.True(t, dec(t, "0.05").Equal(*rec.FeeQuantity))
	assert.Equal(t, "EUR", rec.FeeAsset)
}

func TestParseSkipsRowsWithoutTxid(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		",R1,2021-03-01 10:00:00,deposit,,currency,ZEUR,100.00,0,100.00\n" +
		"L2,R2,2021-03-01 11:00:00,deposit,,currency,ZEUR,50.00,0,150.00\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, dec(t, "50.00").Equal(*records[0].BuyQuantity))
}

func TestParseUnknownLedgerType(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,2021-03-01 10:00:00,staking,,currency,ZEUR,1.00,0,101.00\n"

	_, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.Error(t, err)

	var typeErr *UnexpectedTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "staking", typeErr.Value)
	assert.Equal(t, "type", typeErr.ColumnName)
	assert.Contains(t, err.Error(), "ledgers.csv row 1")
}

func TestParseBuyTradeWithLedgerFees(t *testing.T) {
	trades := tradesShortHeaderLine + "\n" +
		"T1,O1,XETHZUSD,2021-03-05 16:20:00,buy,limit,300.0,600.0,9.99,2.0,0,,\n"
	ledger := ledgerHeaderLine + "\n" +
		"L1,T1,2021-03-05 16:20:00,trade,,currency,ZUSD,-600.0,0.9,400.0\n" +
		"L2,T1,2021-03-05 16:20:00,trade,,currency,ZUSD,0,0.06,400.0\n"

	records, err := NewParser().Parse([]models.SourceFile{
		sourceFile("ledgers.csv", ledger),
		sourceFile("trades.csv", trades),
	})
	require.NoError(t, err)
	require.Len(t, records, 1, "fee legs must be consumed, not converted on their own")

	rec := records[0]
	assert.Equal(t, models.KindTrade, rec.Kind)
	require.NotNil(t, rec.BuyQuantity)
	assert.True(t, dec(t, "2.0").Equal(*rec.BuyQuantity))
	assert.Equal(t, "ETH", rec.BuyAsset)
	require.NotNil(t, rec.SellQuantity)
	assert.True(t, dec(t, "600.0").Equal(*rec.SellQuantity))
	assert.Equal(t, "USD", rec.SellAsset)
	require.NotNil(t, rec.FeeQuantity)
	assert.True(t, dec(t, "0.96").Equal(*rec.FeeQuantity), "ledger fees must replace the trades file's own fee column, got %s", rec.FeeQuantity)
	assert.Equal(t, "USD", rec.FeeAsset)
}

func TestParseSellTradeFallbackFee(t *testing.T) {
	trades := tradesShortHeaderLine + "\n" +
		"T1,O1,XXBTZEUR,2021-03-06 08:00:00,sell,market,40000.0,20000.0,32.0,0.5,0,,\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("trades.csv", trades)})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, models.KindTrade, rec.Kind)
	require.NotNil(t, rec.BuyQuantity)
	assert.True(t, dec(t, "20000.0").Equal(*rec.BuyQuantity))
	assert.Equal(t, "EUR", rec.BuyAsset)
	require.NotNil(t, rec.SellQuantity)
	assert.True(t, dec(t, "0.5").Equal(*rec.SellQuantity))
	assert.Equal(t, "BTC", rec.SellAsset)
	require.NotNil(t, rec.FeeQuantity)
	assert.True(t, dec(t, "32.0").Equal(*rec.FeeQuantity))
	assert.Equal(t, "EUR", rec.FeeAsset, "fallback fee is denominated in the quote asset")
}

func TestParseUnknownTradingPair(t *testing.T) {
	trades := tradesShortHeaderLine + "\n" +
		"T1,O1,BTCFOO,2021-03-06 08:00:00,sell,market,1,1,0,1,0,,\n"

	_, err := NewParser().Parse([]models.SourceFile{sourceFile("trades.csv", trades)})
	require.Error(t, err)

	var pairErr *UnexpectedTradingPairError
	require.True(t, errors.As(err, &pairErr))
	assert.Equal(t, "BTCFOO", pairErr.Value)
	assert.Equal(t, "pair", pairErr.ColumnName)
}

func TestParseFileOrderDoesNotMatter(t *testing.T) {
	trades := tradesShortHeaderLine + "\n" +
		"T1,O1,XETHZUSD,2021-03-05 16:20:00,buy,limit,300.0,600.0,9.99,2.0,0,,\n"
	ledger := ledgerHeaderLine + "\n" +
		"L1,T1,2021-03-05 16:20:00,trade,,currency,ZUSD,-600.0,0.9,400.0\n"

	ledgerFirst, err := NewParser().Parse([]models.SourceFile{
		sourceFile("ledgers.csv", ledger),
		sourceFile("trades.csv", trades),
	})
	require.NoError(t, err)

	tradesFirst, err := NewParser().Parse([]models.SourceFile{
		sourceFile("trades.csv", trades),
		sourceFile("ledgers.csv", ledger),
	})
	require.NoError(t, err)

	assert.Equal(t, ledgerFirst, tradesFirst)
}

func TestParseLedgerTradeRowsProduceNoRecordsAlone(t *testing.T) {
	// Without the companion trades file the fee legs have nothing to attach to;
	// the import degrades with a warning instead of failing.
	ledger := ledgerHeaderLine + "\n" +
		"L1,T1,2021-03-05 16:20:00,trade,,currency,ZUSD,-600.0,0.9,400.0\n" +
		"L2,T2,2021-03-05 17:00:00,margin,,currency,ZUSD,0,0.25,399.75\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", ledger)})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseMultiAssetFeeKeepsFirstSeen(t *testing.T) {
	trades := tradesShortHeaderLine + "\n" +
		"T1,O1,XETHZUSD,2021-03-05 16:20:00,buy,limit,300.0,600.0,9.99,2.0,0,,\n"
	ledger := ledgerHeaderLine + "\n" +
		"L1,T1,2021-03-05 16:20:00,trade,,currency,ZUSD,-600.0,0.9,400.0\n" +
		"L2,T1,2021-03-05 16:20:00,trade,,currency,XETH,2.0,0.001,2.0\n"

	records, err := NewParser().Parse([]models.SourceFile{
		sourceFile("ledgers.csv", ledger),
		sourceFile("trades.csv", trades),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.NotNil(t, rec.FeeQuantity)
	assert.True(t, dec(t, "0.9").Equal(*rec.FeeQuantity))
	assert.Equal(t, "USD", rec.FeeAsset)
}

func TestParseAcceptsRFC3339Timestamps(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,2021-03-01T10:00:00Z,deposit,,currency,ZEUR,100.00,0,100.00\n"

	records, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC), records[0].Timestamp)
}

func TestParseRejectsMalformedTimestamp(t *testing.T) {
	content := ledgerHeaderLine + "\n" +
		"L1,R1,yesterday,deposit,,currency,ZEUR,100.00,0,100.00\n"

	_, err := NewParser().Parse([]models.SourceFile{sourceFile("ledgers.csv", content)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse timestamp")
}
