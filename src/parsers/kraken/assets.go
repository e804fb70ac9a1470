package kraken

import "strings"

// quoteAssets is the closed vocabulary of quote assets Kraken uses when it
// concatenates a trading-pair symbol. Kept in ascending lexical order;
// SplitTradingPair walks it backwards so that prefixed variants (XETH, ZUSD)
// are tried before plain codes they could shadow as a suffix.
var quoteAssets = []string{
	"AUD", "CAD", "CHF", "DAI", "ETH", "EUR", "GBP", "JPY", "USD", "USDC",
	"USDT", "XBT", "XETH", "XXBT", "ZCAD", "ZEUR", "ZGBP", "ZJPY", "ZUSD",
}

// altAssets maps Kraken's internal asset codes (the X/Z prefix convention and
// the fee credit token) to their common symbols.
var altAssets = map[string]string{
	"KFEE": "FEE", "XETC": "ETC", "XETH": "ETH", "XLTC": "LTC", "XMLN": "MLN",
	"XREP": "REP", "XXBT": "XBT", "XXDG": "XDG", "XXLM": "XLM", "XXMR": "XMR",
	"XXRP": "XRP", "XZEC": "ZEC", "ZAUD": "AUD", "ZCAD": "CAD", "ZEUR": "EUR",
	"ZGBP": "GBP", "ZJPY": "JPY", "ZUSD": "USD",
}

// NormalizeAsset maps a Kraken asset code to its canonical symbol. Unknown
// codes pass through unchanged; XBT becomes BTC whether it arrived literally or
// via the alias table.
func NormalizeAsset(asset string) string {
	if alt, ok := altAssets[asset]; ok {
		asset = alt
	}
	if asset == "XBT" {
		return "BTC"
	}
	return asset
}

// SplitTradingPair decomposes a concatenated pair symbol (e.g. "XBTEUR") into
// its base and quote assets by matching the quote-asset vocabulary against the
// symbol's suffix, longest-leaning candidates first. Returns ("", "") when no
// vocabulary entry matches.
//
// Reverse lexical order is a heuristic tie-break, not a proven longest match;
// it happens to prefer the more specific code for every pair Kraken currently
// lists, but new quote assets must be checked against it before being added.
func SplitTradingPair(pair string) (base, quote string) {
	for i := len(quoteAssets) - 1; i >= 0; i-- {
		if strings.HasSuffix(pair, quoteAssets[i]) {
			return strings.TrimSuffix(pair, quoteAssets[i]), quoteAssets[i]
		}
	}
	return "", ""
}
