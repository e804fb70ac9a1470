package parsers

import (
	"fmt"

	"github.com/username/cryptofolio/src/parsers/kraken"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case "kraken":
		return kraken.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
