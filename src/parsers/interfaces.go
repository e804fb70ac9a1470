package parsers

import (
	"github.com/username/cryptofolio/src/models"
)

// Parser converts a batch of uploaded export files into normalized transaction
// records. Some exchanges split related activity across several files (e.g. a
// ledger export and a trades export), so a parser receives the whole batch and
// decides what each file is from its header.
type Parser interface {
	Parse(files []models.SourceFile) ([]models.NormalizedTransaction, error)
}
