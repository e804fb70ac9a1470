package services

import (
	"errors"

	"github.com/username/cryptofolio/src/models"
)

var (
	ErrParsingFailed    = errors.New("parsing failed")
	ErrProcessingFailed = errors.New("processing failed")
)

// ImportResult summarizes one processed upload batch.
type ImportResult struct {
	Imported   int            `json:"imported"`
	Duplicates int            `json:"duplicates"`
	ByKind     map[string]int `json:"by_kind"`
}

// ImportService defines the interface for the core import processing logic.
type ImportService interface {
	ProcessImport(files []models.SourceFile, source string) (*ImportResult, error)
	GetTransactions() ([]models.StoredTransaction, error)
	DeleteAllTransactions() (int64, error)
}
