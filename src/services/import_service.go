package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/parsers"
	"github.com/username/cryptofolio/src/processors"
)

const (
	ckAllTransactions = "res_all_transactions"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type importServiceImpl struct {
	transactionProcessor *processors.TransactionProcessor
	reportCache          *cache.Cache
}

func NewImportService(transactionProcessor *processors.TransactionProcessor, reportCache *cache.Cache) ImportService {
	return &importServiceImpl{
		transactionProcessor: transactionProcessor,
		reportCache:          reportCache,
	}
}

func (s *importServiceImpl) ProcessImport(files []models.SourceFile, source string) (*ImportResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessImport START", "source", source, "files", len(files))

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	normalizedTxs, err := parser.Parse(files)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	storedTxs := s.transactionProcessor.Process(source, normalizedTxs)
	result := &ImportResult{ByKind: make(map[string]int)}
	if len(storedTxs) == 0 {
		return result, nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO normalized_transactions (date, source, kind, buy_quantity, buy_asset, sell_quantity, sell_asset, fee_quantity, fee_asset, wallet, hash_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, tx := range storedTxs {
		_, err := stmt.Exec(tx.Date, tx.Source, tx.Kind, tx.BuyQuantity, tx.BuyAsset, tx.SellQuantity, tx.SellAsset, tx.FeeQuantity, tx.FeeAsset, tx.Wallet, tx.HashId)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate transaction on import", "hash_id", tx.HashId)
				result.Duplicates++
				continue
			}
			return nil, fmt.Errorf("error inserting transaction (hash: %s): %w", tx.HashId, err)
		}
		result.Imported++
		result.ByKind[tx.Kind]++
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transactions: %w", err)
	}

	s.reportCache.Delete(ckAllTransactions)

	logger.L.Info("ProcessImport END", "source", source, "imported", result.Imported,
		"duplicates", result.Duplicates, "duration", time.Since(overallStartTime))
	return result, nil
}

func (s *importServiceImpl) GetTransactions() ([]models.StoredTransaction, error) {
	if cached, found := s.reportCache.Get(ckAllTransactions); found {
		logger.L.Debug("Cache hit for GetTransactions")
		return cached.([]models.StoredTransaction), nil
	}

	logger.L.Info("Cache miss for GetTransactions, fetching from DB")
	rows, err := database.DB.Query(`SELECT id, date, source, kind, buy_quantity, buy_asset, sell_quantity, sell_asset, fee_quantity, fee_asset, wallet, hash_id FROM normalized_transactions ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.StoredTransaction
	for rows.Next() {
		var tx models.StoredTransaction
		if err := rows.Scan(&tx.ID, &tx.Date, &tx.Source, &tx.Kind, &tx.BuyQuantity, &tx.BuyAsset, &tx.SellQuantity, &tx.SellAsset, &tx.FeeQuantity, &tx.FeeAsset, &tx.Wallet, &tx.HashId); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}

	s.reportCache.Set(ckAllTransactions, transactions, DefaultCacheExpiration)
	return transactions, nil
}

func (s *importServiceImpl) DeleteAllTransactions() (int64, error) {
	res, err := database.DB.Exec(`DELETE FROM normalized_transactions`)
	if err != nil {
		return 0, fmt.Errorf("error deleting transactions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted transactions: %w", err)
	}
	s.reportCache.Delete(ckAllTransactions)
	logger.L.Info("Deleted all stored transactions", "count", deleted)
	return deleted, nil
}
