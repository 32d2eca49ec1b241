package main

import (
	"errors"
	"net/http"

	"fintrack/pkg/bankfeed"
	"fintrack/pkg/categorize"
	"fintrack/pkg/forecast"
	"fintrack/pkg/importer"
	"fintrack/pkg/ledger"
	"fintrack/pkg/logger"

	"github.com/gin-gonic/gin"
)

var (
	store   ledger.Store
	engine  *forecast.Engine
	learner *categorize.Learner
	catalog *categorize.Catalog
	imports *importer.Importer
	bank    *bankfeed.Client
	syncer  *bankfeed.Syncer
	sealer  *bankfeed.Sealer
)

// initServices wires the domain packages over s.
func initServices(s ledger.Store) error {
	src, err := forecast.NewBalanceSource(cfg.Forecast.BalanceSource, s)
	if err != nil {
		return err
	}
	store = s
	engine = forecast.NewEngine(s, forecast.WithBalanceSource(src))
	learner = categorize.NewLearner(s)
	catalog = categorize.NewCatalog(s)
	imports = importer.New(s, learner)
	bank = bankfeed.NewClient(&http.Client{Timeout: cfg.Bank.Timeout})
	syncer = bankfeed.NewSyncer(bank, imports)
	sealer = nil
	if cfg.Bank.EncryptionKey != "" {
		if sealer, err = bankfeed.NewSealer(cfg.Bank.EncryptionKey); err != nil {
			return err
		}
	}
	return nil
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidMonth),
		errors.Is(err, categorize.ErrEmptyName),
		errors.Is(err, categorize.ErrDuplicateCategory),
		errors.Is(err, categorize.ErrProtectedCategory),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrMissingColumns):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, categorize.ErrCategoryNotFound):
		status = http.StatusNotFound
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		lg := logger.FromContext(c.Request.Context())
		lg.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		msg = "internal error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}
