package scheduler

import (
	"github.com/jtaylor/mealcart-backend/internal/app/service"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ConversionScheduler periodically re-snapshots the conversion table cache.
// The catalog importer owns the table and runs out of process, so the cache
// tracks it on a schedule instead of via invalidation.
type ConversionScheduler struct {
	cron           *cron.Cron
	catalogService service.CatalogService
}

func NewConversionScheduler(catalogService service.CatalogService) *ConversionScheduler {
	return &ConversionScheduler{
		cron:           cron.New(),
		catalogService: catalogService,
	}
}

// Start warms the cache immediately, then refreshes it hourly.
func (s *ConversionScheduler) Start() error {
	if err := s.catalogService.RefreshConversionCache(); err != nil {
		logger.Error("Initial conversion cache load failed", err)
		return err
	}

	_, err := s.cron.AddFunc("0 * * * *", func() {
		if err := s.catalogService.RefreshConversionCache(); err != nil {
			logger.Error("Scheduled conversion cache refresh failed", err)
			return
		}
		logger.Info("Conversion cache refreshed on schedule", nil)
	})
	if err != nil {
		logger.Error("Failed to add cron job for conversion cache refresh", err)
		return err
	}

	s.cron.Start()
	logger.Info("Conversion cache scheduler started (hourly)", nil)
	return nil
}

func (s *ConversionScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Conversion cache scheduler stopped", nil)
}
