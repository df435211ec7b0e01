// Package scheduler keeps the in-memory medication catalog fresh.
// It performs the initial catalog load, reloads the catalog file on a fixed
// interval and swaps new versions into the catalog store atomically.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications"
	"github.com/giygas/pediatric-dosing-api/metrics"
	"github.com/go-co-op/gocron"
)

// staleFactor is how many missed reload intervals are tolerated before warning
const staleFactor = 3

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog reloads using dependency injection
type Scheduler struct {
	catalog   interfaces.CatalogStore
	loader    interfaces.CatalogLoader
	interval  time.Duration
	onReload  func()
	scheduler *gocron.Scheduler

	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// onReload, when not nil, runs after every successful reload.
func NewScheduler(catalog interfaces.CatalogStore, loader interfaces.CatalogLoader, interval time.Duration, onReload func()) *Scheduler {
	return &Scheduler{
		catalog:   catalog,
		loader:    loader,
		interval:  interval,
		onReload:  onReload,
		scheduler: gocron.NewScheduler(time.Local),
		done:      make(chan struct{}),
	}
}

// Start performs the initial load and schedules periodic reloads
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.reload(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Failed to reload catalog, keeping previous version", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule catalog reloads", "error", err)
		return fmt.Errorf("failed to schedule catalog reloads: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.scheduler.Stop()
	})
}

// reload loads the catalog and swaps it into the store.
// On failure the store keeps serving the previous catalog.
func (s *Scheduler) reload() error {
	// Prevent concurrent updates
	if !s.catalog.BeginUpdate() {
		logging.Info("Catalog reload already in progress, skipping...")
		metrics.CatalogReloadsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	defer s.catalog.EndUpdate()

	start := time.Now()

	meds, report, err := s.loader.LoadCatalog()
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if report != nil {
		logReport(report)
	}

	s.catalog.UpdateCatalog(meds, medications.IndexByID(meds), report)
	metrics.CatalogMedications.Set(float64(len(meds)))
	metrics.CatalogReloadsTotal.WithLabelValues("success").Inc()

	if s.onReload != nil {
		s.onReload()
	}

	logging.Info("Catalog reload completed", "duration", time.Since(start).String(), "medication_count", len(meds))

	return nil
}

func logReport(report *interfaces.CatalogQualityReport) {
	if report.RejectedMedications > 0 {
		logging.Warn("Medications rejected from catalog",
			"count", report.RejectedMedications,
			"id_list", report.RejectedMedicationIDs,
		)
	}

	if len(report.DuplicateIDs) > 0 {
		logging.Warn("Duplicate medication ids detected",
			"total", len(report.DuplicateIDs),
			"id_list", report.DuplicateIDs,
		)
	}

	if report.TierCoverageGaps > 0 {
		logging.Warn("Weight tiers leave uncovered weights",
			"count", report.TierCoverageGaps,
			"id_list", report.TierCoverageGapIDs,
		)
	}

	if report.MedicationsWithoutCategories > 0 {
		logging.Debug("Medications without categories",
			"count", report.MedicationsWithoutCategories,
			"id_list", report.MedicationsWithoutCategoriesIDs,
		)
	}
}

// startStalenessMonitoring warns when reloads have stopped succeeding
func (s *Scheduler) startStalenessMonitoring() {
	if s.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if s.isStale(time.Now()) {
					logging.Warn("Catalog hasn't been reloaded recently",
						"last_updated", s.catalog.GetLastUpdated().Format(time.RFC3339),
						"interval", s.interval.String())
				}
			}
		}
	}()
}

func (s *Scheduler) isStale(now time.Time) bool {
	return now.Sub(s.catalog.GetLastUpdated()) > staleFactor*s.interval
}
