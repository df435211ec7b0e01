// Package data provides thread-safe storage of the medication catalog.
// The catalog is swapped in atomically so readers never see a partial update,
// and it is handed to calculators as an injected dependency.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// Compile-time check to ensure CatalogContainer implements CatalogStore
var _ interfaces.CatalogStore = (*CatalogContainer)(nil)

// catalogSnapshot is one immutable version of the catalog
type catalogSnapshot struct {
	medications    []entities.Medication
	medicationsMap map[string]entities.Medication
	report         *interfaces.CatalogQualityReport
	loadedAt       time.Time
}

// CatalogContainer holds the current catalog behind an atomic pointer for zero-downtime updates
type CatalogContainer struct {
	snapshot atomic.Pointer[catalogSnapshot]
	updating atomic.Bool
	version  atomic.Uint64
}

// NewCatalogContainer creates a container holding an empty catalog
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	cc.snapshot.Store(&catalogSnapshot{
		medications:    []entities.Medication{},
		medicationsMap: map[string]entities.Medication{},
		report:         &interfaces.CatalogQualityReport{},
	})
	return cc
}

func (cc *CatalogContainer) current() *catalogSnapshot {
	if s := cc.snapshot.Load(); s != nil {
		return s
	}

	logging.Warn("Catalog container used before initialisation")
	return &catalogSnapshot{
		medicationsMap: map[string]entities.Medication{},
		report:         &interfaces.CatalogQualityReport{},
	}
}

// GetMedications returns every medication in catalog order
func (cc *CatalogContainer) GetMedications() []entities.Medication {
	return cc.current().medications
}

// GetMedication returns the medication with the given id
func (cc *CatalogContainer) GetMedication(id string) (entities.Medication, bool) {
	med, ok := cc.current().medicationsMap[id]
	return med, ok
}

// GetMedicationsMap returns the id index for O(1) lookups
func (cc *CatalogContainer) GetMedicationsMap() map[string]entities.Medication {
	return cc.current().medicationsMap
}

// GetLastUpdated returns when the current catalog was swapped in, zero before the first load
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	return cc.current().loadedAt
}

// GetReport returns the quality report of the current catalog
func (cc *CatalogContainer) GetReport() *interfaces.CatalogQualityReport {
	return cc.current().report
}

// IsUpdating returns true while a catalog reload is in progress
func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

// UpdateCatalog atomically replaces the catalog.
// Every published record is stamped with a new catalog version.
func (cc *CatalogContainer) UpdateCatalog(medications []entities.Medication, medicationsMap map[string]entities.Medication,
	report *interfaces.CatalogQualityReport) {

	version := cc.version.Add(1)

	stamped := make([]entities.Medication, len(medications))
	for i, med := range medications {
		med.CatalogVersion = version
		stamped[i] = med
	}

	stampedMap := make(map[string]entities.Medication, len(stamped))
	if medicationsMap == nil {
		for _, med := range stamped {
			stampedMap[med.ID] = med
		}
	} else {
		for id, med := range medicationsMap {
			med.CatalogVersion = version
			stampedMap[id] = med
		}
	}
	if report == nil {
		report = &interfaces.CatalogQualityReport{TotalRecords: len(medications)}
	}

	cc.snapshot.Store(&catalogSnapshot{
		medications:    stamped,
		medicationsMap: stampedMap,
		report:         report,
		loadedAt:       time.Now(),
	})
}

// BeginUpdate marks the start of a reload.
// Returns true if the reload can proceed, false if another one is in progress
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}
