package components

import "fmt"

// StagingError means a staging table could not be created or fully populated.
type StagingError struct {
	Target       string
	StagingTable string
	Err          error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging load for %v into %v failed: %v", e.Target, e.StagingTable, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// MergeError means the MERGE from a staging table failed. The staging table is left in place.
type MergeError struct {
	Target       string
	StagingTable string
	Err          error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge into %v failed; staging table %v was kept for inspection: %v", e.Target, e.StagingTable, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// DataQualityError means more fact rows were dropped than the configured limit allows.
type DataQualityError struct {
	Dropped        int
	Candidates     int
	MaxDropPercent float64
}

func (e *DataQualityError) DropPercent() float64 {
	if e.Candidates == 0 {
		return 0
	}
	return float64(e.Dropped) * 100 / float64(e.Candidates)
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("%v of %v fact rows (%.2f%%) have unresolved dimension references, exceeding the limit of %.2f%%",
		e.Dropped, e.Candidates, e.DropPercent(), e.MaxDropPercent)
}
