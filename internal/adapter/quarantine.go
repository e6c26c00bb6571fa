package adapter

import (
	"encoding/json"

	"netsync/internal/source"
)

// Quarantine reasons
const (
	ReasonMissingHostname = "missing hostname"
	ReasonMissingBuilding = "missing building assignment"
	ReasonDuplicate       = "duplicate device found"
	ReasonValidation      = "failed validation"
)

// QuarantineRecord is a device record that could not be loaded
type QuarantineRecord struct {
	Reason   string               `json:"reason"`
	Message  string               `json:"message"`
	Device   source.Device        `json:"device"`
	Detail   *source.DeviceDetail `json:"device_details,omitempty"`
	Location *SitePlacement       `json:"location_data,omitempty"`
}

// Quarantine collects rejected device records in the order they were seen
type Quarantine struct {
	records []QuarantineRecord
}

// Add appends a record
func (q *Quarantine) Add(rec QuarantineRecord) {
	if rec.Message == "" {
		rec.Message = rec.Reason
	}
	q.records = append(q.records, rec)
}

// Records returns a copy of the quarantined records
func (q *Quarantine) Records() []QuarantineRecord {
	out := make([]QuarantineRecord, len(q.records))
	copy(out, q.records)
	return out
}

// Len returns the number of quarantined records
func (q *Quarantine) Len() int {
	return len(q.records)
}

// ByReason counts records per reason
func (q *Quarantine) ByReason() map[string]int {
	counts := make(map[string]int)
	for _, r := range q.records {
		counts[r.Reason]++
	}
	return counts
}

// MarshalJSON renders the records as a JSON array
func (q *Quarantine) MarshalJSON() ([]byte, error) {
	if q.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q.records)
}

// UnmarshalJSON reads records written by MarshalJSON
func (q *Quarantine) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &q.records)
}
