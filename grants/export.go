/*
export.go - Structured audit export of a run

PURPOSE:
  Every run writes one JSON document to durable storage. The document is
  the audit trail: it carries the full request list and allocation
  details, so any run can be independently reconstructed from its export
  alone.

SCHEMA:
  {
    "timestamp": ...,
    "total_grants": ...,
    "total_amount_dollars": ...,
    "grant_requests": [...],
    "allocation_details": [...]
  }

  Dollar totals are plain JSON numbers. Allocation details keep the
  field names downstream tooling already parses (grantAmount, orderIds,
  hcbMids).
*/
package grants

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AllocationDetail is the export shape of a GrantAllocation.
type AllocationDetail struct {
	Email       string   `json:"email"`
	GrantAmount float64  `json:"grantAmount"`
	ItemName    string   `json:"itemName"`
	Quantity    int      `json:"quantity"`
	OrderIDs    []string `json:"orderIds"`
	HCBMids     []string `json:"hcbMids"`
}

// ExportRecord is the durable audit document for one run.
type ExportRecord struct {
	Timestamp          time.Time          `json:"timestamp"`
	TotalGrants        int                `json:"total_grants"`
	TotalAmountDollars float64            `json:"total_amount_dollars"`
	GrantRequests      []GrantRequest     `json:"grant_requests"`
	AllocationDetails  []AllocationDetail `json:"allocation_details"`
}

// NewExportRecord builds the audit document from a completed result.
func NewExportRecord(res Result, now time.Time) ExportRecord {
	details := make([]AllocationDetail, 0, len(res.Allocations))
	for _, alloc := range res.Allocations {
		details = append(details, AllocationDetail{
			Email:       alloc.Email,
			GrantAmount: alloc.GrantAmount.InexactFloat64(),
			ItemName:    alloc.ItemName,
			Quantity:    alloc.Quantity,
			OrderIDs:    alloc.OrderIDs,
			HCBMids:     alloc.HCBMids,
		})
	}

	return ExportRecord{
		Timestamp:          now,
		TotalGrants:        len(res.Requests),
		TotalAmountDollars: res.TotalAllocated.InexactFloat64(),
		GrantRequests:      res.Requests,
		AllocationDetails:  details,
	}
}

// =============================================================================
// FILE EXPORTER
// =============================================================================

// FileExporter writes export records as JSON files under Dir, named
// grant-requests-<timestamp>.json with a filesystem-safe timestamp.
type FileExporter struct {
	Dir string
}

// Export writes the record and returns the path it was written to.
func (f *FileExporter) Export(_ context.Context, rec ExportRecord) (string, error) {
	// RFC3339 contains ':' (illegal on some filesystems); '.' would also
	// confuse extension handling. Both become '-'.
	ts := rec.Timestamp.UTC().Format(time.RFC3339Nano)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)

	name := fmt.Sprintf("grant-requests-%s.json", ts)
	path := filepath.Join(f.Dir, name)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling export record: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export record: %w", err)
	}

	return path, nil
}
