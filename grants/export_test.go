package grants_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tokenshop/grant-engine/grants"
)

func sampleResult() grants.Result {
	alloc := grants.GrantAllocation{
		Email:       "alice@example.com",
		GrantAmount: usd(16),
		ItemName:    "Boba Run",
		Quantity:    2,
		OrderIDs:    []string{"o1", "o3"},
		HCBMids:     []string{"5814"},
	}
	lock := "5814"
	return grants.Result{
		Budget:      usd(100),
		Allocations: []grants.GrantAllocation{alloc},
		Requests: []grants.GrantRequest{{
			AmountCents:  1600,
			Email:        "alice@example.com",
			MerchantLock: &lock,
			Purpose:      "Boba Run",
		}},
		TotalAllocated: usd(16),
	}
}

func TestNewExportRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := grants.NewExportRecord(sampleResult(), now)

	if rec.Timestamp != now {
		t.Errorf("expected timestamp %v, got %v", now, rec.Timestamp)
	}
	if rec.TotalGrants != 1 {
		t.Errorf("expected 1 grant, got %d", rec.TotalGrants)
	}
	if rec.TotalAmountDollars != 16.0 {
		t.Errorf("expected 16.0 dollars, got %v", rec.TotalAmountDollars)
	}
	if len(rec.AllocationDetails) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(rec.AllocationDetails))
	}
	if rec.AllocationDetails[0].GrantAmount != 16.0 {
		t.Errorf("expected detail amount 16.0, got %v", rec.AllocationDetails[0].GrantAmount)
	}
}

func TestExportRecord_JSONShape(t *testing.T) {
	// Downstream tooling parses this document; the field names are a
	// contract.

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(grants.NewExportRecord(sampleResult(), now))
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"timestamp", "total_grants", "total_amount_dollars", "grant_requests", "allocation_details"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	details := doc["allocation_details"].([]any)
	detail := details[0].(map[string]any)
	for _, key := range []string{"email", "grantAmount", "itemName", "quantity", "orderIds", "hcbMids"} {
		if _, ok := detail[key]; !ok {
			t.Errorf("missing allocation detail key %q", key)
		}
	}

	requests := doc["grant_requests"].([]any)
	request := requests[0].(map[string]any)
	for _, key := range []string{"amount_cents", "email", "merchant_lock", "category_lock", "keyword_lock", "purpose"} {
		if _, ok := request[key]; !ok {
			t.Errorf("missing grant request key %q", key)
		}
	}
	if request["category_lock"] != nil {
		t.Errorf("unset category lock must serialize as null, got %v", request["category_lock"])
	}
	if request["amount_cents"] != float64(1600) {
		t.Errorf("amount_cents must be a JSON number, got %v", request["amount_cents"])
	}
}

func TestFileExporter_WritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	exporter := &grants.FileExporter{Dir: dir}

	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	path, err := exporter.Export(context.Background(), grants.NewExportRecord(sampleResult(), now))
	if err != nil {
		t.Fatal(err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "grant-requests-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected export name %q", name)
	}
	// Only the extension dot survives; colons are gone entirely.
	if strings.Contains(name, ":") {
		t.Errorf("export name contains ':': %q", name)
	}
	if strings.Count(name, ".") != 1 {
		t.Errorf("export name should contain exactly the extension dot: %q", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec grants.ExportRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if rec.TotalGrants != 1 {
		t.Errorf("round-trip lost data: %+v", rec)
	}
}

func TestWriteReport(t *testing.T) {
	res := sampleResult()
	res.Unfulfilled = []grants.GroupedOrder{{
		UserID:       "bob",
		Email:        "bob@example.com",
		ItemName:     "Camera",
		Quantity:     1,
		TotalUSDCost: usd(50),
		OrderIDs:     []string{"o9"},
	}}

	var out bytes.Buffer
	grants.WriteReport(&out, res)
	got := out.String()

	for _, want := range []string{
		"=== GRANT ALLOCATION RESULTS ===",
		"Total grants: 1",
		"Total amount: $16.00",
		"Budget utilization: 16.0%",
		"alice@example.com",
		"=== UNFULFILLED ORDERS ===",
		"Unfulfilled amount: $50.00",
		"- bob@example.com: 1x Camera ($50.00)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n---\n%s", want, got)
		}
	}
}

func TestWriteReport_NothingAllocated(t *testing.T) {
	var out bytes.Buffer
	grants.WriteReport(&out, grants.Result{Budget: usd(0)})

	if !strings.Contains(out.String(), "No grants can be allocated") {
		t.Errorf("expected the empty-allocation message, got %q", out.String())
	}
}
