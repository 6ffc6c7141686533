package models

import (
	"encoding/json"
	"testing"
)

func TestOptIntDecoding(t *testing.T) {
	var payload struct {
		RouteID OptInt `json:"route_id"`
	}

	// Missing key stays unset
	if err := json.Unmarshal([]byte(`{}`), &payload); err != nil {
		t.Fatalf("Failed to decode empty object: %v", err)
	}
	if payload.RouteID.Set {
		t.Error("Missing key should decode as unset")
	}

	// Wire sentinel -2 stays unset
	if err := json.Unmarshal([]byte(`{"route_id": -2}`), &payload); err != nil {
		t.Fatalf("Failed to decode wire sentinel: %v", err)
	}
	if payload.RouteID.Set {
		t.Error("Wire sentinel -2 should decode as unset")
	}

	// Domain sentinel -1 is a present value
	if err := json.Unmarshal([]byte(`{"route_id": -1}`), &payload); err != nil {
		t.Fatalf("Failed to decode domain sentinel: %v", err)
	}
	if !payload.RouteID.Set || payload.RouteID.Value != -1 {
		t.Errorf("Domain sentinel -1 should decode as present, got %+v", payload.RouteID)
	}

	// Quoted integers appear in some upstream responses
	payload.RouteID = OptInt{}
	if err := json.Unmarshal([]byte(`{"route_id": "7"}`), &payload); err != nil {
		t.Fatalf("Failed to decode quoted integer: %v", err)
	}
	if !payload.RouteID.Set || payload.RouteID.Value != 7 {
		t.Errorf("Quoted integer should decode as present, got %+v", payload.RouteID)
	}

	// null stays unset
	if err := json.Unmarshal([]byte(`{"route_id": null}`), &payload); err != nil {
		t.Fatalf("Failed to decode null: %v", err)
	}
	if payload.RouteID.Set {
		t.Error("null should decode as unset")
	}
}

func TestOptStringDecoding(t *testing.T) {
	var payload struct {
		PhoneNo OptString `json:"phone_no"`
	}

	// Empty string means absent on this wire protocol
	if err := json.Unmarshal([]byte(`{"phone_no": ""}`), &payload); err != nil {
		t.Fatalf("Failed to decode empty string: %v", err)
	}
	if payload.PhoneNo.Set {
		t.Error("Empty string should decode as unset")
	}

	if err := json.Unmarshal([]byte(`{"phone_no": "555-1212"}`), &payload); err != nil {
		t.Fatalf("Failed to decode string: %v", err)
	}
	if !payload.PhoneNo.Set || payload.PhoneNo.Value != "555-1212" {
		t.Errorf("Expected present 555-1212, got %+v", payload.PhoneNo)
	}
}

func TestOptIntMarshalRoundTrip(t *testing.T) {
	// Unset integers serialize back as the wire sentinel.
	data, err := json.Marshal(OptInt{})
	if err != nil {
		t.Fatalf("Failed to marshal unset OptInt: %v", err)
	}
	if string(data) != "-2" {
		t.Errorf("Unset OptInt should marshal as -2, got %s", data)
	}

	data, err = json.Marshal(PresentInt(-1))
	if err != nil {
		t.Fatalf("Failed to marshal present OptInt: %v", err)
	}
	if string(data) != "-1" {
		t.Errorf("Present -1 should marshal as -1, got %s", data)
	}
}

// A field absent from the payload must never overwrite the local value,
// while present fields always win, including a present -1.
func TestCustomerMergeSentinelPreservation(t *testing.T) {
	existing := Customer{
		LocalID:  3,
		ServerID: 11,
		Name:     "Old Name",
		PhoneNo:  "555-1212",
		RouteID:  4,
		Balance:  120.5,
		IsActive: 1,
	}

	var p CustomerPayload
	raw := `{"id": 11, "customer_name": "Acme", "route_id": -1}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}

	merged := existing
	p.MergeInto(&merged)

	if merged.Name != "Acme" {
		t.Errorf("Present name should win, got %q", merged.Name)
	}
	if merged.PhoneNo != "555-1212" {
		t.Errorf("Absent phone_no must keep local value, got %q", merged.PhoneNo)
	}
	if merged.RouteID != -1 {
		t.Errorf("Present -1 route_id should win, got %d", merged.RouteID)
	}
	if merged.Balance != 120.5 {
		t.Errorf("Absent balance must keep local value, got %v", merged.Balance)
	}
	if merged.LocalID != 3 {
		t.Errorf("Local key must never come from the payload, got %d", merged.LocalID)
	}
}

func TestCustomerMergeIdempotence(t *testing.T) {
	existing := Customer{LocalID: 3, ServerID: 11, Name: "Old", PhoneNo: "555-1212", RouteID: 4}

	var p CustomerPayload
	raw := `{"id": 11, "customer_name": "Acme", "balance": 7.25}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}

	once := existing
	p.MergeInto(&once)
	twice := once
	p.MergeInto(&twice)

	if once != twice {
		t.Errorf("Merge must be idempotent:\n once:  %+v\n twice: %+v", once, twice)
	}
}

// The shortage master payload carries -1 as a legitimate value for
// order_line_id; only -2 or a missing key preserves the local value.
func TestShortageMasterMergeTwoTierSentinel(t *testing.T) {
	existing := OutOfStockMaster{
		LocalID:            8,
		ServerID:           5,
		OrderLineID:        42,
		AssignedSupplierID: 9,
		Status:             StatusAwaitingSupplierResponse,
	}

	var p OOSMasterPayload
	raw := `{"id": 5, "order_line_id": -1, "assigned_supplier_id": -2, "oos_status": 3}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	p.MergeInto(&existing)

	if existing.OrderLineID != -1 {
		t.Errorf("Present -1 must overwrite, got %d", existing.OrderLineID)
	}
	if existing.AssignedSupplierID != 9 {
		t.Errorf("Wire sentinel -2 must preserve local value, got %d", existing.AssignedSupplierID)
	}
	if existing.Status != StatusPartiallyOrNotAvailable {
		t.Errorf("Present status must overwrite, got %d", existing.Status)
	}
}
