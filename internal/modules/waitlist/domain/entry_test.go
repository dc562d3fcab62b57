package domain

import (
	"encoding/json"
	"testing"
)

func TestBuildEntryList(t *testing.T) {
	var items []any
	raw := `[{"id":1,"customerName":" Ana ","email":"a@b.com","status":"waiting"},"junk",{"id":"c-2","customerName":"Luis"}]`
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	entries := BuildEntryList(items)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.ID != "1" || first.CustomerName != "Ana" || first.Email != "a@b.com" || first.Status != "waiting" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.RawID != float64(1) {
		t.Fatalf("raw id should keep the json number, got %#v", first.RawID)
	}
	if entries[1].ID != "c-2" || entries[1].Email != "" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestFindEntry(t *testing.T) {
	entries := []Entry{{ID: "1"}, {ID: "2", CustomerName: "Luis"}}
	entry, ok := FindEntry(entries, "2")
	if !ok || entry.CustomerName != "Luis" {
		t.Fatalf("expected to find Luis, got %+v (%v)", entry, ok)
	}
	if _, ok := FindEntry(entries, "3"); ok {
		t.Fatal("did not expect to find id 3")
	}
}

func TestRequestBodies(t *testing.T) {
	body, err := json.Marshal(AddRequest{CustomerID: "Ana", Email: "a@b.com", TablePreference: "terraza"})
	if err != nil {
		t.Fatalf("marshal add request: %v", err)
	}
	if string(body) != `{"customer_id":"Ana","email":"a@b.com","table_preference":"terraza"}` {
		t.Fatalf("unexpected add body: %s", body)
	}

	body, err = json.Marshal(NotifyRequest{CustomerID: float64(1)})
	if err != nil {
		t.Fatalf("marshal notify request: %v", err)
	}
	if string(body) != `{"customerId":1}` {
		t.Fatalf("unexpected notify body: %s", body)
	}
}
