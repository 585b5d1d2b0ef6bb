package decision

import (
	"context"
	"path/filepath"
	"testing"
)

func newTempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "decision.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()

	first := &WateringRecord{
		WaterQuantity: 40, Temp: 24.5, Humidity: 58, PH: 6.5, Nitrogen: 36,
		PlantID: "3", InitialMoisture: 25, SoilMoistureNow: 45,
	}
	second := &WateringRecord{WaterQuantity: 20, PlantID: "3", InitialMoisture: 30, SoilMoistureNow: 42}

	if err := store.SaveWatering(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveWatering(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.LatestWatering(ctx, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].WaterQuantity != 20 {
		t.Errorf("expected the newest record first, got %+v", got[0])
	}

	all, err := store.LatestWatering(ctx, 0) // default limit
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].ID <= all[1].ID {
		t.Error("expected descending id order")
	}
	if all[1].PH != 6.5 || all[1].PlantID != "3" {
		t.Errorf("columns lost on round trip: %+v", all[1])
	}
}

func TestStoreTableName(t *testing.T) {
	if got := (WateringRecord{}).TableName(); got != "water_quantity" {
		t.Errorf("table name: got %q", got)
	}
}
