package models

import (
	"encoding/json"
	"testing"
)

func TestStockItem_UnmarshalVariants(t *testing.T) {
	payloads := []string{
		`{"id":7,"modelId":1,"sizeId":17,"pcdId":2,"holesId":5,"widthId":75,"finishId":3,"finishName":"Gloss Black","displayName":"Spider","inHouseStock":4,"showroomStock":1}`,
		`{"item_id":"7","model_id":1,"size_id":17,"pcd_id":2,"hole_id":5,"width_id":75,"finish_id":[3,"Gloss Black"],"product_name":"Spider","in_house_stock":4,"showroom_stock":1}`,
	}
	want := StockItem{
		ProductSpecification: ProductSpecification{ModelID: 1, SizeID: 17, PcdID: 2, HolesID: 5, WidthID: 75},
		ID:                   7,
		FinishID:             3,
		FinishName:           "Gloss Black",
		DisplayName:          "Spider",
		InHouseStock:         4,
		ShowroomStock:        1,
	}

	for i, p := range payloads {
		var got StockItem
		if err := json.Unmarshal([]byte(p), &got); err != nil {
			t.Fatalf("payload %d: %v", i, err)
		}
		if got != want {
			t.Errorf("payload %d:\n got %+v\nwant %+v", i, got, want)
		}
		if got.Stock() != 5 {
			t.Errorf("payload %d: Stock() = %d, want 5", i, got.Stock())
		}
	}
}

func TestStockItem_ConflictingSpellings(t *testing.T) {
	// snake_case wins over camelCase regardless of map iteration order
	data := []byte(`{"id":1,"model_id":10,"modelId":20,"ModelID":30,"sizeId":5,"SizeID":6}`)
	for i := 0; i < 200; i++ {
		var item StockItem
		if err := json.Unmarshal(data, &item); err != nil {
			t.Fatal(err)
		}
		if item.ModelID != 10 {
			t.Fatalf("decode %d: ModelID = %d, want 10", i, item.ModelID)
		}
		if item.SizeID != 6 {
			t.Fatalf("decode %d: SizeID = %d, want 6", i, item.SizeID)
		}
	}
}

func TestStockItem_OdooFalse(t *testing.T) {
	var item StockItem
	data := `{"id":9,"model_id":false,"finish_id":false,"display_name":false,"in_house_stock":2}`
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		t.Fatal(err)
	}
	if item.ModelID != 0 || item.FinishName != "" || item.DisplayName != "" || item.InHouseStock != 2 {
		t.Errorf("Unexpected item %+v", item)
	}

	if err := json.Unmarshal([]byte(`{"id":"x"}`), &item); err == nil {
		t.Error("Expected error for a non-numeric id")
	}
}

func TestProductionPayloads(t *testing.T) {
	var plan ProductionPlan
	if err := json.Unmarshal([]byte(`{"id":4,"product_qty":16.0,"priority":"1","state":"progress","name":"MO/00004"}`), &plan); err != nil {
		t.Fatal(err)
	}
	if plan.RequestedQuantity != 16 || !plan.Urgent || plan.Status != "progress" || plan.Reference != "MO/00004" {
		t.Errorf("Unexpected plan %+v", plan)
	}

	var alloc JobCardAllocation
	if err := json.Unmarshal([]byte(`{"id":2,"production_id":[4,"MO/00004"],"qty_production":20,"qty_produced":4}`), &alloc); err != nil {
		t.Fatal(err)
	}
	if alloc.ProductionPlanID != 4 || alloc.AllocatedQuantity != 20 || alloc.CompletedQuantity != 4 {
		t.Errorf("Unexpected allocation %+v", alloc)
	}
}

func TestPlanID_Text(t *testing.T) {
	id := PlanID{SourceID: 1042, Sequence: 3}
	if id.String() != "1042-3" {
		t.Errorf("String() = %q", id.String())
	}
	parsed, err := ParsePlanID("1042-3")
	if err != nil || parsed != id {
		t.Errorf("ParsePlanID = %v, %v", parsed, err)
	}
	for _, bad := range []string{"", "1042", "-3", "1042-", "a-b"} {
		if _, err := ParsePlanID(bad); err == nil {
			t.Errorf("ParsePlanID(%q) should fail", bad)
		}
	}

	data, err := json.Marshal(map[PlanID]int{id: 1})
	if err != nil || string(data) != `{"1042-3":1}` {
		t.Errorf("map key encoding = %s, %v", data, err)
	}
}
