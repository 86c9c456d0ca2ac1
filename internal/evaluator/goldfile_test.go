package evaluator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGoldStandardParsesConstraintsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gold.json")
	body := `{
		"threshold_t": 0.75,
		"price_tolerance": 0.1,
		"questions": [
			{
				"id": "q1",
				"question": "Rumah 3 kamar di Kemang",
				"category": "location",
				"expected_result": "has_data",
				"constraints": {
					"property_type": "rumah",
					"location": {"keywords": ["Kemang"]},
					"bedrooms": {"exact": 3}
				}
			},
			{
				"id": "q2",
				"question": "Apartemen mewah banget",
				"category": "subjective",
				"expected_result": "has_data",
				"evaluation_mode": "manual"
			}
		]
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write gold file: %v", err)
	}

	questions, threshold, priceTol, err := LoadGoldStandard(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if threshold == nil || *threshold != 0.75 {
		t.Fatalf("expected threshold override 0.75, got %v", threshold)
	}
	if priceTol == nil || *priceTol != 0.1 {
		t.Fatalf("expected price tolerance override 0.1, got %v", priceTol)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	q1 := questions[0]
	if q1.Constraints.Location == nil || q1.Constraints.Location.Keywords[0] != "Kemang" {
		t.Fatalf("expected location keyword parsed, got %+v", q1.Constraints.Location)
	}
	if q1.Constraints.Location.RadiusKm == nil || *q1.Constraints.Location.RadiusKm != defaultLocationRadiusKm {
		t.Fatalf("expected default radius_km applied, got %v", q1.Constraints.Location.RadiusKm)
	}
	if q1.Constraints.Bedrooms == nil || q1.Constraints.Bedrooms.Exact == nil || *q1.Constraints.Bedrooms.Exact != 3 {
		t.Fatalf("expected exact bedrooms constraint 3, got %+v", q1.Constraints.Bedrooms)
	}
	if !questions[1].IsManual() {
		t.Fatal("expected second question marked manual")
	}
}
