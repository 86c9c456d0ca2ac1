package evaluator

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ripinlibinus/rag-property-assistant/internal/apperr"
)

type goldLocationJSON struct {
	Keywords []string `json:"keywords"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	RadiusKm *float64 `json:"radius_km"`
}

type goldPriceJSON struct {
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	Target    *float64 `json:"target"`
	Tolerance *float64 `json:"tolerance"`
}

type goldBedroomsJSON struct {
	Min   *int `json:"min"`
	Max   *int `json:"max"`
	Exact *int `json:"exact"`
}

type goldFloorsJSON struct {
	Min   *int `json:"min"`
	Max   *int `json:"max"`
	Exact *int `json:"exact"`
}

type goldConstraintsJSON struct {
	PropertyType string            `json:"property_type"`
	ListingType  string            `json:"listing_type"`
	Location     *goldLocationJSON `json:"location"`
	Price        *goldPriceJSON    `json:"price"`
	Bedrooms     *goldBedroomsJSON `json:"bedrooms"`
	Floors       *goldFloorsJSON   `json:"floors"`
}

type goldQuestionJSON struct {
	ID             string              `json:"id"`
	Question       string              `json:"question"`
	Category       string              `json:"category"`
	ExpectedResult string              `json:"expected_result"`
	Constraints    goldConstraintsJSON `json:"constraints"`
	Notes          string              `json:"notes"`
	EvaluationMode string              `json:"evaluation_mode"`
}

type goldFileJSON struct {
	ThresholdT     *float64           `json:"threshold_t"`
	PriceTolerance *float64           `json:"price_tolerance"`
	Questions      []goldQuestionJSON `json:"questions"`
}

// defaultLocationRadiusKm matches LocationConstraint's dataclass default in
// the original (radius_km: float = 2.0).
const defaultLocationRadiusKm = 2.0

func (c goldConstraintsJSON) toConstraints() Constraints {
	out := Constraints{PropertyType: c.PropertyType, ListingType: c.ListingType}

	if c.Location != nil {
		radius := defaultLocationRadiusKm
		if c.Location.RadiusKm != nil {
			radius = *c.Location.RadiusKm
		}
		out.Location = &LocationConstraint{
			Keywords: c.Location.Keywords,
			Lat:      c.Location.Lat,
			Lng:      c.Location.Lng,
			RadiusKm: &radius,
		}
	}
	if c.Price != nil {
		out.Price = &PriceConstraint{Min: c.Price.Min, Max: c.Price.Max, Target: c.Price.Target, Tolerance: c.Price.Tolerance}
	}
	if c.Bedrooms != nil {
		out.Bedrooms = &BedroomConstraint{Min: c.Bedrooms.Min, Max: c.Bedrooms.Max, Exact: c.Bedrooms.Exact}
	}
	if c.Floors != nil {
		out.Floors = &FloorsConstraint{Min: c.Floors.Min, Max: c.Floors.Max, Exact: c.Floors.Exact}
	}
	return out
}

// LoadGoldStandard reads a gold-question JSON file. If the file sets
// threshold_t/price_tolerance, it returns them so the caller can apply them
// to a fresh Evaluator (mirroring load_gold_standard reassigning
// self.threshold_t / self.checker).
func LoadGoldStandard(path string) ([]GoldQuestion, *float64, *float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read gold file %q: %w", path, err)
	}
	var doc goldFileJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("parse gold file %q: %w", path, err)
	}

	questions := make([]GoldQuestion, 0, len(doc.Questions))
	for _, q := range doc.Questions {
		if p := q.Constraints.Price; p != nil && p.Target != nil && (p.Min != nil || p.Max != nil) {
			return nil, nil, nil, apperr.New(apperr.KindBadRequest, fmt.Sprintf("gold question %q: price target cannot be combined with min/max", q.ID))
		}
		mode := ModeAuto
		if q.EvaluationMode == string(ModeManual) {
			mode = ModeManual
		}
		expected := ExpectedHasData
		if q.ExpectedResult == string(ExpectedNoData) {
			expected = ExpectedNoData
		}
		questions = append(questions, GoldQuestion{
			ID:             q.ID,
			Question:       q.Question,
			Category:       q.Category,
			ExpectedResult: expected,
			Constraints:    q.Constraints.toConstraints(),
			Notes:          q.Notes,
			EvaluationMode: mode,
		})
	}
	return questions, doc.ThresholdT, doc.PriceTolerance, nil
}
