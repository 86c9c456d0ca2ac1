package evaluator

import (
	"sort"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

// PerConstraintAccuracy is pass/total for each checkable dimension,
// nil when the dimension never applied across the whole run (Python's
// `None` for a zero-total denominator).
type PerConstraintAccuracy struct {
	PropertyType *float64
	ListingType  *float64
	Location     *float64
	Price        *float64
	Bedrooms     *float64
	Floors       *float64
}

// CategoryMetrics summarizes one question category's outcomes.
type CategoryMetrics struct {
	TotalQueries      int
	SuccessfulQueries int
	SuccessRate       float64
	TotalProperties   int
	MeanCPR           float64
}

// Metrics is the full rollup over one evaluation run.
type Metrics struct {
	TotalQueries        int
	TotalProperties     int
	ThresholdT          float64
	PCA                 PerConstraintAccuracy
	MeanCPR             float64
	StrictSuccessRatio  float64
	QuerySuccessRate    float64
	ConfusionMatrix     ConfusionMatrix
	CategoryMetrics     map[string]CategoryMetrics
}

// Evaluator orchestrates constraint checking and metrics computation
// across a gold question set, grounded on evaluator.py's Evaluator.
type Evaluator struct {
	ThresholdT     float64
	PriceTolerance float64
	checker        *Checker
}

func New(thresholdT, priceTolerance float64) *Evaluator {
	return &Evaluator{
		ThresholdT:     thresholdT,
		PriceTolerance: priceTolerance,
		checker:        NewChecker(priceTolerance),
	}
}

// EvaluateQuery checks one gold question's returned properties and
// returns the aggregated QueryEvaluation.
func (e *Evaluator) EvaluateQuery(q GoldQuestion, properties []property.Property) QueryEvaluation {
	return QueryEvaluation{
		QuestionID: q.ID,
		Category:   q.Category,
		Expected:   q.ExpectedResult,
		HasResults: len(properties) > 0,
		Checks:     e.checker.CheckAll(properties, q),
	}
}

var constraintKeys = []string{"property_type", "listing_type", "location", "price", "bedrooms", "floors"}

// CalculatePCA computes Per-Constraint Accuracy across every evaluation.
func (e *Evaluator) CalculatePCA(evaluations []QueryEvaluation) PerConstraintAccuracy {
	pass := make(map[string]int, 6)
	total := make(map[string]int, 6)
	for _, k := range constraintKeys {
		pass[k], total[k] = 0, 0
	}

	for _, qe := range evaluations {
		for _, check := range qe.Checks {
			for key, result := range check.Results {
				if result == ResultNA {
					continue
				}
				total[key]++
				if result == ResultPass {
					pass[key]++
				}
			}
		}
	}

	safe := func(key string) *float64 {
		if total[key] == 0 {
			return nil
		}
		v := float64(pass[key]) / float64(total[key])
		return &v
	}

	return PerConstraintAccuracy{
		PropertyType: safe("property_type"),
		ListingType:  safe("listing_type"),
		Location:     safe("location"),
		Price:        safe("price"),
		Bedrooms:     safe("bedrooms"),
		Floors:       safe("floors"),
	}
}

// CalculateConfusionMatrix tallies TP/FP/TN/FN at the evaluator's threshold.
func (e *Evaluator) CalculateConfusionMatrix(evaluations []QueryEvaluation) ConfusionMatrix {
	var cm ConfusionMatrix
	for _, qe := range evaluations {
		switch qe.GetConfusionCategory(e.ThresholdT) {
		case CategoryTP:
			cm.TP++
		case CategoryFP:
			cm.FP++
		case CategoryTN:
			cm.TN++
		case CategoryFN:
			cm.FN++
		}
	}
	return cm
}

// CalculateCategoryMetrics breaks success/CPR rollups down by question
// category.
func (e *Evaluator) CalculateCategoryMetrics(evaluations []QueryEvaluation) map[string]CategoryMetrics {
	byCategory := make(map[string][]QueryEvaluation)
	for _, qe := range evaluations {
		byCategory[qe.Category] = append(byCategory[qe.Category], qe)
	}

	out := make(map[string]CategoryMetrics, len(byCategory))
	for category, evals := range byCategory {
		successful := 0
		totalProps := 0
		var weightedCPR float64
		for _, qe := range evals {
			if qe.IsSuccess(e.ThresholdT) {
				successful++
			}
			totalProps += qe.NumProperties()
			weightedCPR += qe.MeanCPR() * float64(qe.NumProperties())
		}
		meanCPR := 0.0
		if totalProps > 0 {
			meanCPR = weightedCPR / float64(totalProps)
		}
		successRate := 0.0
		if len(evals) > 0 {
			successRate = float64(successful) / float64(len(evals))
		}
		out[category] = CategoryMetrics{
			TotalQueries:      len(evals),
			SuccessfulQueries: successful,
			SuccessRate:       successRate,
			TotalProperties:   totalProps,
			MeanCPR:           meanCPR,
		}
	}
	return out
}

// CalculateMetrics computes the full Metrics rollup for a run.
func (e *Evaluator) CalculateMetrics(evaluations []QueryEvaluation) Metrics {
	totalQueries := len(evaluations)
	totalProperties := 0
	var weightedCPR float64
	totalStrict := 0
	successful := 0
	for _, qe := range evaluations {
		totalProperties += qe.NumProperties()
		weightedCPR += qe.MeanCPR() * float64(qe.NumProperties())
		totalStrict += qe.StrictSuccessCount()
		if qe.IsSuccess(e.ThresholdT) {
			successful++
		}
	}

	meanCPR := 0.0
	if totalProperties > 0 {
		meanCPR = weightedCPR / float64(totalProperties)
	}
	strictRatio := 0.0
	if totalProperties > 0 {
		strictRatio = float64(totalStrict) / float64(totalProperties)
	}
	querySuccessRate := 0.0
	if totalQueries > 0 {
		querySuccessRate = float64(successful) / float64(totalQueries)
	}

	return Metrics{
		TotalQueries:       totalQueries,
		TotalProperties:    totalProperties,
		ThresholdT:         e.ThresholdT,
		PCA:                e.CalculatePCA(evaluations),
		MeanCPR:            meanCPR,
		StrictSuccessRatio: strictRatio,
		QuerySuccessRate:   querySuccessRate,
		ConfusionMatrix:    e.CalculateConfusionMatrix(evaluations),
		CategoryMetrics:    e.CalculateCategoryMetrics(evaluations),
	}
}

// TestResult is one query's recorded run output, the Go analog of the
// JSON test-result rows run_evaluation reads.
type TestResult struct {
	QueryID    string
	Properties []property.Property
}

// RunEvaluation evaluates every gold question against its matching test
// result (by QueryID), treating a missing result as a failed, empty-result
// query, then computes the overall Metrics.
func RunEvaluation(e *Evaluator, questions []GoldQuestion, results []TestResult) ([]QueryEvaluation, Metrics) {
	byID := make(map[string]TestResult, len(results))
	for _, r := range results {
		byID[r.QueryID] = r
	}

	evaluations := make([]QueryEvaluation, 0, len(questions))
	for _, q := range questions {
		r, ok := byID[q.ID]
		if !ok {
			evaluations = append(evaluations, QueryEvaluation{
				QuestionID: q.ID,
				Category:   q.Category,
				Expected:   q.ExpectedResult,
				HasResults: false,
			})
			continue
		}
		evaluations = append(evaluations, e.EvaluateQuery(q, r.Properties))
	}

	metrics := e.CalculateMetrics(evaluations)
	return evaluations, metrics
}

// MergeEvaluations replaces existing entries with new ones by QuestionID
// and returns the result sorted by QuestionID, for incremental reruns.
func MergeEvaluations(existing, newEvals []QueryEvaluation) []QueryEvaluation {
	byID := make(map[string]QueryEvaluation, len(existing))
	for _, e := range existing {
		byID[e.QuestionID] = e
	}
	for _, e := range newEvals {
		byID[e.QuestionID] = e
	}

	merged := make([]QueryEvaluation, 0, len(byID))
	for _, e := range byID {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].QuestionID < merged[j].QuestionID })
	return merged
}
