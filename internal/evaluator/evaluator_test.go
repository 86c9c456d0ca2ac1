package evaluator

import (
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

func TestEvaluateQueryNoDataExpectedSucceedsWithoutResults(t *testing.T) {
	e := New(0.6, 0)
	q := GoldQuestion{ID: "q1", Category: "edge_case", ExpectedResult: ExpectedNoData}
	qe := e.EvaluateQuery(q, nil)
	if !qe.IsSuccess(e.ThresholdT) {
		t.Fatal("expected no_data query with zero results to succeed")
	}
}

func TestEvaluateQueryHasDataRequiresThreshold(t *testing.T) {
	e := New(0.6, 0)
	q := GoldQuestion{
		ID: "q2", Category: "location", ExpectedResult: ExpectedHasData,
		Constraints: Constraints{PropertyType: "house"},
	}
	props := []property.Property{
		{Slug: "a", PropertyType: property.TypeApartment}, // fails property_type
		{Slug: "b", PropertyType: property.TypeHouse},     // passes
	}
	qe := e.EvaluateQuery(q, props)
	if qe.MeanCPR() != 0.5 {
		t.Fatalf("expected mean CPR 0.5, got %f", qe.MeanCPR())
	}
	if qe.IsSuccess(0.6) {
		t.Fatal("expected failure below threshold 0.6")
	}
	if !qe.IsSuccess(0.5) {
		t.Fatal("expected success at threshold 0.5")
	}
}

func TestCalculatePCAIgnoresNAConstraints(t *testing.T) {
	e := New(0.6, 0)
	q := GoldQuestion{ID: "q3", Constraints: Constraints{PropertyType: "house"}, ExpectedResult: ExpectedHasData}
	props := []property.Property{{Slug: "a", PropertyType: property.TypeHouse}}
	qe := e.EvaluateQuery(q, props)

	pca := e.CalculatePCA([]QueryEvaluation{qe})
	if pca.PropertyType == nil || *pca.PropertyType != 1.0 {
		t.Fatalf("expected property_type accuracy 1.0, got %v", pca.PropertyType)
	}
	if pca.Price != nil {
		t.Fatalf("expected price PCA nil (never applicable), got %v", pca.Price)
	}
}

func TestConfusionMatrixClassifiesFalsePositive(t *testing.T) {
	e := New(0.6, 0)
	q := GoldQuestion{ID: "q4", ExpectedResult: ExpectedNoData}
	qe := e.EvaluateQuery(q, []property.Property{{Slug: "a"}})
	cm := e.CalculateConfusionMatrix([]QueryEvaluation{qe})
	if cm.FP != 1 {
		t.Fatalf("expected 1 false positive, got %+v", cm)
	}
}

func TestRunEvaluationMissingResultTreatedAsEmptyFailure(t *testing.T) {
	e := New(0.6, 0)
	questions := []GoldQuestion{{ID: "q5", Category: "cat", ExpectedResult: ExpectedHasData}}
	evals, metrics := RunEvaluation(e, questions, nil)
	if len(evals) != 1 || evals[0].HasResults {
		t.Fatalf("expected one empty-result evaluation, got %+v", evals)
	}
	if metrics.QuerySuccessRate != 0 {
		t.Fatalf("expected 0%% success rate, got %f", metrics.QuerySuccessRate)
	}
}

func TestMergeEvaluationsSortedByQuestionID(t *testing.T) {
	existing := []QueryEvaluation{{QuestionID: "b"}, {QuestionID: "a"}}
	merged := MergeEvaluations(existing, []QueryEvaluation{{QuestionID: "c"}})
	if len(merged) != 3 || merged[0].QuestionID != "a" || merged[2].QuestionID != "c" {
		t.Fatalf("unexpected merge order: %+v", merged)
	}
}
