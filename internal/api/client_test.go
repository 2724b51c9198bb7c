package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0ritam/studentlens/internal/student"
)

const testTimeout = 2 * time.Second

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","model_loaded":true,"version":"1.0.0","timestamp":"2024-01-01T00:00:00Z"}`))
	}))
	defer server.Close()

	client := New(server.URL, testTimeout)
	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy())
	assert.Equal(t, "1.0.0", status.Version)
}

func TestHealthUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"unhealthy","model_loaded":false}`))
	}))
	defer server.Close()

	status, err := New(server.URL, testTimeout).Health(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Healthy())
}

func TestPredict(t *testing.T) {
	rec := student.Example()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(rec.IDStudent), body["id_student"])
		assert.Equal(t, rec.CodeModule, body["code_module"])

		w.Write([]byte(`{
			"prediction": "Pass",
			"probabilities": {"Distinction": 0.1, "Fail": 0.05, "Pass": 0.8, "Withdrawn": 0.05},
			"confidence": 0.8,
			"student_id": 11391
		}`))
	}))
	defer server.Close()

	pred, err := New(server.URL, testTimeout).Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, OutcomePass, pred.Prediction)
	assert.Equal(t, 11391, pred.StudentID)
	assert.InDelta(t, 0.8, pred.Confidence, 1e-9)
	assert.InDelta(t, 0.1, pred.Probabilities[OutcomeDistinction], 1e-9)
}

func TestExplain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/explain", r.URL.Path)
		w.Write([]byte(`{
			"student_id": 11391,
			"prediction": "Pass",
			"shap_values": {"total_clicks": 0.42, "completed_course": 0.9},
			"lime_explanation": {
				"shap": {"total_clicks": 0.42, "completed_course": 0.9},
				"lime": {
					"top_features": {"total_clicks": 0.3},
					"intercept": 0.25,
					"local_prediction": 0.81
				},
				"plots": {
					"shap": {"waterfall": "aGVsbG8=", "importance": "d29ybGQ="},
					"lime": {"explanation": "cGxvdA=="}
				}
			},
			"feature_importance": [
				{"feature": "completed_course", "importance": 0.45, "direction": "positive", "shap_value": 0.9, "lime_value": 0},
				{"feature": "total_clicks", "importance": 0.36, "direction": "positive", "shap_value": 0.42, "lime_value": 0.3}
			]
		}`))
	}))
	defer server.Close()

	expl, err := New(server.URL, testTimeout).Explain(context.Background(), student.Example())
	require.NoError(t, err)

	want := FeatureWeights{"total_clicks": 0.42, "completed_course": 0.9}
	if diff := cmp.Diff(want, expl.SHAPValues); diff != "" {
		t.Errorf("shap values mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 0.25, expl.Details.Lime.Intercept, 1e-9)
	assert.Equal(t, "aGVsbG8=", expl.Details.Plots.SHAP.Waterfall)
	require.Len(t, expl.FeatureImportance, 2)
	assert.Equal(t, "completed_course", expl.FeatureImportance[0].Feature)
}

// The service substitutes {"error": "..."} for a weight map when an
// explainer fails; decoding must keep the rest of the response usable.
func TestExplainToleratesExplainerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"student_id": 7,
			"prediction": "Fail",
			"shap_values": {},
			"lime_explanation": {
				"shap": {"error": "SHAP explanation unavailable"},
				"lime": {"top_features": {"active_days": -0.2}, "intercept": 0.5, "local_prediction": 0.3},
				"plots": {"shap": {}, "lime": {}}
			},
			"feature_importance": []
		}`))
	}))
	defer server.Close()

	expl, err := New(server.URL, testTimeout).Explain(context.Background(), student.Example())
	require.NoError(t, err)
	assert.Empty(t, expl.Details.SHAP)
	assert.InDelta(t, -0.2, expl.Details.Lime.TopFeatures["active_days"], 1e-9)
}

func TestBatchPredict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/batch-predict", r.URL.Path)

		var body struct {
			Students            []map[string]any `json:"students"`
			IncludeExplanations bool             `json:"include_explanations"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Students, 2)
		assert.True(t, body.IncludeExplanations)

		w.Write([]byte(`{
			"predictions": [{"prediction": "Pass", "probabilities": {}, "confidence": 0.7, "student_id": 1}],
			"explanations": [{"student_id": 1, "prediction": "Pass", "shap_values": {}, "lime_explanation": {"shap": {}, "lime": {}, "plots": {"shap": {}, "lime": {}}}, "feature_importance": []}],
			"total_processed": 2,
			"success_count": 1,
			"error_count": 1
		}`))
	}))
	defer server.Close()

	records := []student.Record{student.Example(), student.Example()}
	result, err := New(server.URL, testTimeout).BatchPredict(context.Background(), records, true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Predictions, 1)
	require.Len(t, result.Explanations, 1)
}

func TestPassGuidelines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/guidelines", r.URL.Path)
		w.Write([]byte(`{"guidelines": {
			"engagement_metrics": {"active_days": "> 60"},
			"high_priority_factors": {"completed_course": "Must be True/1 (87.94% model importance)", "total_clicks": "Aim for > 3000 clicks (high engagement)"},
			"example_pass_profile": {"studied_credits": 120, "completed_course": true, "daily_engagement_rate": 0.75}
		}}`))
	}))
	defer server.Close()

	g, err := New(server.URL, testTimeout).PassGuidelines(context.Background())
	require.NoError(t, err)

	wantOrder := []string{"high_priority_factors", "engagement_metrics", "example_pass_profile"}
	if diff := cmp.Diff(wantOrder, g.SectionNames()); diff != "" {
		t.Errorf("section order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "> 60", g.Sections["engagement_metrics"]["active_days"])
	assert.Equal(t, true, g.Sections["example_pass_profile"]["completed_course"])
}

func TestValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "HTTPException", "message": "Invalid categorical value for gender", "detail": null}`))
	}))
	defer server.Close()

	_, err := New(server.URL, testTimeout).Predict(context.Background(), student.Example())
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Invalid categorical value for gender", UserMessage(err))
	assert.EqualError(t, err, "prediction failed: Invalid categorical value for gender")
}

func TestValidationErrorPydanticShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [
			{"loc": ["body", "total_clicks"], "msg": "value is not a valid integer", "type": "type_error.integer"},
			{"loc": ["body", "gender"], "msg": "field required", "type": "value_error.missing"}
		]}`))
	}))
	defer server.Close()

	_, err := New(server.URL, testTimeout).Predict(context.Background(), student.Example())
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "total_clicks: value is not a valid integer; gender: field required", UserMessage(err))
}

func TestModelNotLoaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "HTTPException", "message": "Models not loaded. Service unavailable.", "detail": null}`))
	}))
	defer server.Close()

	_, err := New(server.URL, testTimeout).Explain(context.Background(), student.Example())
	require.Error(t, err)
	assert.Equal(t, KindModelNotLoaded, KindOf(err))
	assert.Contains(t, UserMessage(err), "model not loaded")
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "InternalServerError", "message": "An unexpected error occurred", "detail": null}`))
	}))
	defer server.Close()

	_, err := New(server.URL, testTimeout).BatchPredict(context.Background(), []student.Record{student.Example()}, false)
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.EqualError(t, err, "batch prediction failed: An unexpected error occurred")
}

func TestServerErrorEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, testTimeout).Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Contains(t, UserMessage(err), "502")
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	_, err := New(server.URL, 50*time.Millisecond).Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Contains(t, UserMessage(err), "timed out")
}

func TestContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(server.URL, testTimeout).Predict(ctx, student.Example())
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, testTimeout).Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindUnreachable, KindOf(err))
	assert.Contains(t, UserMessage(err), url)
}

func TestBaseURLTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","model_loaded":true}`))
	}))
	defer server.Close()

	_, err := New(server.URL+"/", testTimeout).Health(context.Background())
	require.NoError(t, err)
}
