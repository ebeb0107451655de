// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/testutil"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", []float64{}, 0.5, 0.0},
		{"single", []float64{5.0}, 0.5, 5.0},
		{"median of two", []float64{1.0, 3.0}, 0.5, 2.0},
		{"median of three", []float64{1.0, 2.0, 3.0}, 0.5, 2.0},
		{"p10", []float64{0.0, 10.0}, 0.1, 1.0},
		{"p90", []float64{0.0, 10.0}, 0.9, 9.0},
		{"p100", []float64{1.0, 2.0, 3.0}, 1.0, 3.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, percentile(tc.values, tc.p), 1e-9)
		})
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 2.0, mean([]float64{1, 2, 3}))
	assert.False(t, math.IsNaN(mean([]float64{})))
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	c := testutil.SharedCampaign("ss", models.AssignmentSingleStream, testutil.Documents(3, "m1", "m2", "m3"))
	e, _ := newEngine(t, c, "alice", "bob")

	submit := func(user string, itemI int, annotation, item string) {
		t.Helper()
		require.NoError(t, e.Submit(ctx, "ss", user, itemI, models.AnnotationPayload{
			Annotation: json.RawMessage(annotation),
			Item:       json.RawMessage(item),
		}))
	}

	submit("alice", 0, `[{"m1": {"score": 80}, "m2": {"score": 40}}]`, `[{"src": "s0"}]`)
	submit("bob", 1, `[{"m1": {"score": 60}, "m2": {"score": 100}, "m3": {"score": 80}}]`, `[{"src": "s1"}]`)
	// resubmission of the same segment replaces the earlier score
	submit("alice", 0, `[{"m1": {"score": 100}}]`, `[{"src":"s0"}]`)
	// free-form annotations carry no scores
	submit("bob", 2, `"skip"`, `[{"src": "s2"}]`)
	submit("bob", 2, `[{"m1": {"score": null}}]`, `[{"src": "s2"}]`)

	results, err := e.Results(ctx, "ss", testutil.TestToken)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "m1", results[0].Model)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[0].Count)
	assert.InDelta(t, 80.0, results[0].Score, 1e-9)
	assert.InDelta(t, 80.0, results[0].Median, 1e-9)
	assert.InDelta(t, 64.0, results[0].P10, 1e-9)
	assert.InDelta(t, 96.0, results[0].P90, 1e-9)

	// m3 ties m1 on mean and sorts after it by name
	assert.Equal(t, "m3", results[1].Model)
	assert.Equal(t, 2, results[1].Rank)
	assert.Equal(t, 1, results[1].Count)

	assert.Equal(t, "m2", results[2].Model)
	assert.Equal(t, 3, results[2].Rank)
	assert.InDelta(t, 70.0, results[2].Score, 1e-9)
}

func TestResults_SegmentsWithoutItem(t *testing.T) {
	ctx := context.Background()
	c := testutil.SharedCampaign("ss", models.AssignmentSingleStream, testutil.Documents(2, "m1"))
	e, _ := newEngine(t, c, "alice")

	require.NoError(t, e.Submit(ctx, "ss", "alice", 0, scored(map[string]float64{"m1": 10})))
	require.NoError(t, e.Submit(ctx, "ss", "alice", 1, scored(map[string]float64{"m1": 30})))
	require.NoError(t, e.Submit(ctx, "ss", "alice", 1, scored(map[string]float64{"m1": 50})))

	results, err := e.Results(ctx, "ss", testutil.TestToken)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Count)
	assert.InDelta(t, 30.0, results[0].Score, 1e-9)
}

func TestResults_TokenAndReset(t *testing.T) {
	ctx := context.Background()
	c := testutil.SharedCampaign("ss", models.AssignmentSingleStream, testutil.Documents(1, "m1"))
	e, _ := newEngine(t, c, "alice")

	_, err := e.Results(ctx, "ss", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	_, err = e.Results(ctx, "missing", testutil.TestToken)
	assert.ErrorIs(t, err, models.ErrUnknownCampaign)

	require.NoError(t, e.Submit(ctx, "ss", "alice", 0, scored(map[string]float64{"m1": 10})))
	require.NoError(t, e.Reset(ctx, "ss", "alice", testutil.TestToken))

	results, err := e.Results(ctx, "ss", testutil.TestToken)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	c := testutil.TaskBasedCampaign("tb", map[string][]models.Document{
		"alice": testutil.Documents(2, "m1"),
		"bob":   testutil.Documents(2, "m1"),
	})
	e, _ := newEngine(t, c, "alice", "bob")

	first := scored(map[string]float64{"m1": 1})
	first.Validations = []bool{true, false}
	require.NoError(t, e.Submit(ctx, "tb", "alice", 0, first))
	second := scored(map[string]float64{"m1": 1})
	second.Validations = []bool{true}
	require.NoError(t, e.Submit(ctx, "tb", "alice", 1, second))

	data, err := e.Dashboard("tb", nil)
	require.NoError(t, err)
	assert.Nil(t, data.ValidationThreshold)

	alice := data.Data["alice"]
	assert.Equal(t, []bool{false, true}, alice.Validations)
	require.NotNil(t, alice.ThresholdPassed)
	assert.False(t, *alice.ThresholdPassed)
	assert.Nil(t, alice.TokenCorrect)
	assert.Nil(t, alice.TokenIncorrect)

	bob := data.Data["bob"]
	assert.Nil(t, bob.ThresholdPassed, "incomplete users have no verdict")
	assert.Empty(t, bob.Validations)

	token := testutil.TestToken
	data, err = e.Dashboard("tb", &token)
	require.NoError(t, err)
	require.NotNil(t, data.Data["alice"].TokenCorrect)
	assert.Equal(t, "alice-pass", *data.Data["alice"].TokenCorrect)
	assert.Equal(t, "alice-fail", *data.Data["alice"].TokenIncorrect)

	wrong := "nope"
	data, err = e.Dashboard("tb", &wrong)
	require.NoError(t, err)
	assert.Nil(t, data.Data["alice"].TokenCorrect)

	_, err = e.Dashboard("missing", nil)
	assert.ErrorIs(t, err, models.ErrUnknownCampaign)
}
