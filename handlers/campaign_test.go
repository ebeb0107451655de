// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-annotate/engine"
	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/testutil"
)

type body = map[string]any

// setup opens a campaign with the given users and returns both handlers
func setup(t *testing.T, c *models.Campaign, users ...string) (*CampaignHandler, *DashboardHandler, *testutil.Stores) {
	t.Helper()
	_, stores := testutil.SetupCampaign(t, c, users...)
	eng, err := engine.New(stores.Campaigns, stores.Progress, stores.Log, engine.WithSeed(42))
	require.NoError(t, err)
	return NewCampaignHandler(eng), NewDashboardHandler(eng), stores
}

func taskBased() *models.Campaign {
	return testutil.TaskBasedCampaign("tb", map[string][]models.Document{
		"alice": testutil.Documents(2, "m1", "m2"),
		"bob":   testutil.Documents(3, "m1", "m2"),
	})
}

func annotation(itemI int, score float64) body {
	return body{
		"campaign_id": "tb",
		"user_id":     "alice",
		"item_i":      itemI,
		"payload": body{
			"annotation": []body{{"m1": body{"score": score}}},
			"actions":    []body{{"time": 10.0}, {"time": 14.5, "kind": "submit"}},
		},
	}
}

func serve(h http.HandlerFunc, path string, b any) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, testutil.MakeRequest("POST", path, b, nil))
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.Message
}

func TestNextItem(t *testing.T) {
	h, _, _ := setup(t, taskBased(), "alice", "bob")

	w := serve(h.NextItem, "/get-next-item", body{"campaign_id": "tb", "user_id": "alice"})
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ItemResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, models.StatusOK, resp.Status)
	assert.Equal(t, []bool{false, false}, resp.Progress.Done)
	assert.EqualValues(t, 0, resp.Info["item_i"])
	require.Len(t, resp.Payload, 1)
	assert.JSONEq(t, `"source 0"`, string(resp.Payload[0]["src"]))
	assert.Nil(t, resp.PayloadExisting)
}

func TestNextItem_Errors(t *testing.T) {
	h, _, _ := setup(t, taskBased(), "alice")

	testCases := []struct {
		name    string
		body    any
		message string
	}{
		{"unknown campaign", body{"campaign_id": "nope", "user_id": "alice"}, "unknown campaign ID"},
		{"unknown user", body{"campaign_id": "tb", "user_id": testutil.RandomUserID(t)}, "unknown user ID"},
		{"missing user", body{"campaign_id": "tb"}, ""},
		{"malformed", "not an object", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(h.NextItem, "/get-next-item", tc.body)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
			msg := errorMessage(t, w)
			if tc.message != "" {
				assert.Equal(t, tc.message, msg)
			} else {
				assert.Contains(t, msg, "invalid request")
			}
		})
	}
}

func TestLogResponse_ThenResume(t *testing.T) {
	h, _, stores := setup(t, taskBased(), "alice", "bob")

	w := serve(h.LogResponse, "/log-response", annotation(0, 70))
	testutil.AssertStatus(t, w, http.StatusOK)
	var ack string
	testutil.AssertJSON(t, w, &ack)
	assert.Equal(t, "ok", ack)

	p, err := stores.Progress.Get("tb", "alice")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, p.Progress.Done)
	assert.InDelta(t, 4.5, p.Time, 1e-9)

	// the next item skips the finished one
	w = serve(h.NextItem, "/get-next-item", body{"campaign_id": "tb", "user_id": "alice"})
	var next models.ItemResponse
	testutil.AssertJSON(t, w, &next)
	assert.EqualValues(t, 1, next.Info["item_i"])

	// revisiting the finished item pre-fills the form
	w = serve(h.ItemAt, "/get-i-item", body{"campaign_id": "tb", "user_id": "alice", "item_i": 0})
	testutil.AssertStatus(t, w, http.StatusOK)
	var at models.ItemResponse
	testutil.AssertJSON(t, w, &at)
	require.NotNil(t, at.PayloadExisting)
	assert.JSONEq(t, `[{"m1": {"score": 70}}]`, string(at.PayloadExisting.Annotation))

	// bob's list is untouched
	p, err = stores.Progress.Get("tb", "bob")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, p.Progress.Done)
}

func TestLogResponse_Errors(t *testing.T) {
	h, _, stores := setup(t, taskBased(), "alice")

	missingAnnotation := annotation(0, 1)
	delete(missingAnnotation["payload"].(body), "annotation")

	testCases := []struct {
		name string
		body any
	}{
		{"out of range", annotation(2, 1)},
		{"negative index", annotation(-1, 1)},
		{"missing item", body{"campaign_id": "tb", "user_id": "alice", "payload": body{"annotation": 1}}},
		{"missing annotation", missingAnnotation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(h.LogResponse, "/log-response", tc.body)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}

	all, err := stores.Log.All(t.Context(), "tb")
	require.NoError(t, err)
	assert.Empty(t, all, "rejected submissions must not reach the log")
}

func TestItemAt_Errors(t *testing.T) {
	h, _, _ := setup(t, taskBased(), "alice")

	w := serve(h.ItemAt, "/get-i-item", body{"campaign_id": "tb", "user_id": "alice", "item_i": 5})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "item index out of range", errorMessage(t, w))

	w = serve(h.ItemAt, "/get-i-item", body{"campaign_id": "tb", "user_id": "alice"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	dyn := testutil.SharedCampaign("dyn", models.AssignmentDynamic, testutil.Documents(2, "m1"))
	h, _, _ = setup(t, dyn, "alice")
	w = serve(h.ItemAt, "/get-i-item", body{"campaign_id": "dyn", "user_id": "alice", "item_i": 0})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "unsupported campaign assignment type", errorMessage(t, w))
}

func TestResetTask(t *testing.T) {
	h, _, stores := setup(t, taskBased(), "alice", "bob")

	testutil.AssertStatus(t, serve(h.LogResponse, "/log-response", annotation(0, 50)), http.StatusOK)

	w := serve(h.ResetTask, "/reset-task", body{"campaign_id": "tb", "user_id": "alice", "token": "wrong"})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "invalid token", errorMessage(t, w))

	w = serve(h.ResetTask, "/reset-task", body{"campaign_id": "tb", "user_id": "alice", "token": testutil.TestToken})
	testutil.AssertStatus(t, w, http.StatusOK)

	p, err := stores.Progress.Get("tb", "alice")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, p.Progress.Done)
	assert.Zero(t, p.Time)
	assert.Nil(t, p.TimeStart)

	w = serve(h.ItemAt, "/get-i-item", body{"campaign_id": "tb", "user_id": "alice", "item_i": 0})
	var at models.ItemResponse
	testutil.AssertJSON(t, w, &at)
	assert.Nil(t, at.PayloadExisting, "reset masks the earlier answer")

	w = serve(h.ResetTask, "/reset-task", body{"campaign_id": "tb", "user_id": "mallory", "token": testutil.TestToken})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "unknown user ID", errorMessage(t, w))
}

func TestCompletion(t *testing.T) {
	h, _, _ := setup(t, taskBased(), "alice")

	for i := range 2 {
		b := annotation(i, 90)
		b["payload"].(body)["validations"] = []bool{true}
		testutil.AssertStatus(t, serve(h.LogResponse, "/log-response", b), http.StatusOK)
	}

	w := serve(h.NextItem, "/get-next-item", body{"campaign_id": "tb", "user_id": "alice"})
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.ItemResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, models.StatusCompleted, resp.Status)
	assert.Equal(t, "alice-pass", resp.Token)
	assert.Contains(t, resp.Goodbye, "alice-pass")
	assert.Empty(t, resp.Payload)
}
