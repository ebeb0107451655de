// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/quickly-annotate/auth"
	"github.com/danielhkuo/quickly-annotate/cliparse"
	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/store"
)

// TestToken is the dashboard token of every campaign built here
const TestToken = "dashboard-secret"

// Stores bundles the stores opened over a test data directory
type Stores struct {
	Campaigns *store.CampaignStore
	Progress  *store.ProgressStore
	Log       *store.Log
	Backend   *store.FileBackend
}

// NewDataDir creates a data directory with empty tasks/ and outputs/
func NewDataDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, sub := range []string{"tasks", "outputs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", sub, err)
		}
	}
	return dir
}

// GetTestConfig returns a standard test configuration over dataDir
func GetTestConfig(dataDir string) cliparse.Config {
	return cliparse.Config{
		Port:        8001,
		DataDir:     dataDir,
		StaticDir:   filepath.Join(dataDir, "static"),
		StorageType: cliparse.StorageFile,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Segment builds a segment with one output per model
func Segment(src string, outputs map[string]string) models.Segment {
	return models.Segment{"src": mustJSON(src), "tgt": mustJSON(outputs)}
}

// Documents builds n single-segment documents whose outputs come from the
// given models
func Documents(n int, modelNames ...string) []models.Document {
	docs := make([]models.Document, n)
	for i := range docs {
		outputs := make(map[string]string, len(modelNames))
		for _, m := range modelNames {
			outputs[m] = fmt.Sprintf("%s output %d", m, i)
		}
		docs[i] = models.Document{Segment(fmt.Sprintf("source %d", i), outputs)}
	}
	return docs
}

// TaskBasedCampaign builds a task-based campaign with a private list per user
func TaskBasedCampaign(id string, docs map[string][]models.Document) *models.Campaign {
	return &models.Campaign{
		ID:            id,
		Info:          models.Info{Assignment: models.AssignmentTaskBased},
		Token:         TestToken,
		UserDocuments: docs,
	}
}

// SharedCampaign builds a single-stream or dynamic campaign
func SharedCampaign(id, assignment string, docs []models.Document) *models.Campaign {
	return &models.Campaign{
		ID:        id,
		Info:      models.Info{Assignment: assignment},
		Token:     TestToken,
		Documents: docs,
	}
}

// NewUser returns fresh progress over n documents with per-user tokens
func NewUser(userID string, n int, modelSets bool) *models.UserProgress {
	p := models.NewBoolProgress(n)
	if modelSets {
		p = models.NewModelProgress(n)
	}
	return &models.UserProgress{
		Progress:       p,
		URL:            "/?campaign_id=test&user_id=" + userID,
		TokenCorrect:   userID + "-pass",
		TokenIncorrect: userID + "-fail",
	}
}

// WriteCampaign stores a campaign under <dataDir>/tasks
func WriteCampaign(t *testing.T, dataDir string, c *models.Campaign) {
	t.Helper()

	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode campaign: %v", err)
	}
	path := filepath.Join(dataDir, "tasks", c.ID+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("Failed to write campaign: %v", err)
	}
}

// WriteProgress stores the progress snapshot at <dataDir>/progress.json
func WriteProgress(t *testing.T, dataDir string, progress map[string]models.CampaignProgress) {
	t.Helper()

	raw, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode progress: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "progress.json"), raw, 0o644); err != nil {
		t.Fatalf("Failed to write progress: %v", err)
	}
}

// SetupCampaign writes the campaign and a progress record for each user,
// then opens the stores
func SetupCampaign(t *testing.T, c *models.Campaign, userIDs ...string) (string, *Stores) {
	t.Helper()

	dataDir := NewDataDir(t)
	WriteCampaign(t, dataDir, c)

	users := make(models.CampaignProgress, len(userIDs))
	for _, u := range userIDs {
		n := len(c.Documents)
		if c.Info.Assignment == models.AssignmentTaskBased {
			n = len(c.UserDocuments[u])
		}
		users[u] = NewUser(u, n, c.Info.Assignment == models.AssignmentDynamic)
	}
	WriteProgress(t, dataDir, map[string]models.CampaignProgress{c.ID: users})

	return dataDir, OpenStores(t, dataDir)
}

// OpenStores opens the campaign, progress and log stores over dataDir
func OpenStores(t *testing.T, dataDir string) *Stores {
	t.Helper()

	progress, err := store.OpenProgressStore(filepath.Join(dataDir, "progress.json"))
	if err != nil {
		t.Fatalf("Failed to open progress: %v", err)
	}
	campaigns, err := store.LoadCampaigns(context.Background(), filepath.Join(dataDir, "tasks"), progress.CampaignIDs())
	if err != nil {
		t.Fatalf("Failed to load campaigns: %v", err)
	}
	backend, err := store.NewFileBackend(filepath.Join(dataDir, "outputs"))
	if err != nil {
		t.Fatalf("Failed to open log: %v", err)
	}
	return &Stores{
		Campaigns: campaigns,
		Progress:  progress,
		Log:       store.NewLog(backend),
		Backend:   backend,
	}
}

// RandomUserID returns a fresh user ID
func RandomUserID(t *testing.T) string {
	t.Helper()
	id, err := auth.GenerateID(6)
	if err != nil {
		t.Fatalf("Failed to generate ID: %v", err)
	}
	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
