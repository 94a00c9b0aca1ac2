package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/infrastructure/storage"
	"ComplianceQueue/internal/ports"
	"ComplianceQueue/internal/usecase"
)

type scrapeFunc func(req ports.ScrapeRequest) (json.RawMessage, error)

func (f scrapeFunc) Scrape(_ context.Context, req ports.ScrapeRequest) (json.RawMessage, error) {
	return f(req)
}

func newTestServer(t *testing.T, scraper ports.ScrapeClient) (*Server, *storage.MemoryRepository) {
	t.Helper()
	if scraper == nil {
		scraper = scrapeFunc(func(ports.ScrapeRequest) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		})
	}

	store := storage.NewMemoryRepository()
	queue := usecase.NewQueue(store, nil, nil)
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{Store: store, Scraper: scraper})
	return NewServer(queue, pipeline, nil), store
}

func doJSON(t *testing.T, server *Server, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.App().Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NoError(t, resp.Body.Close())
	return resp, decoded
}

func seedApproved(t *testing.T, store *storage.MemoryRepository, name, url string) domain.Artifact {
	t.Helper()
	artifact, err := store.Enqueue(context.Background(), domain.Artifact{
		NameOrigin: name,
		URL:        url,
		Status:     domain.StatusApproved,
	})
	require.NoError(t, err)
	return artifact
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, nil)
	resp, decoded := doJSON(t, server, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])
}

func TestEnqueueAndListQueue(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, nil)

	resp, decoded := doJSON(t, server, http.MethodPost, "/api/compliance-queue/", map[string]string{
		"compliance_name_origin": "ISO 9001",
		"url":                    "https://example.com/iso",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "ISO 9001", data["compliance_name_origin"])
	assert.Equal(t, "pending", data["status"])
	assert.Nil(t, data["compliance_name_translated"])

	resp, decoded = doJSON(t, server, http.MethodGet, "/api/compliance-queue/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["count"])
}

func TestEnqueueRejectsEmptyName(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, nil)
	resp, decoded := doJSON(t, server, http.MethodPost, "/api/compliance-queue/", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, decoded["success"])
}

func TestApproveEndpoint(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t, nil)
	artifact, err := store.Enqueue(context.Background(), domain.Artifact{NameOrigin: "SOC 2"})
	require.NoError(t, err)

	resp, decoded := doJSON(t, server, http.MethodPost, "/api/compliance-queue/"+artifact.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "approved", data["status"])
}

func TestLifecycleEndpointsReturn404ForUnknownID(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, nil)

	for _, path := range []string{
		"/api/compliance-queue/missing/approve",
		"/api/compliance-queue/missing/disapprove",
		"/api/compliance-queue/missing/revert",
	} {
		resp, decoded := doJSON(t, server, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "Compliance artifact not found", decoded["error"], path)
	}
}

func TestDisapproveRemovesArtifact(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t, nil)
	artifact, err := store.Enqueue(context.Background(), domain.Artifact{NameOrigin: "HIPAA"})
	require.NoError(t, err)

	resp, _ := doJSON(t, server, http.MethodPost, "/api/compliance-queue/"+artifact.ID+"/disapprove", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodPost, "/api/compliance-queue/"+artifact.ID+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEndpoints(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t, nil)
	artifact, err := store.Enqueue(context.Background(), domain.Artifact{NameOrigin: "GDPR"})
	require.NoError(t, err)

	resp, decoded := doJSON(t, server, http.MethodPost, "/api/compliance-queue/"+artifact.ID+"/update-url",
		map[string]string{"url": "https://example.com/gdpr"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "https://example.com/gdpr", data["url"])

	resp, decoded = doJSON(t, server, http.MethodPost, "/api/compliance-queue/"+artifact.ID+"/update-name",
		map[string]string{"compliance_name_translated": "GDPR (EU)"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decoded["data"].(map[string]any)
	assert.Equal(t, "GDPR (EU)", data["compliance_name_translated"])
}

func TestInitiateWebscrapEmptyQueue(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, nil)
	resp, decoded := doJSON(t, server, http.MethodPost, "/api/initiate-webscrap", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "No approved items to process", decoded["message"])
	assert.Equal(t, float64(0), decoded["count"])
}

func TestInitiateWebscrapMixedOutcome(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(req ports.ScrapeRequest) (json.RawMessage, error) {
		if req.CertificationName == "HIPAA" {
			return nil, &domain.ScrapeRejectedError{Message: "rate limited"}
		}
		return json.RawMessage(`{"saved": 1}`), nil
	})

	server, store := newTestServer(t, scraper)
	seedApproved(t, store, "ISO 9001", "")
	seedApproved(t, store, "HIPAA", "https://example.com/hipaa")

	resp, decoded := doJSON(t, server, http.MethodPost, "/api/initiate-webscrap", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(2), decoded["count"])
	assert.Equal(t, float64(1), decoded["successful"])
	assert.Equal(t, float64(1), decoded["failed"])

	results := decoded["results"].([]any)
	require.Len(t, results, 1)
	success := results[0].(map[string]any)
	assert.Equal(t, "ISO 9001", success["name"])
	assert.Equal(t, "success", success["status"])

	errorsList := decoded["errors"].([]any)
	require.Len(t, errorsList, 1)
	failure := errorsList[0].(map[string]any)
	assert.Equal(t, "HIPAA", failure["name"])
	assert.Equal(t, "rate limited", failure["error"])

	remaining, err := store.List(context.Background(), ports.ListFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "HIPAA", remaining[0].NameOrigin)
	assert.Equal(t, domain.StatusApproved, remaining[0].Status)
}
