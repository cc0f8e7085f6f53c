package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatus(t *testing.T) {
	app := newTestApp()
	InitRestHealth(app, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"valkey":   func(context.Context) error { return nil },
	})

	resp, body := doJSON(t, app, http.MethodGet, "/health/status", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var records []HealthRecord
	require.NoError(t, json.Unmarshal(body.Results, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "database", records[0].Name)
	assert.Equal(t, "ok", records[1].Status)
}

func TestHealthStatus_Unhealthy(t *testing.T) {
	app := newTestApp()
	InitRestHealth(app, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"valkey":   func(context.Context) error { return errors.New("connection refused") },
	})

	resp, body := doJSON(t, app, http.MethodGet, "/health/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "UNHEALTHY", body.Code)

	var records []HealthRecord
	require.NoError(t, json.Unmarshal(body.Results, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "connection refused", records[1].Error)
}
