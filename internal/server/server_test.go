package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/casetrack-be/internal/config"
	"github.com/hongminglow/casetrack-be/internal/middleware"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/storage/memory"
)

func testConfig() config.Config {
	return config.Config{
		Port:          "0",
		StorageDriver: config.DriverMemory,
		JWTSecret:     "secret",
		JWTIssuer:     "casetrack-test",
		JWTTTL:        time.Hour,
		CORSOrigins:   []string{"*"},
		Admin:         config.AdminBootstrap{Username: "root", Email: "root@example.com", Password: "root-password"},
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := testConfig()

	created, err := EnsureAdmin(ctx, store, cfg.Admin, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureAdmin(ctx, store, cfg.Admin, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, created)

	u, err := store.FindByUsernameOrEmail(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.AdminRole, u.Role)

	created, err = EnsureAdmin(ctx, store, config.AdminBootstrap{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestHandler_LoginThenListCases(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := testConfig()
	_, err := EnsureAdmin(ctx, store, cfg.Admin, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(Handler(cfg, store, zerolog.Nop(), time.Now))
	defer ts.Close()

	body, _ := json.Marshal(map[string]string{"identifier": "root", "password": "root-password"})
	resp, err := http.Post(ts.URL+"/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/cases", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.Token)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	req, _ = http.NewRequest(http.MethodOptions, ts.URL+"/cases", nil)
	req.Header.Set("Origin", "http://dashboard.test")
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp3.StatusCode)
	assert.Equal(t, "*", resp3.Header.Get("Access-Control-Allow-Origin"))
}
