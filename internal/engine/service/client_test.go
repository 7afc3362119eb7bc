package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	"github.com/smallbiznis/promosync/internal/config"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
	"github.com/smallbiznis/promosync/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const staleMsg = "customer session is closed"

func newTestClient(t *testing.T, baseURL string) enginedomain.Evaluator {
	t.Helper()
	return NewClient(ClientParam{
		Cfg: config.Config{
			EngineBaseURL:         baseURL,
			EngineAPIKey:          "secret",
			EngineAPIKeyPrefix:    "ApiKey-v1",
			EngineTimeoutSec:      5,
			EngineStaleSessionMsg: staleMsg,
			SiteID:                "storefront",
			ProfileIDPrefix:       "promosync_",
			ReferralEnabled:       true,
		},
		Log:     zap.NewNop(),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})
}

func testCart() *cartdomain.Cart {
	return &cartdomain.Cart{
		ID:           snowflake.ID(200),
		CurrencyCode: "USD",
		LineItems: []cartdomain.LineItem{
			{ID: 1, Position: 1, SKU: "sku-a", Name: "Alpha", Quantity: 1, UnitPrice: 1000},
		},
	}
}

func TestEvaluateSuccess(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	var gotBody enginedomain.EvaluateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"effects": []map[string]any{
				{"campaignId": 10, "rulesetId": 5, "effectType": "setDiscount", "props": map[string]any{"value": 3.5}},
			},
		})
	}))
	defer srv.Close()

	cart := testCart()
	resp, snap, err := newTestClient(t, srv.URL).Evaluate(context.Background(), cart, "open")
	require.NoError(t, err)

	assert.Equal(t, "ApiKey-v1 secret", gotAuth)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.NotEmpty(t, cart.SessionID)
	assert.Equal(t, "/v2/customer_sessions/"+cart.SessionID, gotPath)
	assert.Equal(t, "promosync_200", cart.ProfileID)
	assert.Equal(t, "promosync_200", gotBody.CustomerSession.ProfileID)

	require.Len(t, resp.Effects, 1)
	assert.Equal(t, int64(10), resp.Effects[0].CampaignID)
	assert.Equal(t, 3.5, resp.Effects[0].Props.Value)

	require.NotNil(t, snap)
	assert.Equal(t, snowflake.ID(1), snap.Positions[0])
}

func TestEvaluateStaleSessionRetriesOnce(t *testing.T) {
	var sessions []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimPrefix(r.URL.Path, "/v2/customer_sessions/")
		sessions = append(sessions, sid)
		if len(sessions) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": staleMsg})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"effects": []any{}})
	}))
	defer srv.Close()

	cart := testCart()
	cart.SessionID = "stale-session"

	resp, _, err := newTestClient(t, srv.URL).Evaluate(context.Background(), cart, "open")
	require.NoError(t, err)
	assert.NotNil(t, resp)

	require.Len(t, sessions, 2)
	assert.Equal(t, "stale-session", sessions[0])
	assert.NotEqual(t, "stale-session", sessions[1])
	assert.Equal(t, sessions[1], cart.SessionID)
}

func TestEvaluateStaleSessionFailsAfterOneRetry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": staleMsg})
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).Evaluate(context.Background(), testCart(), "open")
	require.Error(t, err)
	assert.Equal(t, 2, requests)

	var engineErr *enginedomain.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, http.StatusBadRequest, engineErr.StatusCode)
}

func TestEvaluateNonStaleErrorNoRetry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid api key"})
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).Evaluate(context.Background(), testCart(), "open")
	require.Error(t, err)
	assert.Equal(t, 1, requests)

	var engineErr *enginedomain.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, http.StatusUnauthorized, engineErr.StatusCode)
	assert.Equal(t, "invalid api key", engineErr.Message)
}
