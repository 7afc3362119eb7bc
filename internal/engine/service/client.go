package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	"github.com/smallbiznis/promosync/internal/config"
	enginedomain "github.com/smallbiznis/promosync/internal/engine/domain"
	"github.com/smallbiznis/promosync/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Client struct {
	http    *http.Client
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

type ClientParam struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewClient(p ClientParam) enginedomain.Evaluator {
	return &Client{
		http: &http.Client{
			Timeout: time.Duration(p.Cfg.EngineTimeoutSec) * time.Second,
		},
		cfg:     p.Cfg,
		log:     p.Log.Named("engine.client"),
		metrics: p.Metrics,
	}
}

// Evaluate PUTs the cart snapshot to the engine session endpoint. When the
// engine answers 400 with the configured stale-session message, the cart is
// rebound to a fresh session identifier and the snapshot re-sent exactly
// once. The mutated cart.SessionID is persisted by the caller.
func (c *Client) Evaluate(ctx context.Context, cart *cartdomain.Cart, state string) (*enginedomain.EvaluateResponse, *enginedomain.Snapshot, error) {
	c.ensureIdentity(cart)
	snapshot := BuildSnapshot(c.cfg, cart, state)

	resp, err := c.send(ctx, cart.SessionID, snapshot)
	if err == nil {
		return resp, snapshot, nil
	}

	var engineErr *enginedomain.Error
	if !errors.As(err, &engineErr) ||
		engineErr.StatusCode != http.StatusBadRequest ||
		!strings.Contains(engineErr.Message, c.cfg.EngineStaleSessionMsg) {
		return nil, nil, err
	}

	c.metrics.StaleSessionRetries.Inc()
	previous := cart.SessionID
	cart.SessionID = ulid.Make().String()
	c.log.Info("engine session stale, retrying under new session",
		zap.Int64("cart_id", int64(cart.ID)),
		zap.String("previous_session_id", previous),
		zap.String("session_id", cart.SessionID),
	)

	resp, err = c.send(ctx, cart.SessionID, snapshot)
	if err != nil {
		return nil, nil, err
	}
	return resp, snapshot, nil
}

// ensureIdentity assigns the engine session and profile identifiers when the
// cart has none yet.
func (c *Client) ensureIdentity(cart *cartdomain.Cart) {
	if cart.SessionID == "" {
		cart.SessionID = ulid.Make().String()
	}
	if cart.ProfileID == "" {
		cart.ProfileID = c.cfg.ProfileIDPrefix + cart.ID.String()
	}
}

func (c *Client) send(ctx context.Context, sessionID string, snapshot *enginedomain.Snapshot) (*enginedomain.EvaluateResponse, error) {
	body, err := json.Marshal(enginedomain.EvaluateRequest{
		CustomerSession: snapshot.Session,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v2/customer_sessions/%s", c.cfg.EngineBaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.EngineAPIKeyPrefix+" "+c.cfg.EngineAPIKey)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &enginedomain.Error{
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	var resp enginedomain.EvaluateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("engine: decode response: %w", err)
	}
	return &resp, nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}

