// Package clients holds the transports the SDK consumes: the backend REST
// API, its websocket push channel, and the optional NATS event feed.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"

	"zkpay-sdk/config"
	"zkpay-sdk/metrics"
	"zkpay-sdk/models"
	"zkpay-sdk/types"
)

// BackendClient talks to the ZKPay backend REST API. The backend is the
// sole source of truth for entity state; the client never mutates status
// locally.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry

	authSecret  string
	authSubject string
	totpSecret  string
}

// NewBackendClient builds a client from config.
func NewBackendClient(cfg *config.Config, log *logrus.Logger) *BackendClient {
	return &BackendClient{
		baseURL:     cfg.Backend.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.BackendTimeout()},
		log:         log.WithField("component", "backend_client"),
		authSecret:  cfg.Backend.AuthSecret,
		authSubject: cfg.Backend.AuthSubject,
		totpSecret:  cfg.Backend.TOTPSecret,
	}
}

// bearerToken mints a short-lived JWT for the Authorization header.
func (c *BackendClient) bearerToken() (string, error) {
	if c.authSecret == "" {
		return "", nil
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": c.authSubject,
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.authSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign auth token: %w", err)
	}
	return signed, nil
}

// do sends one request and decodes the JSON response into out (if non-nil).
// privileged attaches a TOTP header for the admin retry endpoints.
func (c *BackendClient) do(ctx context.Context, method, path string, body, out interface{}, privileged bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, err := c.bearerToken()
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if privileged {
		if c.totpSecret == "" {
			return fmt.Errorf("privileged endpoint %s requires a TOTP secret", path)
		}
		code, err := totp.GenerateCode(c.totpSecret, time.Now())
		if err != nil {
			return fmt.Errorf("failed to generate TOTP code: %w", err)
		}
		req.Header.Set("X-TOTP-Code", code)
	}

	metrics.APIRequests.WithLabelValues(method, path).Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIErrors.WithLabelValues(method, path, "transport").Inc()
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		metrics.APIErrors.WithLabelValues(method, path, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		var apiErr types.APIError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend returned %d: %s %s", resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// GetCheckbook fetches one checkbook by ID.
func (c *BackendClient) GetCheckbook(ctx context.Context, id string) (*models.Checkbook, error) {
	var out models.Checkbook
	if err := c.do(ctx, http.MethodGet, "/api/checkbooks/id/"+id, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAllocation fetches one allocation by ID.
func (c *BackendClient) GetAllocation(ctx context.Context, id string) (*models.Allocation, error) {
	var out models.Allocation
	if err := c.do(ctx, http.MethodGet, "/api/allocations/"+id, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWithdrawRequest fetches one withdraw request by ID.
func (c *BackendClient) GetWithdrawRequest(ctx context.Context, id string) (*models.WithdrawRequest, error) {
	var out models.WithdrawRequest
	if err := c.do(ctx, http.MethodGet, "/api/withdraw-requests/"+id, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitCommitment submits a signed commitment payload. The backend creates
// the allocations and returns the updated checkbook.
func (c *BackendClient) SubmitCommitment(ctx context.Context, req *types.CommitmentSubmitRequest) (*models.Checkbook, error) {
	var out models.Checkbook
	if err := c.do(ctx, http.MethodPost, "/api/commitments/submit", req, &out, false); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"checkbook": out.ID,
		"status":    out.Status,
	}).Info("commitment submitted")
	return &out, nil
}

// SubmitWithdraw submits a signed withdraw payload and returns the created
// request.
func (c *BackendClient) SubmitWithdraw(ctx context.Context, req *types.WithdrawSubmitRequest) (*models.WithdrawRequest, error) {
	var out models.WithdrawRequest
	if err := c.do(ctx, http.MethodPost, "/api/withdraw-requests", req, &out, false); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"request": out.ID,
		"status":  out.Status,
	}).Info("withdraw submitted")
	return &out, nil
}

// RetryCheckbook asks the backend to rerun a failed commitment flow for a
// checkbook in proof_failed or submission_failed.
func (c *BackendClient) RetryCheckbook(ctx context.Context, checkbookID string) error {
	return c.do(ctx, http.MethodPost, "/api/retry/checkbook/"+checkbookID, nil, nil, true)
}

// RetryWithdraw reruns a failed on-chain execution (op "retry"), payout
// (op "retry-payout") or fallback transfer (op "retry-fallback"). The
// reconciler never calls these on its own; retries are always explicit.
func (c *BackendClient) RetryWithdraw(ctx context.Context, requestID, op string) error {
	switch op {
	case "retry", "retry-payout", "retry-fallback":
	default:
		return fmt.Errorf("unknown retry op %q", op)
	}
	body := types.RetryRequest{RequestID: requestID, Op: op}
	return c.do(ctx, http.MethodPost, "/api/retry/withdraw/"+requestID, body, nil, true)
}

// RetryExecute reruns the on-chain execution stage after submit_failed.
func (c *BackendClient) RetryExecute(ctx context.Context, requestID string) error {
	return c.RetryWithdraw(ctx, requestID, "retry")
}

// RetryPayout reruns the payout stage.
func (c *BackendClient) RetryPayout(ctx context.Context, requestID string) error {
	return c.RetryWithdraw(ctx, requestID, "retry-payout")
}

// RetryFallback reruns the fallback transfer stage.
func (c *BackendClient) RetryFallback(ctx context.Context, requestID string) error {
	return c.RetryWithdraw(ctx, requestID, "retry-fallback")
}

// Health checks backend liveness.
func (c *BackendClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, false)
}
