// Package backendtest is an in-process fake of the ZKPay backend API for
// integration tests. It serves the routes the SDK uses and advances entity
// state the way the real backend does, so waits and submission flows can be
// exercised against real HTTP.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"zkpay-sdk/models"
	"zkpay-sdk/types"
)

// Server wraps an httptest.Server with mutable fixture state.
type Server struct {
	mu sync.Mutex

	checkbooks  map[string]*models.Checkbook
	allocations map[string]*models.Allocation
	withdrawals map[string]*models.WithdrawRequest

	// Scripted status sequences consumed one per GET, keyed by entity ID.
	// When a sequence runs out, status stays at its final value.
	checkbookScript map[string][]models.CheckbookStatus
	withdrawScript  map[string][]models.WithdrawRequestStatus

	lastCommitment *types.CommitmentSubmitRequest
	lastWithdraw   *types.WithdrawSubmitRequest

	authSecret string
	totpCheck  func(code string) bool

	httpServer *httptest.Server
}

// Option customizes the fake server.
type Option func(*Server)

// WithAuthSecret makes the server verify the Authorization bearer token.
func WithAuthSecret(secret string) Option {
	return func(s *Server) { s.authSecret = secret }
}

// WithTOTPCheck makes the retry endpoints verify the X-TOTP-Code header.
func WithTOTPCheck(check func(code string) bool) Option {
	return func(s *Server) { s.totpCheck = check }
}

// New starts a fake backend.
func New(opts ...Option) *Server {
	s := &Server{
		checkbooks:      make(map[string]*models.Checkbook),
		allocations:     make(map[string]*models.Allocation),
		withdrawals:     make(map[string]*models.WithdrawRequest),
		checkbookScript: make(map[string][]models.CheckbookStatus),
		withdrawScript:  make(map[string][]models.WithdrawRequestStatus),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api")
	if s.authSecret != "" {
		api.Use(s.requireAuth())
	}
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		checkbooks := api.Group("/checkbooks")
		{
			checkbooks.GET("/id/:id", s.getCheckbook)
		}

		allocations := api.Group("/allocations")
		{
			allocations.GET("/:id", s.getAllocation)
		}

		commitments := api.Group("/commitments")
		{
			commitments.POST("/submit", s.submitCommitment)
		}

		withdrawRequests := api.Group("/withdraw-requests")
		{
			withdrawRequests.POST("", s.submitWithdraw)
			withdrawRequests.GET("/:id", s.getWithdrawRequest)
		}

		retry := api.Group("/retry")
		retry.Use(s.requireTOTP())
		{
			retry.POST("/checkbook/:id", s.retryCheckbook)
			retry.POST("/withdraw/:id", s.retryWithdraw)
		}
	}

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL returns the base URL for client config.
func (s *Server) URL() string { return s.httpServer.URL }

// Close shuts the server down.
func (s *Server) Close() { s.httpServer.Close() }

// AddCheckbook seeds a checkbook fixture.
func (s *Server) AddCheckbook(cb *models.Checkbook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkbooks[cb.ID] = cb
}

// AddAllocation seeds an allocation fixture.
func (s *Server) AddAllocation(a *models.Allocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations[a.ID] = a
}

// AddWithdrawRequest seeds a withdraw request fixture.
func (s *Server) AddWithdrawRequest(w *models.WithdrawRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals[w.ID] = w
}

// ScriptCheckbookStatuses makes successive GETs walk through statuses.
func (s *Server) ScriptCheckbookStatuses(id string, statuses ...models.CheckbookStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkbookScript[id] = statuses
}

// ScriptWithdrawStatuses makes successive GETs walk through statuses.
func (s *Server) ScriptWithdrawStatuses(id string, statuses ...models.WithdrawRequestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawScript[id] = statuses
}

// LastCommitment returns the most recently submitted commitment payload.
func (s *Server) LastCommitment() *types.CommitmentSubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCommitment
}

// LastWithdraw returns the most recently submitted withdraw payload.
func (s *Server) LastWithdraw() *types.WithdrawSubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWithdraw
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.APIError{Error: "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.authSecret), nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.APIError{Error: "invalid token", Message: err.Error()})
			return
		}
		c.Next()
	}
}

func (s *Server) requireTOTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.totpCheck == nil {
			c.Next()
			return
		}
		if !s.totpCheck(c.GetHeader("X-TOTP-Code")) {
			c.AbortWithStatusJSON(http.StatusForbidden, types.APIError{Error: "invalid totp code"})
			return
		}
		c.Next()
	}
}

func (s *Server) getCheckbook(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.checkbooks[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, types.APIError{Error: "checkbook not found"})
		return
	}
	if script := s.checkbookScript[cb.ID]; len(script) > 0 {
		cb.Status = script[0]
		if len(script) > 1 {
			s.checkbookScript[cb.ID] = script[1:]
		}
	}
	c.JSON(http.StatusOK, cb)
}

func (s *Server) getAllocation(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.allocations[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, types.APIError{Error: "allocation not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) getWithdrawRequest(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, types.APIError{Error: "withdraw request not found"})
		return
	}
	if script := s.withdrawScript[w.ID]; len(script) > 0 {
		w.Status = script[0]
		if len(script) > 1 {
			s.withdrawScript[w.ID] = script[1:]
		}
	}
	c.JSON(http.StatusOK, w)
}

func (s *Server) submitCommitment(c *gin.Context) {
	var req types.CommitmentSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: "invalid request", Message: err.Error()})
		return
	}
	if len(req.Allocations) == 0 {
		c.JSON(http.StatusBadRequest, types.APIError{Error: "no allocations"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCommitment = &req

	// Find the checkbook matching the deposit ID; the real backend keys on
	// (chain, local deposit id), the fake matches the decimal string.
	for _, cb := range s.checkbooks {
		if fmt.Sprintf("%d", cb.LocalDepositID) == req.DepositID {
			cb.Status = models.CheckbookStatusGeneratingProof
			c.JSON(http.StatusOK, cb)
			return
		}
	}
	c.JSON(http.StatusNotFound, types.APIError{Error: "checkbook not found for deposit"})
}

func (s *Server) submitWithdraw(c *gin.Context) {
	var req types.WithdrawSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: "invalid request", Message: err.Error()})
		return
	}
	if len(req.Allocations) == 0 {
		c.JSON(http.StatusBadRequest, types.APIError{Error: "no allocations"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWithdraw = &req

	w := &models.WithdrawRequest{
		ID:            uuid.NewString(),
		AllocationIDs: req.Allocations,
		Status:        models.WithdrawStatusCreated,
		ProofStatus:   models.ProofStatusPending,
		ExecuteStatus: models.ExecuteStatusPending,
	}
	s.withdrawals[w.ID] = w
	for _, id := range req.Allocations {
		if a, ok := s.allocations[id]; ok {
			a.Status = models.AllocationStatusUsed
			a.WithdrawRequestID = &w.ID
		}
	}
	c.JSON(http.StatusCreated, w)
}

func (s *Server) retryCheckbook(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.checkbooks[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, types.APIError{Error: "checkbook not found"})
		return
	}
	if !cb.Status.IsRetryable() {
		c.JSON(http.StatusConflict, types.APIError{
			Error:   "checkbook not retryable",
			Message: string(cb.Status),
		})
		return
	}
	cb.Status = models.CheckbookStatusGeneratingProof
	c.JSON(http.StatusOK, gin.H{"status": "retrying"})
}

func (s *Server) retryWithdraw(c *gin.Context) {
	var req types.RetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: "invalid request", Message: err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, types.APIError{Error: "withdraw request not found"})
		return
	}
	if !w.CanRetryExecute() {
		c.JSON(http.StatusConflict, types.APIError{
			Error:   "withdraw not retryable",
			Message: string(w.ExecuteStatus),
		})
		return
	}
	w.Status = models.WithdrawStatusSubmitting
	w.ExecuteStatus = models.ExecuteStatusPending
	c.JSON(http.StatusOK, gin.H{"status": "retrying"})
}
