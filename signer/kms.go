package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"zkpay-sdk/config"
	"zkpay-sdk/types"
)

// KMSSigner delegates signing to the KMS service over its HTTP contract.
// The private key never leaves the KMS.
type KMSSigner struct {
	baseURL    string
	authToken  string
	keyAlias   string
	addressHex string
	chainID    uint32
	httpClient *http.Client
	log        *logrus.Entry
}

// kmsSignRequest is the KMS signing request body.
type kmsSignRequest struct {
	KeyAlias string `json:"key_alias"`
	ChainID  int    `json:"chain_id"`
	Data     string `json:"data"` // message bytes, hex
}

// kmsSignResponse is the KMS signing response body.
type kmsSignResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewKMSSigner builds a signer for one KMS key alias. addressHex is the
// signer's universal address as reported by the KMS key registry.
func NewKMSSigner(cfg config.KMSConfig, addressHex string, slip44ChainID uint32, log *logrus.Logger) *KMSSigner {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &KMSSigner{
		baseURL:    cfg.BaseURL,
		authToken:  cfg.AuthToken,
		keyAlias:   cfg.KeyAlias,
		addressHex: addressHex,
		chainID:    slip44ChainID,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "kms_signer"),
	}
}

// SignMessage posts the message to the KMS and returns its signature. The
// KMS applies the personal-message prefix itself, so the raw message text is
// sent hex-encoded.
func (s *KMSSigner) SignMessage(ctx context.Context, message string) (types.MultichainSignatureRequest, error) {
	reqBody := kmsSignRequest{
		KeyAlias: s.keyAlias,
		ChainID:  int(s.chainID),
		Data:     "0x" + hex.EncodeToString([]byte(message)),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return types.MultichainSignatureRequest{}, fmt.Errorf("failed to marshal KMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/kms/sign", bytes.NewReader(payload))
	if err != nil {
		return types.MultichainSignatureRequest{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.MultichainSignatureRequest{}, fmt.Errorf("KMS request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.MultichainSignatureRequest{}, fmt.Errorf("failed to read KMS response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		s.log.WithField("status", resp.StatusCode).Error("KMS sign failed")
		return types.MultichainSignatureRequest{}, fmt.Errorf("KMS returned status %d: %s", resp.StatusCode, string(body))
	}

	var result kmsSignResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return types.MultichainSignatureRequest{}, fmt.Errorf("failed to unmarshal KMS response: %w", err)
	}
	if !result.Success {
		return types.MultichainSignatureRequest{}, fmt.Errorf("KMS sign rejected: %s", result.Error)
	}

	return types.MultichainSignatureRequest{
		ChainID:       s.chainID,
		SignatureData: result.Signature,
	}, nil
}

func (s *KMSSigner) Address() string { return s.addressHex }

func (s *KMSSigner) ChainID() uint32 { return s.chainID }
