package provider

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// RPCProvider implements ContractProvider on top of a go-ethereum client.
// It is read-only unless a transaction sender is attached by the caller;
// the SDK itself never holds keys (see the signer package).
type RPCProvider struct {
	client  *ethclient.Client
	account common.Address
	log     *logrus.Entry

	// pollInterval bounds how often WaitForTransaction refetches a receipt.
	pollInterval time.Duration
}

// NewRPCProvider dials an RPC endpoint. account is the address reported by
// Address(); it may be the zero address for read-only use.
func NewRPCProvider(rpcURL string, account string, log *logrus.Logger) (*RPCProvider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}
	return &RPCProvider{
		client:       client,
		account:      common.HexToAddress(account),
		log:          log.WithField("component", "rpc_provider"),
		pollInterval: 3 * time.Second,
	}, nil
}

func (p *RPCProvider) ReadContract(ctx context.Context, contract string, callData []byte) ([]byte, error) {
	to := common.HexToAddress(contract)
	msg := ethereum.CallMsg{From: p.account, To: &to, Data: callData}
	out, err := p.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	return out, nil
}

// WriteContract is not supported by the bare RPC provider: transaction
// signing lives with the wallet or KMS, not the SDK. Deployments that need
// client-side submission wrap this provider with their own sender.
func (p *RPCProvider) WriteContract(_ context.Context, _ string, _ []byte, _ *big.Int) (string, error) {
	return "", fmt.Errorf("RPCProvider cannot sign transactions; attach a transaction sender")
}

func (p *RPCProvider) WaitForTransaction(ctx context.Context, txHash string) (*TxReceipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return &TxReceipt{
				TxHash:      txHash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				Success:     receipt.Status == types.ReceiptStatusSuccessful,
			}, nil
		}
		if err != ethereum.NotFound {
			p.log.WithError(err).Warn("receipt fetch failed, retrying")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for transaction %s: %w", txHash, ctx.Err())
		}
	}
}

func (p *RPCProvider) Address() string {
	return p.account.Hex()
}

func (p *RPCProvider) ChainID(ctx context.Context) (uint32, error) {
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch chain ID: %w", err)
	}
	return uint32(id.Uint64()), nil
}

// Close releases the underlying RPC connection.
func (p *RPCProvider) Close() {
	p.client.Close()
}
