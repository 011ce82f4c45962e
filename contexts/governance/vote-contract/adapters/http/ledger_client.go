package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gavel/contexts/governance/vote-contract/domain/entities"
	"gavel/contexts/governance/vote-contract/ports"
)

// LedgerClient queries the token contract service for account balances.
// Callers treat any error as zero voting power, so a slow or unreachable
// ledger degrades votes instead of failing them with an opaque error.
type LedgerClient struct {
	baseURL string
	client  *http.Client
}

func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type ledgerBalanceResponse struct {
	Balance uint64 `json:"balance"`
}

func (c *LedgerClient) BalanceOf(ctx context.Context, key entities.PublicKey) (uint64, error) {
	url := fmt.Sprintf("%s/accounts/%s", c.baseURL, key.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build ledger request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query ledger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	var body ledgerBalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode ledger response: %w", err)
	}
	return body.Balance, nil
}

var _ ports.BalanceOracle = (*LedgerClient)(nil)
