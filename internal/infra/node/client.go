// Package node reads the latest block from a CometBFT-style node API.
package node

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/sigwatch/internal/core/domain"
	"github.com/vietddude/sigwatch/internal/monitoring/metrics"
)

const maxBodySize = 8 << 20

// Client fetches the latest block from the node's local API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a node client. timeout bounds every request.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type blockResponse struct {
	Result *struct {
		Block *struct {
			Header *struct {
				Height json.Number `json:"height"`
				Time   string      `json:"time"`
			} `json:"header"`
			LastCommit *struct {
				Signatures []signature `json:"signatures"`
			} `json:"last_commit"`
		} `json:"block"`
	} `json:"result"`
}

type signature struct {
	ValidatorAddress      string `json:"validator_address"`
	ValidatorAddressCamel string `json:"validatorAddress"`
}

func (s signature) address() string {
	if s.ValidatorAddress != "" {
		return s.ValidatorAddress
	}
	return s.ValidatorAddressCamel
}

// FetchLatestBlock requests the latest block. Network failures, non-200
// responses and undecodable bodies are returned as fetch errors. Missing
// fields are left zero for the evaluator to reject.
func (c *Client) FetchLatestBlock(ctx context.Context) (*domain.BlockSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.FetchLatency.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindFetch, "create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindFetch, "fetch latest block", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, domain.NewError(domain.KindFetch, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Errorf(domain.KindFetch, "fetch latest block",
			"local API is down: http %d: %s", resp.StatusCode, string(body))
	}

	var br blockResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, domain.NewError(domain.KindFetch, "parse response", err)
	}

	return toSnapshot(&br)
}

func toSnapshot(br *blockResponse) (*domain.BlockSnapshot, error) {
	if br.Result == nil || br.Result.Block == nil {
		return &domain.BlockSnapshot{}, nil
	}
	block := br.Result.Block

	var (
		height    int64
		blockTime time.Time
	)
	if block.Header != nil {
		if block.Header.Height != "" {
			h, err := block.Header.Height.Int64()
			if err != nil {
				return nil, domain.NewError(domain.KindFetch, "parse block height", err)
			}
			height = h
		}
		if block.Header.Time != "" {
			t, err := time.Parse(time.RFC3339Nano, block.Header.Time)
			if err != nil {
				return nil, domain.NewError(domain.KindFetch, "parse block time", err)
			}
			blockTime = t
		}
	}

	var signers []string
	if block.LastCommit != nil && block.LastCommit.Signatures != nil {
		signers = make([]string, 0, len(block.LastCommit.Signatures))
		for _, sig := range block.LastCommit.Signatures {
			if addr := sig.address(); addr != "" {
				signers = append(signers, addr)
			}
		}
	}

	return domain.NewBlockSnapshot(height, blockTime, signers), nil
}
