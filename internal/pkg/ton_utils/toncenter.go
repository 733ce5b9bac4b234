package ton_utils

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/tonkeeper/tongo"

	"walletproof/internal/models"
	"walletproof/internal/pkg/proof"
)

const (
	ToncenterMainnetURL = "https://toncenter.com/api/v2"
	ToncenterTestnetURL = "https://testnet.toncenter.com/api/v2"
)

type runGetMethodResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result struct {
		Stack    [][]any `json:"stack"`
		ExitCode int     `json:"exit_code"`
	} `json:"result"`
}

// ToncenterFetcher runs the wallet get_public_key get-method through the
// toncenter v2 HTTP API. It never retries.
type ToncenterFetcher struct {
	client    *httpclient.Client
	endpoints map[models.TonNetwork]string
	apiKey    string
}

func NewToncenterFetcher(endpoints map[models.TonNetwork]string, apiKey string, timeout time.Duration) *ToncenterFetcher {
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetryCount(0),
	)
	return &ToncenterFetcher{client, endpoints, apiKey}
}

func (f *ToncenterFetcher) GetPublicKey(ctx context.Context, network models.TonNetwork, account tongo.AccountID) ([]byte, error) {
	base, ok := f.endpoints[network]
	if !ok || base == "" {
		return nil, fmt.Errorf("%w: no endpoint for network %s", proof.ErrKeyResolutionFailed, network)
	}

	q := url.Values{}
	q.Set("address", account.ToRaw())
	q.Set("method", "get_public_key")
	q.Set("stack", "[]")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/runGetMethod?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", proof.ErrKeyResolutionFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", proof.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: toncenter status %d", proof.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body runGetMethodResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode toncenter response: %v", proof.ErrKeyResolutionFailed, err)
	}
	if !body.OK {
		return nil, fmt.Errorf("%w: toncenter: %s", proof.ErrKeyResolutionFailed, body.Error)
	}
	if body.Result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: get_public_key exit code %d", proof.ErrKeyResolutionFailed, body.Result.ExitCode)
	}

	return publicKeyFromStack(body.Result.Stack)
}

func publicKeyFromStack(stack [][]any) ([]byte, error) {
	if len(stack) == 0 || len(stack[0]) != 2 {
		return nil, fmt.Errorf("%w: empty get_public_key stack", proof.ErrKeyResolutionFailed)
	}
	kind, _ := stack[0][0].(string)
	value, _ := stack[0][1].(string)
	if kind != "num" {
		return nil, fmt.Errorf("%w: unexpected stack entry %q", proof.ErrKeyResolutionFailed, kind)
	}

	n, ok := new(big.Int).SetString(strings.TrimPrefix(value, "0x"), 16)
	if !ok || n.Sign() < 0 || n.BitLen() > publicKeyBits {
		return nil, fmt.Errorf("%w: bad public key %q", proof.ErrKeyResolutionFailed, value)
	}
	return n.FillBytes(make([]byte, publicKeyBits/8)), nil
}
