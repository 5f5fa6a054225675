package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	fhevmCommon "github.com/fhevm-network/fhevm-sdk/common"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	url string
	hc  *http.Client
}

func NewClient(url ...string) (*Client, error) {
	if len(url) > 1 {
		panic("must supply at most one url")
	}
	gatewayUrl := fhevmCommon.DefaultGatewayUrl
	if len(url) > 0 {
		gatewayUrl = url[0]
	}
	if !strings.HasPrefix(gatewayUrl, "http://") && !strings.HasPrefix(gatewayUrl, "https://") {
		return nil, fmt.Errorf("invalid gateway url %s", gatewayUrl)
	}
	return &Client{
		url: strings.TrimRight(gatewayUrl, "/"),
		hc:  &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (c *Client) Url() string {
	return c.url
}

func (c *Client) GetPublicKey(ctx context.Context) (resp *PublicKeyResponse, err error) {
	resp = &PublicKeyResponse{}
	if err = c.do(ctx, http.MethodGet, PathKeys, nil, resp); err != nil {
		return nil, err
	}
	if resp.PublicKey == "" {
		return nil, fmt.Errorf("invalid resp, empty public key")
	}
	return
}

func (c *Client) StoreCiphertext(ctx context.Context, req *StoreCiphertextRequest) (resp *StoreCiphertextResponse, err error) {
	resp = &StoreCiphertextResponse{}
	if err = c.do(ctx, http.MethodPost, PathCiphertexts, req, resp); err != nil {
		return nil, err
	}
	return
}

func (c *Client) Reencrypt(ctx context.Context, req *ReencryptRequest) (resp *ReencryptResponse, err error) {
	resp = &ReencryptResponse{}
	if err = c.do(ctx, http.MethodPost, PathReencrypt, req, resp); err != nil {
		return nil, err
	}
	if resp.Sealed == "" {
		return nil, fmt.Errorf("invalid resp, empty sealed value")
	}
	return
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal err: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s err: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read gateway resp err: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		var e ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("invalid resp, status %d, err: %s", res.StatusCode, e.Error)
		}
		return fmt.Errorf("invalid resp, status %d", res.StatusCode)
	}
	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("json.Unmarshal err: %w", err)
	}
	return nil
}
