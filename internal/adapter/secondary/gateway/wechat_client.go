package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
)

const (
	tradeTypeNative = "NATIVE"
	successValue    = "SUCCESS"
)

// Config holds the merchant credentials and endpoint for the WeChat Pay
// v2 unified-order API
type Config struct {
	AppID      string
	MerchantID string
	APIKey     string
	// GatewayURL is the unifiedorder endpoint
	GatewayURL string
	// ClientIP fills spbill_create_ip; defaults to 127.0.0.1
	ClientIP string
	// HTTPClient overrides the default 10s-timeout client
	HTTPClient *http.Client
}

// WechatClient is a secondary adapter that implements the GatewayClient
// output port against the WeChat Pay v2 unified-order protocol
type WechatClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewWechatClient creates a new WeChat Pay gateway client
func NewWechatClient(cfg Config) *WechatClient {
	if cfg.ClientIP == "" {
		cfg.ClientIP = "127.0.0.1"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WechatClient{cfg: cfg, httpClient: httpClient}
}

// CreateOrder sends a unified-order request and returns the correlation
// handle, or a *output.GatewayError. No local retry.
func (c *WechatClient) CreateOrder(ctx context.Context, order *core.Order) (*output.OrderHandle, error) {
	params := map[string]string{
		"appid":            c.cfg.AppID,
		"mch_id":           c.cfg.MerchantID,
		"nonce_str":        nonce(),
		"body":             order.Description,
		"out_trade_no":     order.ID,
		"total_fee":        strconv.FormatInt(order.AmountMinorUnits, 10),
		"spbill_create_ip": c.cfg.ClientIP,
		"notify_url":       order.NotifyURL,
		"trade_type":       tradeTypeNative,
	}
	params[signField] = SignMap(params, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(EncodeMap(params)))
	if err != nil {
		return nil, &output.GatewayError{Kind: output.GatewayErrorNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &output.GatewayError{Kind: output.GatewayErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &output.GatewayError{Kind: output.GatewayErrorNetwork, Err: err}
	}

	fields, err := DecodeMap(body)
	if err != nil {
		return nil, &output.GatewayError{Kind: output.GatewayErrorMalformed, Err: err}
	}

	// Communication-level failures carry only return_code/return_msg
	// and are unsigned.
	if !strings.EqualFold(fields["return_code"], successValue) {
		return nil, &output.GatewayError{
			Kind: output.GatewayErrorRejected,
			Msg:  fields["return_msg"],
		}
	}
	if !VerifySign(fields, c.cfg.APIKey) {
		return nil, &output.GatewayError{
			Kind: output.GatewayErrorMalformed,
			Msg:  "response signature mismatch",
		}
	}
	if !strings.EqualFold(fields["result_code"], successValue) {
		return nil, &output.GatewayError{
			Kind: output.GatewayErrorRejected,
			Code: fields["err_code"],
			Msg:  fields["err_code_des"],
		}
	}

	return &output.OrderHandle{
		CodeURL:  fields["code_url"],
		PrepayID: fields["prepay_id"],
	}, nil
}

// nonce returns a 32-char request nonce
func nonce() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
