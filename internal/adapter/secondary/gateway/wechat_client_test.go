package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *core.Order {
	return &core.Order{
		ID:               "ORD001",
		AmountMinorUnits: 100,
		Description:      "Widget",
		NotifyURL:        "https://merchant.example/wechatpay/callback",
		Status:           core.OrderStatusPending,
	}
}

func newClient(url string) *WechatClient {
	return NewWechatClient(Config{
		AppID:      "A1",
		MerchantID: "M1",
		APIKey:     testAPIKey,
		GatewayURL: url,
	})
}

func TestCreateOrderSuccess(t *testing.T) {
	var gotRequest map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotRequest, err = DecodeMap(body)
		require.NoError(t, err)

		response := map[string]string{
			"return_code": "SUCCESS",
			"return_msg":  "OK",
			"appid":       "A1",
			"mch_id":      "M1",
			"result_code": "SUCCESS",
			"prepay_id":   "wx20250901abc",
			"trade_type":  "NATIVE",
			"code_url":    "weixin://wxpay/bizpayurl?pr=xyz",
		}
		response["sign"] = SignMap(response, testAPIKey)
		w.Write(EncodeMap(response))
	}))
	defer srv.Close()

	handle, err := newClient(srv.URL).CreateOrder(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, "weixin://wxpay/bizpayurl?pr=xyz", handle.CodeURL)
	assert.Equal(t, "wx20250901abc", handle.PrepayID)

	// The request carries the order terms and a valid signature
	assert.Equal(t, "ORD001", gotRequest["out_trade_no"])
	assert.Equal(t, "100", gotRequest["total_fee"])
	assert.Equal(t, "Widget", gotRequest["body"])
	assert.Equal(t, "NATIVE", gotRequest["trade_type"])
	assert.Equal(t, "https://merchant.example/wechatpay/callback", gotRequest["notify_url"])
	assert.True(t, VerifySign(gotRequest, testAPIKey))
}

func TestCreateOrderCommunicationRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(EncodeMap(map[string]string{
			"return_code": "FAIL",
			"return_msg":  "appid not registered",
		}))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), testOrder())

	var gwErr *output.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, output.GatewayErrorRejected, gwErr.Kind)
	assert.Contains(t, gwErr.Msg, "appid not registered")
}

func TestCreateOrderBusinessRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"return_code":  "SUCCESS",
			"return_msg":   "OK",
			"appid":        "A1",
			"mch_id":       "M1",
			"result_code":  "FAIL",
			"err_code":     "ORDERPAID",
			"err_code_des": "order already paid",
		}
		response["sign"] = SignMap(response, testAPIKey)
		w.Write(EncodeMap(response))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), testOrder())

	var gwErr *output.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, output.GatewayErrorRejected, gwErr.Kind)
	assert.Equal(t, "ORDERPAID", gwErr.Code)
}

func TestCreateOrderMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("upstream gateway error"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), testOrder())

	var gwErr *output.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, output.GatewayErrorMalformed, gwErr.Kind)
}

func TestCreateOrderBadResponseSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"return_code": "SUCCESS",
			"return_msg":  "OK",
			"result_code": "SUCCESS",
			"code_url":    "weixin://wxpay/bizpayurl?pr=forged",
			"sign":        "DEADBEEF",
		}
		w.Write(EncodeMap(response))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), testOrder())

	var gwErr *output.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, output.GatewayErrorMalformed, gwErr.Kind)
}

func TestCreateOrderNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(srv.URL).CreateOrder(context.Background(), testOrder())

	var gwErr *output.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, output.GatewayErrorNetwork, gwErr.Kind)
}
