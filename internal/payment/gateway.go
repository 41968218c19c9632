// Package payment talks to the hosted payment gateway. The provider's wire
// format is a pinned contract:
//
// Outbound token request (form-encoded POST):
//
//	paytr_token = base64(HMAC-SHA256(merchant_key,
//	    merchant_id + user_ip + merchant_oid + email + payment_amount +
//	    user_basket + no_installment + max_installment + currency + test_mode +
//	    merchant_salt))
//
// where payment_amount is an integer amount in minor currency units and
// user_basket is base64 JSON [[name, unit-price-minor-units-as-string,
// quantity-as-string], ...]. Field order is bit-for-bit significant; the
// gateway silently rejects any deviation.
//
// Inbound callback verification:
//
//	hash = base64(HMAC-SHA256(merchant_key,
//	    merchant_oid + merchant_salt + status + total_amount))
//
// The gateway retries the callback until it receives the literal body "OK".
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"klimapart/internal/config"

	"go.uber.org/zap"
)

var (
	// ErrMissingCredentials indicates a deployment defect: the merchant
	// credentials are not configured. Never retried, never defaulted.
	ErrMissingCredentials = errors.New("payment gateway credentials not configured")

	// ErrGatewayRejected indicates the gateway answered with a non-success
	// status.
	ErrGatewayRejected = errors.New("payment gateway rejected token request")

	// ErrGatewayUnavailable indicates the gateway could not be reached or
	// answered with something unparseable.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// BasketItem is one line of the basket description shown on the hosted
// payment page.
type BasketItem struct {
	Name           string
	UnitPriceMinor int64
	Quantity       int
}

// TokenRequest carries everything the gateway needs to open a payment
// session for one order.
type TokenRequest struct {
	MerchantOID string
	UserIP      string
	Email       string
	AmountMinor int64
	Basket      []BasketItem
	UserName    string
	UserAddress string
	UserPhone   string
	Currency    string
}

// Gateway is the capability interface the checkout flow depends on. A
// different concrete provider can be substituted behind it, but the hash and
// field-order rules above belong to whichever provider is wired in.
type Gateway interface {
	IssueToken(ctx context.Context, req TokenRequest) (string, error)
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	cfg    config.PaymentConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a gateway client
func NewClient(cfg config.PaymentConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// IssueToken submits the signed token request and returns the opaque token
// the storefront uses to render the hosted payment form.
func (c *Client) IssueToken(ctx context.Context, req TokenRequest) (string, error) {
	if c.cfg.MerchantID == "" || c.cfg.MerchantKey == "" || c.cfg.MerchantSalt == "" {
		return "", ErrMissingCredentials
	}

	basket := EncodeBasket(req.Basket)
	amount := strconv.FormatInt(req.AmountMinor, 10)
	testMode := "0"
	if c.cfg.TestMode {
		testMode = "1"
	}

	// Installments are not offered.
	const noInstallment, maxInstallment = "1", "0"

	token := c.requestToken(req.MerchantOID, req.UserIP, req.Email, amount, basket, noInstallment, maxInstallment, req.Currency, testMode)

	form := url.Values{}
	form.Set("merchant_id", c.cfg.MerchantID)
	form.Set("user_ip", req.UserIP)
	form.Set("merchant_oid", req.MerchantOID)
	form.Set("email", req.Email)
	form.Set("payment_amount", amount)
	form.Set("paytr_token", token)
	form.Set("user_basket", basket)
	form.Set("no_installment", noInstallment)
	form.Set("max_installment", maxInstallment)
	form.Set("user_name", req.UserName)
	form.Set("user_address", req.UserAddress)
	form.Set("user_phone", req.UserPhone)
	form.Set("merchant_ok_url", c.cfg.OKURL)
	form.Set("merchant_fail_url", c.cfg.FailURL)
	form.Set("currency", req.Currency)
	form.Set("test_mode", testMode)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("Gateway unreachable", zap.Error(err), zap.String("merchant_oid", req.MerchantOID))
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Error("Gateway response not parseable", zap.Error(err), zap.String("merchant_oid", req.MerchantOID))
		return "", fmt.Errorf("%w: malformed response: %v", ErrGatewayUnavailable, err)
	}

	if parsed.Status != "success" {
		c.logger.Warn("Gateway rejected token request",
			zap.String("merchant_oid", req.MerchantOID),
			zap.String("reason", parsed.Reason),
		)
		return "", fmt.Errorf("%w: %s", ErrGatewayRejected, parsed.Reason)
	}

	return parsed.Token, nil
}

// requestToken computes the outbound request signature. The concatenation
// order is the provider's documented formula.
func (c *Client) requestToken(merchantOID, userIP, email, amount, basket, noInstallment, maxInstallment, currency, testMode string) string {
	message := c.cfg.MerchantID + userIP + merchantOID + email + amount + basket +
		noInstallment + maxInstallment + currency + testMode + c.cfg.MerchantSalt
	return signHMAC(c.cfg.MerchantKey, message)
}

// CallbackHash computes the expected signature of an inbound payment
// notification.
func CallbackHash(merchantKey, merchantSalt, merchantOID, status, totalAmount string) string {
	return signHMAC(merchantKey, merchantOID+merchantSalt+status+totalAmount)
}

// VerifyCallback recomputes the callback signature and compares it in
// constant time against the one the gateway sent.
func VerifyCallback(merchantKey, merchantSalt, merchantOID, status, totalAmount, receivedHash string) bool {
	expected := CallbackHash(merchantKey, merchantSalt, merchantOID, status, totalAmount)
	return hmac.Equal([]byte(expected), []byte(receivedHash))
}

// EncodeBasket renders basket lines as the gateway's base64 JSON array of
// [name, unit-price-minor-units-as-string, quantity-as-string] triples.
func EncodeBasket(items []BasketItem) string {
	lines := make([][3]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, [3]string{
			item.Name,
			strconv.FormatInt(item.UnitPriceMinor, 10),
			strconv.Itoa(item.Quantity),
		})
	}

	raw, _ := json.Marshal(lines)
	return base64.StdEncoding.EncodeToString(raw)
}

func signHMAC(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
