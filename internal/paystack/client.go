package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ekunemmanuel/blog-saas/internal/config"
)

// ErrUnexpectedStatus провайдер ответил неуспешным HTTP-статусом.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client HTTP-клиент REST API Paystack. Авторизация Bearer-токеном,
// секрет передаётся при создании.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Paystack из настроек провайдера.
func NewClient(cfg config.Paystack) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		apiURL:     cfg.APIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// InitializeTransaction создаёт транзакцию и возвращает ссылку на оплату.
func (c *Client) InitializeTransaction(ctx context.Context, reqParams InitializeTransactionRequest) (*InitializeTransactionResponse, error) {
	const op = "paystack.InitializeTransaction"
	req, err := c.newRequest(ctx, http.MethodPost, "/transaction/initialize", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result InitializeTransactionResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// VerifyTransaction независимо подтверждает транзакцию по reference.
// Подпись вебхука доказывает отправителя, но не факт успешного платежа,
// поэтому суммы берутся только из этого ответа.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyTransactionResponse, error) {
	const op = "paystack.VerifyTransaction"
	req, err := c.newRequest(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result VerifyTransactionResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// DisableSubscription отключает подписку по её коду и email-токену.
func (c *Client) DisableSubscription(ctx context.Context, code, token string) (*DisableSubscriptionResponse, error) {
	const op = "paystack.DisableSubscription"
	req, err := c.newRequest(ctx, http.MethodPost, "/subscription/disable", map[string]string{
		"code":  code,
		"token": token,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result DisableSubscriptionResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
