// Package billingprovider реализует HTTP-клиент платёжного провайдера:
// создание клиентов и сессий оплаты, чтение и отмена подписок.
package billingprovider

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client клиент API платёжного провайдера.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент провайдера.
func NewClient(apiKey, apiURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateCustomer регистрирует клиента у провайдера.
func (c *Client) CreateCustomer(reqParams CreateCustomerRequest) (*Customer, error) {
	req, err := c.newRequest("POST", "/customers", reqParams)
	if err != nil {
		return nil, err
	}
	var customer Customer
	if err := c.do(req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCheckoutSession создаёт сессию оплаты подписки.
func (c *Client) CreateCheckoutSession(reqParams CreateCheckoutSessionRequest) (*CheckoutSession, error) {
	req, err := c.newRequest("POST", "/checkout/sessions", reqParams)
	if err != nil {
		return nil, err
	}
	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSubscription возвращает подписку по идентификатору.
func (c *Client) GetSubscription(subscriptionID string) (*Subscription, error) {
	req, err := c.newRequest("GET", "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelAtPeriodEnd планирует отмену подписки в конце оплаченного периода.
// Локальное состояние учётной записи при этом не меняется: оно обновится,
// когда провайдер доставит событие удаления подписки.
func (c *Client) CancelAtPeriodEnd(subscriptionID string) (*Subscription, error) {
	req, err := c.newRequest("POST", "/subscriptions/"+subscriptionID, map[string]any{
		"cancel_at_period_end": true,
	})
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
