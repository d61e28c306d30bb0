package payment

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultBaseURL points at the Midtrans sandbox environment.
const DefaultBaseURL = "https://app.sandbox.midtrans.com"

const transactionsPath = "/snap/v1/transactions"

// TransactionDetails identifies one charge attempt. OrderID must be unique
// per attempt.
type TransactionDetails struct {
	OrderID     string  `json:"order_id"`
	GrossAmount float64 `json:"gross_amount"`
}

// CustomerDetails carries the buyer info shown in the payment widget.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

// ItemDetail is one line item attached to a transaction.
type ItemDetail struct {
	ID       string  `json:"id"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Name     string  `json:"name"`
}

// TransactionRequest is the body of a Snap transaction-creation call.
type TransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
}

// TransactionResponse is the gateway's reply. The token has shipped under
// two different field names, so both are decoded.
type TransactionResponse struct {
	Token         string   `json:"token"`
	SnapToken     string   `json:"snap_token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

// AnyToken returns the first non-empty token field, or "".
func (r *TransactionResponse) AnyToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.SnapToken
}

// SnapClient calls the Midtrans Snap API with the server-side key.
type SnapClient struct {
	serverKey string
	baseURL   string
	client    *http.Client
}

// NewSnapClient creates a new SnapClient. An empty baseURL selects the
// sandbox environment.
func NewSnapClient(serverKey, baseURL string) *SnapClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &SnapClient{
		serverKey: serverKey,
		baseURL:   baseURL,
		client:    &http.Client{},
	}
}

// CreateTransactionRaw posts the transaction-creation request and returns
// the gateway's status code and body untouched, for callers that relay the
// response verbatim.
func (c *SnapClient) CreateTransactionRaw(req TransactionRequest) (int, []byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal transaction request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+transactionsPath, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build transaction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	// Midtrans server-side auth: the server key as a basic-auth username
	// with an empty password.
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.serverKey+":")))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("transaction request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// CreateTransaction posts the transaction-creation request and extracts the
// Snap token from the reply.
func (c *SnapClient) CreateTransaction(req TransactionRequest) (string, error) {
	status, body, err := c.CreateTransactionRaw(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("gateway returned status %d: %s", status, body)
	}

	var parsed TransactionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	token := parsed.AnyToken()
	if token == "" {
		return "", fmt.Errorf("gateway response contained no snap token")
	}
	return token, nil
}
