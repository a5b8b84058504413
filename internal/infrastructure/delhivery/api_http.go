package delhivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetPincode fetches serviceability for a pincode.
// GET /c/api/pin-codes/json/?filter_codes={pin}
func (c *HTTPAPIClient) GetPincode(ctx context.Context, pincode string) (*PincodeResponse, error) {
	q := url.Values{"filter_codes": {pincode}}

	var result PincodeResponse
	if err := c.getJSON(ctx, "/c/api/pin-codes/json/", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCharges fetches the shipping charge.
// GET /api/kinko/v1/invoice/charges/.json
func (c *HTTPAPIClient) GetCharges(ctx context.Context, req *ChargesRequest) ([]Charge, error) {
	q := url.Values{
		"md":    {req.Mode},
		"ss":    {req.Status},
		"o_pin": {req.OriginPin},
		"d_pin": {req.DestPin},
		"cgm":   {strconv.FormatFloat(req.WeightGrams, 'f', -1, 64)},
		"pt":    {req.PaymentType},
	}
	if req.CODAmount > 0 {
		q.Set("cod", strconv.FormatFloat(req.CODAmount, 'f', 2, 64))
	}

	var result []Charge
	if err := c.getJSON(ctx, "/api/kinko/v1/invoice/charges/.json", q, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetExpectedTAT fetches the expected transit time.
// GET /api/dc/expected_tat
func (c *HTTPAPIClient) GetExpectedTAT(ctx context.Context, req *TATRequest) (*TATResponse, error) {
	q := url.Values{
		"origin_pin":           {req.OriginPin},
		"destination_pin":      {req.DestPin},
		"mot":                  {req.Mode},
		"pdt":                  {"B2C"},
		"expected_pickup_date": {req.PickupDate},
	}

	var result TATResponse
	if err := c.getJSON(ctx, "/api/dc/expected_tat", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateShipment books a shipment.
// POST /api/cmu/create.json with form body format=json&data={json}.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}
	form := url.Values{"format": {"json"}, "data": {string(payload)}}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/cmu/create.json", nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result CreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	return &result, nil
}

// TrackShipment fetches tracking for a waybill.
// GET /api/v1/packages/json/?waybill={awb}
func (c *HTTPAPIClient) TrackShipment(ctx context.Context, awb string) (*TrackResponse, error) {
	q := url.Values{"waybill": {awb}}

	var result TrackResponse
	if err := c.getJSON(ctx, "/api/v1/packages/json/", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreatePickup raises a pickup request.
// POST /fm/request/new/
func (c *HTTPAPIClient) CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/fm/request/new/", nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pickup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if isDuplicatePickup(raw) {
			return &PickupResponse{PickupDate: req.PickupDate, AlreadyExists: true}, nil
		}
		return nil, errorFromBody(resp.StatusCode, raw)
	}

	var result PickupResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode pickup response: %w", err)
	}
	return &result, nil
}

// PackingSlip fetches the shipping label.
// GET /api/p/packing_slip?wbns={awb}&pdf=true&pdf_size={size}
func (c *HTTPAPIClient) PackingSlip(ctx context.Context, awb, pdfSize string) (*DocumentResponse, error) {
	q := url.Values{"wbns": {awb}, "pdf": {"true"}}
	if pdfSize != "" {
		q.Set("pdf_size", pdfSize)
	}

	var result DocumentResponse
	if err := c.getJSON(ctx, "/api/p/packing_slip", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Invoice fetches the tax invoice.
// GET /api/p/invoice?wbns={awb}&pdf=true
func (c *HTTPAPIClient) Invoice(ctx context.Context, awb string) (*DocumentResponse, error) {
	q := url.Values{"wbns": {awb}, "pdf": {"true"}}

	var result DocumentResponse
	if err := c.getJSON(ctx, "/api/p/invoice", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EditShipment updates or cancels a booked shipment.
// POST /api/p/edit
func (c *HTTPAPIClient) EditShipment(ctx context.Context, req EditRequest) (*EditResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edit request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/p/edit", nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result EditResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode edit response: %w", err)
	}
	return &result, nil
}

// Download fetches raw bytes from a document URL. Absolute URLs (signed S3
// links) are fetched without the API token.
func (c *HTTPAPIClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if strings.HasPrefix(rawURL, c.baseURL) {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPAPIClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// doRequest performs an HTTP request with the token header.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("User-Agent", "giftkart-shipping-admin/1.0")

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return errorFromBody(resp.StatusCode, body)
}

func errorFromBody(status int, body []byte) error {
	var simpleErr struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Remark  string `json:"rmk"`
	}
	if err := json.Unmarshal(body, &simpleErr); err == nil {
		msg := simpleErr.Message
		if msg == "" {
			msg = simpleErr.Detail
		}
		if msg == "" {
			msg = simpleErr.Remark
		}
		if msg == "" {
			switch v := simpleErr.Error.(type) {
			case string:
				msg = v
			case map[string]any:
				if m, ok := v["message"].(string); ok {
					msg = m
				}
			}
		}
		if msg != "" {
			return &APIError{StatusCode: status, Message: msg}
		}
	}

	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// isDuplicatePickup recognises the courier's "pickup already exists" reply.
func isDuplicatePickup(body []byte) bool {
	var probe struct {
		PrExist bool `json:"pr_exist"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.PrExist {
		return true
	}
	return strings.Contains(strings.ToLower(string(body)), "already exist")
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
