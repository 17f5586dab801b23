// Package client is a Go client for the ekaya-procure HTTP API. It accepts
// both the {success, data, error} envelope and the older bare responses
// ({"rfp": ...} or {"error": "..."}).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// DefaultTimeout is the maximum time to wait for an API response. Extraction
// calls a language model, so it is generous.
const DefaultTimeout = 90 * time.Second

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// Client provides access to the ekaya-procure API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the API served at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.Named("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the response wrapper. Success is a pointer so that a bare
// legacy body, which has no "success" key, can be told apart.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// do sends body as JSON and decodes the response payload into out. It
// returns the response message, if any.
func (c *Client) do(ctx context.Context, method string, body, out any, pathSegments ...string) (string, error) {
	endpoint, err := buildURL(c.baseURL, pathSegments...)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling procurement API",
		zap.String("method", method),
		zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call procurement API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return decodeResponse(resp.StatusCode, raw, out)
}

func decodeResponse(status int, raw []byte, out any) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if status >= http.StatusBadRequest {
			return "", &APIError{StatusCode: status, Message: string(bytes.TrimSpace(raw))}
		}
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if env.Success != nil {
		if !*env.Success || status >= http.StatusBadRequest {
			return "", &APIError{StatusCode: status, Message: env.Error, Details: env.Details}
		}
		if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return "", fmt.Errorf("failed to parse response data: %w", err)
			}
		}
		return env.Message, nil
	}

	// Legacy bare form: the payload is the whole body.
	if status >= http.StatusBadRequest || env.Error != "" {
		return "", &APIError{StatusCode: status, Message: env.Error}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return env.Message, nil
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Health returns nil when the server answers /health.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if _, err := c.do(ctx, http.MethodGet, nil, &out, "health"); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("server reported status %q", out.Status)
	}
	return nil
}

// ParseRFP previews the structured RFP for a natural-language request.
func (c *Client) ParseRFP(ctx context.Context, text string) (*models.RFPDraft, error) {
	var out struct {
		RFP *models.RFPDraft `json:"rfp"`
	}
	if _, err := c.do(ctx, http.MethodPost, map[string]string{"naturalLanguage": text}, &out, "api", "rfps", "parse"); err != nil {
		return nil, err
	}
	return out.RFP, nil
}

// CreateRFP creates a draft RFP from a natural-language request.
func (c *Client) CreateRFP(ctx context.Context, text string) (*models.RFP, error) {
	var out struct {
		RFP *models.RFP `json:"rfp"`
	}
	if _, err := c.do(ctx, http.MethodPost, map[string]string{"naturalLanguage": text}, &out, "api", "rfps", "create-from-natural-language"); err != nil {
		return nil, err
	}
	return out.RFP, nil
}

// ListRFPs returns every RFP, newest first.
func (c *Client) ListRFPs(ctx context.Context) ([]*models.RFP, error) {
	var out struct {
		RFPs []*models.RFP `json:"rfps"`
	}
	if _, err := c.do(ctx, http.MethodGet, nil, &out, "api", "rfps"); err != nil {
		return nil, err
	}
	return out.RFPs, nil
}

// GetRFP returns an RFP with its proposals, scores and vendor sends.
func (c *Client) GetRFP(ctx context.Context, rfpID int64) (*models.RFPDetail, error) {
	var out models.RFPDetail
	if _, err := c.do(ctx, http.MethodGet, nil, &out, "api", "rfps", id(rfpID)); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendRFP emails an RFP to the given vendors.
func (c *Client) SendRFP(ctx context.Context, rfpID int64, vendorIDs []int64) (*models.SendResult, error) {
	req := struct {
		RFPID     int64   `json:"rfpId"`
		VendorIDs []int64 `json:"vendorIds"`
	}{rfpID, vendorIDs}

	var out models.SendResult
	msg, err := c.do(ctx, http.MethodPost, req, &out, "api", "rfps", "send")
	if err != nil {
		return nil, err
	}
	if out.Message == "" {
		out.Message = msg
	}
	return &out, nil
}

// UpdateRFPStatus moves an RFP to status.
func (c *Client) UpdateRFPStatus(ctx context.Context, rfpID int64, status models.RFPStatus) (*models.RFP, error) {
	var out struct {
		RFP *models.RFP `json:"rfp"`
	}
	body := map[string]models.RFPStatus{"status": status}
	if _, err := c.do(ctx, http.MethodPatch, body, &out, "api", "rfps", id(rfpID), "status"); err != nil {
		return nil, err
	}
	return out.RFP, nil
}

// ListVendors returns every vendor.
func (c *Client) ListVendors(ctx context.Context) ([]*models.Vendor, error) {
	var out struct {
		Vendors []*models.Vendor `json:"vendors"`
	}
	if _, err := c.do(ctx, http.MethodGet, nil, &out, "api", "vendors"); err != nil {
		return nil, err
	}
	return out.Vendors, nil
}

// CreateVendor registers a vendor.
func (c *Client) CreateVendor(ctx context.Context, in *models.VendorInput) (*models.Vendor, error) {
	var out struct {
		Vendor *models.Vendor `json:"vendor"`
	}
	if _, err := c.do(ctx, http.MethodPost, in, &out, "api", "vendors"); err != nil {
		return nil, err
	}
	return out.Vendor, nil
}

// UpdateVendor replaces a vendor's details.
func (c *Client) UpdateVendor(ctx context.Context, vendorID int64, in *models.VendorInput) (*models.Vendor, error) {
	var out struct {
		Vendor *models.Vendor `json:"vendor"`
	}
	if _, err := c.do(ctx, http.MethodPut, in, &out, "api", "vendors", id(vendorID)); err != nil {
		return nil, err
	}
	return out.Vendor, nil
}

// DeleteVendor removes a vendor.
func (c *Client) DeleteVendor(ctx context.Context, vendorID int64) error {
	_, err := c.do(ctx, http.MethodDelete, nil, nil, "api", "vendors", id(vendorID))
	return err
}

// ProcessProposal submits a vendor reply for extraction and storage.
func (c *Client) ProcessProposal(ctx context.Context, in *models.InboundEmail) (*models.Proposal, error) {
	req := struct {
		EmailBody    string `json:"emailBody"`
		EmailSubject string `json:"emailSubject"`
		FromEmail    string `json:"fromEmail"`
		MessageID    string `json:"messageId,omitempty"`
	}{in.Body, in.Subject, in.From, in.MessageID}

	var out struct {
		Proposal *models.Proposal `json:"proposal"`
	}
	if _, err := c.do(ctx, http.MethodPost, req, &out, "api", "proposals", "process"); err != nil {
		return nil, err
	}
	return out.Proposal, nil
}

// CompareProposals scores every proposal received for an RFP.
func (c *Client) CompareProposals(ctx context.Context, rfpID int64) (*models.ComparisonReport, error) {
	var out models.ComparisonReport
	if _, err := c.do(ctx, http.MethodGet, nil, &out, "api", "proposals", "compare", id(rfpID)); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckEmails asks the server to poll its mailbox for vendor replies.
func (c *Client) CheckEmails(ctx context.Context) (*models.MailboxCheckResult, error) {
	var out models.MailboxCheckResult
	if _, err := c.do(ctx, http.MethodPost, nil, &out, "api", "proposals", "check-emails"); err != nil {
		return nil, err
	}
	return &out, nil
}
