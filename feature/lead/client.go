package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lead-sync/feature/lead/models"
	"lead-sync/feature/lead/synclog"
)

// CredentialProvider attaches authentication material to an outgoing
// request. The client never reads or stores the secret value itself.
type CredentialProvider interface {
	Apply(req *http.Request) error
}

// BearerToken is a CredentialProvider setting a static Authorization header.
type BearerToken struct {
	token string
}

// NewBearerToken creates a provider for the given token.
func NewBearerToken(token string) *BearerToken {
	return &BearerToken{token: token}
}

// Apply sets the Authorization header.
func (b *BearerToken) Apply(req *http.Request) error {
	if b.token == "" {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	return nil
}

// Result is the outcome of one remote call for one lead.
type Result struct {
	// RecordID is the lead identifier the call was made for.
	RecordID string
	// ExternalRef is the identifier assigned by the external system on
	// success.
	ExternalRef string
	// Kind classifies a failure; KindNone on success.
	Kind synclog.Kind
	// StatusCode is the HTTP status, zero when the call never completed.
	StatusCode int
	// RawBody is the response body, captured verbatim for diagnostics.
	RawBody string
	// Message describes the failure.
	Message string
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Kind == synclog.KindNone
}

// Sender performs the remote call for one lead.
type Sender interface {
	Send(ctx context.Context, l *models.Lead) Result
}

// Client is the stateless HTTP adapter to the external system. It performs
// no retries; retry policy belongs to the caller.
type Client struct {
	http     *http.Client
	endpoint string
	creds    CredentialProvider
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg Config, creds CredentialProvider) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	return &Client{
		http:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
		endpoint: cfg.Endpoint,
		creds:    creds,
	}
}

// leadPayload is the outbound wire shape.
type leadPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source"`
	Status    string `json:"status"`
}

// refResponse is the inbound success shape.
type refResponse struct {
	ID string `json:"id"`
}

// Send pushes one lead to the external system.
//
// A 2xx response with a parseable reference id is a success. A non-2xx
// response is an api_error carrying the numeric status and the raw body. A
// call that never completed (timeout, refused, TLS) is a transport_error
// with no status code.
func (c *Client) Send(ctx context.Context, l *models.Lead) Result {
	res := Result{RecordID: l.ID}

	payload, err := json.Marshal(leadPayload{
		FirstName: l.FirstName,
		LastName:  l.LastName,
		Company:   l.Company,
		Email:     l.Email,
		Phone:     l.Phone,
		Source:    l.Source,
		Status:    l.Status,
	})
	if err != nil {
		res.Kind = synclog.KindInternal
		res.Message = fmt.Sprintf("marshal lead payload: %v", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		res.Kind = synclog.KindInternal
		res.Message = fmt.Sprintf("build request: %v", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	if c.creds != nil {
		if err := c.creds.Apply(req); err != nil {
			res.Kind = synclog.KindInternal
			res.Message = fmt.Sprintf("apply credentials: %v", err)
			return res
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		res.Kind = synclog.KindTransport
		res.Message = err.Error()
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Kind = synclog.KindTransport
		res.Message = fmt.Sprintf("read response body: %v", err)
		return res
	}

	res.StatusCode = resp.StatusCode
	res.RawBody = string(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Kind = synclog.KindAPI
		res.Message = fmt.Sprintf("external system returned status %d", resp.StatusCode)
		return res
	}

	var ref refResponse
	if err := json.Unmarshal(body, &ref); err != nil || ref.ID == "" {
		res.Kind = synclog.KindAPI
		res.Message = "success response carried no reference id"
		return res
	}

	res.ExternalRef = ref.ID
	return res
}
