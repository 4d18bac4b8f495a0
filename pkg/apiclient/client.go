// Package apiclient talks to the remote marketplace JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"airbnblite/internal/models"
)

// APIError is a non-2xx answer from the API. Message is the body's "error"
// field and may be empty when the body did not carry one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var out models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, creds models.Credentials) error {
	return c.do(ctx, http.MethodPost, "/auth/register", "", creds, nil)
}

// Listings fetches the whole public collection.
func (c *Client) Listings(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.do(ctx, http.MethodGet, "/api/listings", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyListings fetches the listings owned by the token's user.
func (c *Client) MyListings(ctx context.Context, token string) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.do(ctx, http.MethodGet, "/api/my_listings", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateListing publishes a listing and returns the id the API assigned, or 0
// when the acknowledgement carried none.
func (c *Client) CreateListing(ctx context.Context, token string, in models.NewListing) (int64, error) {
	var out models.CreateAck
	if err := c.do(ctx, http.MethodPost, "/api/create_listing", token, in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Book reserves a listing. token may be empty; the API decides whether that
// is acceptable.
func (c *Client) Book(ctx context.Context, token string, listingID int64) (int64, error) {
	var out models.BookingResponse
	req := models.BookingRequest{ListingID: listingID}
	if err := c.do(ctx, http.MethodPost, "/api/book", token, req, &out); err != nil {
		return 0, err
	}
	return out.BookingID, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		var er models.ErrorResponse
		if json.Unmarshal(raw, &er) == nil {
			apiErr.Message = er.Error
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
