// Package apiclient implements directory.Directory over the household JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"household/internal/adapters/http/wire"
	"household/internal/application/directory"
	"household/internal/domain/enrollment"
	"household/internal/domain/family"
	"household/internal/domain/fault"
	"household/internal/domain/program"
)

// DefaultTimeout bounds every call when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

var _ directory.Directory = (*Client)(nil)

// Client calls a remote household service. Every request carries the bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the service at baseURL. A nil httpClient uses one with
// DefaultTimeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateAccount creates a login account. A taken email yields *fault.ConflictError.
func (c *Client) CreateAccount(ctx context.Context, req directory.AccountRequest) (string, error) {
	var out idResponse
	if err := c.do(ctx, "createAccount", http.MethodPost, "/api/accounts", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, req directory.AccountRequest) error {
	return c.do(ctx, "updateAccount", http.MethodPut, "/api/accounts/"+url.PathEscape(id), req, nil)
}

func (c *Client) CreateFamily(ctx context.Context, req directory.FamilyRequest) (string, error) {
	var out idResponse
	if err := c.do(ctx, "createFamily", http.MethodPost, "/api/families", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) GetFamily(ctx context.Context, id string) (family.Family, error) {
	var out family.Family
	err := c.do(ctx, "getFamily", http.MethodGet, "/api/families/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UpdateFamily(ctx context.Context, id string, req directory.FamilyRequest) error {
	return c.do(ctx, "updateFamily", http.MethodPut, "/api/families/"+url.PathEscape(id), req, nil)
}

func (c *Client) SearchFamilies(ctx context.Context, query string) ([]family.Family, error) {
	var out []family.Family
	err := c.do(ctx, "searchFamilies", http.MethodGet, "/api/families?q="+url.QueryEscape(query), nil, &out)
	return out, err
}

func (c *Client) ArchiveFamily(ctx context.Context, id string, archived bool) error {
	body := map[string]bool{"archived": archived}
	return c.do(ctx, "archiveFamily", http.MethodPost, "/api/families/"+url.PathEscape(id)+"/archive", body, nil)
}

// DeleteFamily confirms with the family id; the server checks it again.
func (c *Client) DeleteFamily(ctx context.Context, id string) error {
	path := "/api/families/" + url.PathEscape(id) + "?confirm=" + url.QueryEscape(id)
	return c.do(ctx, "deleteFamily", http.MethodDelete, path, nil, nil)
}

func (c *Client) CreateMember(ctx context.Context, req directory.MemberRequest) (string, error) {
	var out idResponse
	if err := c.do(ctx, "createMember", http.MethodPost, "/api/members", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UpdateMember(ctx context.Context, id string, req directory.MemberRequest) error {
	return c.do(ctx, "updateMember", http.MethodPut, "/api/members/"+url.PathEscape(id), req, nil)
}

func (c *Client) ListEnrollments(ctx context.Context, memberID string) ([]enrollment.Enrollment, error) {
	var out []enrollment.Enrollment
	err := c.do(ctx, "listEnrollments", http.MethodGet, "/api/members/"+url.PathEscape(memberID)+"/enrollments", nil, &out)
	return out, err
}

// ListPrograms reads the remote catalog.
func (c *Client) ListPrograms(ctx context.Context, filter program.Filter) ([]program.Program, error) {
	path := "/api/programs"
	if q := wire.ProgramQuery(filter); len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []program.Program
	err := c.do(ctx, "listPrograms", http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) UpsertEnrollment(ctx context.Context, req enrollment.Upsert) error {
	return c.do(ctx, "createOrUpdateEnrollment", http.MethodPut, "/api/enrollments", req, nil)
}

func (c *Client) DeleteEnrollment(ctx context.Context, id string) error {
	return c.do(ctx, "deleteEnrollment", http.MethodDelete, "/api/enrollments/"+url.PathEscape(id), nil, nil)
}

// Ping checks the remote service's health endpoint. A gateway uses it as its own
// health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/healthz", nil, nil)
}

// do sends one JSON request. out may be nil. Non-2xx responses are mapped back to the
// domain errors the server encoded; transport failures become *fault.RemoteError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("apiclient_event", "event", "call_failed", "op", op, "error", err)
		return &fault.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	slog.Debug("apiclient_event", "event", "call", "op", op, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &fault.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body wire.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body = wire.ErrorBody{Error: strings.TrimSpace(string(raw))}
	}
	return wire.ToError(op, resp.StatusCode, body)
}
