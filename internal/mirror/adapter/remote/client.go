// Package remote implements the HTTP client for the record store API:
// paginated record listing, single-record reads, schema retrieval and
// password authentication.
package remote

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

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/errors"
	"pocketmirror/internal/shared/logger"
)

const defaultTimeout = 30 * time.Second

// authCollection is the collection holding elevated credentials on the
// remote store.
const authCollection = "_superusers"

// Client talks to the record store over HTTP. It implements
// repository.RemoteClient and performs no retries; callers own retry policy.
type Client struct {
	baseURL string
	hc      *http.Client
	log     logger.Logger
}

// NewClient builds a client for the store at baseURL. timeout <= 0 falls
// back to a 30s default. log may be nil.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewNoop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		log:     log.WithComponent("remote"),
	}
}

// ListRecords fetches one page of records from a collection.
func (c *Client) ListRecords(ctx context.Context, opts repository.ListOptions) (*model.ListResult, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("perPage", strconv.Itoa(opts.PerPage))
	}
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if len(opts.Fields) > 0 {
		query.Set("fields", strings.Join(opts.Fields, ","))
	}
	endpoint := fmt.Sprintf("%s/api/collections/%s/records?%s",
		c.baseURL, url.PathEscape(opts.Collection), query.Encode())

	var result model.ListResult
	if err := c.getJSON(ctx, endpoint, opts.Token, opts.Impersonated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRecord fetches a single record by its remote id.
func (c *Client) GetRecord(ctx context.Context, collection, id string, fields []string, token string) (model.Record, error) {
	endpoint := fmt.Sprintf("%s/api/collections/%s/records/%s",
		c.baseURL, url.PathEscape(collection), url.PathEscape(id))
	if len(fields) > 0 {
		endpoint += "?fields=" + url.QueryEscape(strings.Join(fields, ","))
	}

	var record model.Record
	if err := c.getJSON(ctx, endpoint, token, false, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetCollection fetches a collection's schema. The endpoint requires
// elevated credentials on the remote store.
func (c *Client) GetCollection(ctx context.Context, collection, token string) (*model.CollectionSchema, error) {
	endpoint := fmt.Sprintf("%s/api/collections/%s", c.baseURL, url.PathEscape(collection))

	var schema model.CollectionSchema
	if err := c.getJSON(ctx, endpoint, token, false, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// Authenticate exchanges identity/password for a superuser token.
func (c *Client) Authenticate(ctx context.Context, identity, password string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/collections/%s/auth-with-password", c.baseURL, authCollection)

	body, err := json.Marshal(map[string]string{
		"identity": identity,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", errors.WrapRemote(err, "authentication request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
			resp.StatusCode == http.StatusBadRequest {
			return "", errors.NewAuthenticationError("authentication rejected by the remote store", false).
				WithStatusCode(resp.StatusCode)
		}
		return "", c.decodeError(resp, false)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.WrapRemote(err, "failed to decode authentication response")
	}
	if out.Token == "" {
		return "", errors.NewAuthenticationError("remote store returned an empty token", false)
	}
	return out.Token, nil
}

// getJSON performs an authenticated GET and decodes the 200 body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, token string, impersonated bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.WrapRemote(err, "request to the remote store failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp, impersonated)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapRemote(err, "failed to decode remote store response")
	}
	return nil
}

// decodeError maps a non-2xx response onto the error taxonomy: 401/403 is an
// access rejection, 404 a missing collection or record, anything else a
// remote request error carrying the server message when parseable.
func (c *Client) decodeError(resp *http.Response, impersonated bool) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var remoteErr model.RemoteError
	message := resp.Status
	if err := json.Unmarshal(body, &remoteErr); err == nil && remoteErr.Message != "" {
		message = remoteErr.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if impersonated {
			return errors.NewAuthenticationError(
				"the remote store rejected the impersonation token: "+message, true).
				WithStatusCode(resp.StatusCode)
		}
		return errors.NewAuthenticationError(
			"the remote store requires credentials: "+message, false).
			WithStatusCode(resp.StatusCode)
	case http.StatusNotFound:
		return errors.NewNotFoundError("remote collection or record").
			WithStatusCode(resp.StatusCode)
	default:
		return errors.NewRemoteError(message).WithStatusCode(resp.StatusCode)
	}
}
