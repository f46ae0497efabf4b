// Package client talks to the booking REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithToken returns a copy authenticated with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) ([]byte, http.Header, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, parseError(resp.StatusCode, raw)
	}
	return raw, resp.Header, nil
}

// do sends a JSON request and decodes the unwrapped payload into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	raw, _, err := c.send(req)
	if err != nil || out == nil {
		return err
	}
	return decode(raw, out)
}

// decode unwraps the success envelope. List targets also accept a
// "results" member or a bare array.
func decode(raw []byte, out any) error {
	payload := bytes.TrimSpace(raw)
	wantList := reflect.TypeOf(out).Kind() == reflect.Pointer && reflect.TypeOf(out).Elem().Kind() == reflect.Slice

	for i := 0; i < 2 && len(payload) > 0 && payload[0] == '{'; i++ {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if wantList {
			if r, ok := obj["results"]; ok {
				payload = r
				continue
			}
		}
		d, ok := obj["data"]
		if !ok {
			break
		}
		payload = d
	}
	if wantList && (len(payload) == 0 || string(payload) == "null") {
		payload = []byte("[]")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseError(status int, raw []byte) error {
	e := &APIError{Status: status, Message: http.StatusText(status)}
	var body struct {
		Error   json.RawMessage `json:"error"`
		Detail  string          `json:"detail"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return e
	}
	var structured struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	var plain string
	switch {
	case json.Unmarshal(body.Error, &structured) == nil && structured.Message != "":
		e.Code, e.Message = structured.Code, structured.Message
	case json.Unmarshal(body.Error, &plain) == nil && plain != "":
		e.Message = plain
	case body.Detail != "":
		e.Message = body.Detail
	case body.Message != "":
		e.Message = body.Message
	}
	return e
}

// download fetches a binary document and its filename.
func (c *Client) download(ctx context.Context, path string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/pdf")
	raw, h, err := c.send(req)
	if err != nil {
		return nil, "", err
	}
	name := ""
	if _, params, err := mime.ParseMediaType(h.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return raw, name, nil
}
