// Package remote implements storage.Storage against the external student
// service over HTTP+JSON.
//
// Two route layouts are supported:
//
//	rest:    GET /students  POST /students  PUT /students/{id}  DELETE /students/{id}
//	legacy:  GET /get_students  POST /add_student  PUT /update_student/{id}  DELETE /delete_student/{id}
//
// Any non-2xx status is a failure. The body of a failed response is read
// only to enrich the error message; no particular shape is expected.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aanand-mishra/xgrade/internal/config"
	"github.com/aanand-mishra/xgrade/internal/types"
)

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

type routes struct {
	list, create, update, delete string
}

var layouts = map[string]routes{
	config.RoutesREST:   {list: "/students", create: "/students", update: "/students", delete: "/students"},
	config.RoutesLegacy: {list: "/get_students", create: "/add_student", update: "/update_student", delete: "/delete_student"},
}

// Client is the HTTP implementation of storage.Storage.
type Client struct {
	baseURL string
	routes  routes
	http    *http.Client
}

// New builds a Client from the backend section of cfg. A nil httpClient
// means a plain &http.Client{} (no timeout: calls either complete or fail).
func New(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	r, ok := layouts[cfg.Backend.Routes]
	if !ok {
		return nil, fmt.Errorf("remote.New: unknown route style %q", cfg.Backend.Routes)
	}

	base := strings.TrimRight(cfg.Backend.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("remote.New: invalid base url: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{baseURL: base, routes: r, http: httpClient}, nil
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// StatusCode returns the HTTP status of the failed response.
func (e *StatusError) StatusCode() int { return e.Status }

func (c *Client) ListStudents(ctx context.Context) ([]types.Student, error) {
	body, err := c.do(ctx, http.MethodGet, c.routes.list, nil)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: %w", err)
	}

	var students []types.Student
	if err := json.Unmarshal(body, &students); err != nil {
		return nil, fmt.Errorf("ListStudents: decode: %w", err)
	}

	if students == nil {
		students = make([]types.Student, 0)
	}
	for i := range students {
		if students[i].Subjects == nil {
			students[i].Subjects = []types.Subject{}
		}
	}
	return students, nil
}

func (c *Client) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	student.ID = ""

	body, err := c.do(ctx, http.MethodPost, c.routes.create, student)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: %w", err)
	}

	id, err := parseID(body)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: %w", err)
	}
	return id, nil
}

func (c *Client) UpdateStudent(ctx context.Context, id string, student types.Student) error {
	if id == "" {
		return errors.New("UpdateStudent: empty id")
	}
	student.ID = id

	if _, err := c.do(ctx, http.MethodPut, c.routes.update+"/"+url.PathEscape(id), student); err != nil {
		return fmt.Errorf("UpdateStudent: %w", err)
	}
	return nil
}

func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("DeleteStudent: empty id")
	}

	if _, err := c.do(ctx, http.MethodDelete, c.routes.delete+"/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("DeleteStudent: %w", err)
	}
	return nil
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: target, Status: resp.StatusCode, Body: snippet}
	}

	return body, nil
}

// parseID accepts the shapes services use to return a new id:
// a JSON string, a JSON number, an object with an "id" member, or
// plain text.
func parseID(body []byte) (string, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return "", errors.New("empty id in response")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// not JSON: the body itself is the id
		return string(raw), nil
	}

	var id string
	switch t := v.(type) {
	case string:
		id = t
	case float64:
		id = strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		switch inner := t["id"].(type) {
		case string:
			id = inner
		case float64:
			id = strconv.FormatFloat(inner, 'f', -1, 64)
		}
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("no id in response %q", string(raw))
	}
	return id, nil
}
