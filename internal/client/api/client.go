// Package api is a typed client for the ComplianceBinder HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status     int               `json:"-"`
	Message    string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	Limit      int64             `json:"limit,omitempty"`
	Allowed    []string          `json:"allowed,omitempty"`
	RetryAfter time.Duration     `json:"-"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL such as "http://127.0.0.1:8000".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) SetToken(token string) { c.token = token }
func (c *Client) Token() string         { return c.token }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends req and decodes a JSON answer into out when out is not nil.
func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.do(req, want, out)
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(b, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(b))
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
	}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			e.RetryAfter = time.Duration(n) * time.Second
		}
	}
	return e
}

// Register creates an account. A taken email comes back as a 409 *Error.
func (c *Client) Register(ctx context.Context, email, password string) error {
	in := map[string]string{"email": email, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/auth/register", in, http.StatusCreated, nil)
}

// Login exchanges credentials for an access token using the password form
// and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{"username": {email}, "password": {password}}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/token", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	var t Token
	if err := c.do(req, http.StatusOK, &t); err != nil {
		return nil, err
	}
	c.token = t.AccessToken
	return &t, nil
}

func (c *Client) ListBinders(ctx context.Context) ([]Binder, error) {
	var out []Binder
	err := c.doJSON(ctx, http.MethodGet, "/binders", nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) CreateBinder(ctx context.Context, name, industry string) (*Binder, error) {
	var out Binder
	in := map[string]string{"name": name, "industry": industry}
	if err := c.doJSON(ctx, http.MethodPost, "/binders", in, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBinder(ctx context.Context, id int64) (*Binder, error) {
	var out Binder
	if err := c.doJSON(ctx, http.MethodGet, binderPath(id, ""), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, binderID int64) ([]Task, error) {
	var out []Task
	err := c.doJSON(ctx, http.MethodGet, binderPath(binderID, "/tasks"), nil, http.StatusOK, &out)
	return out, err
}

// NewTask is the body of CreateTask. DueDate is "YYYY-MM-DD" or empty.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, binderID int64, t NewTask) (*Task, error) {
	var out Task
	if err := c.doJSON(ctx, http.MethodPost, binderPath(binderID, "/tasks"), t, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkDone(ctx context.Context, taskID int64) (*Task, error) {
	var out Task
	path := "/tasks/" + strconv.FormatInt(taskID, 10) + "/done"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDocuments(ctx context.Context, binderID int64) ([]Document, error) {
	var out []Document
	err := c.doJSON(ctx, http.MethodGet, binderPath(binderID, "/documents"), nil, http.StatusOK, &out)
	return out, err
}

// Upload streams body as the multipart "file" part without buffering it.
func (c *Client) Upload(ctx context.Context, binderID int64, filename, contentType, note string, body io.Reader) (*Document, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, filename, contentType, note, body)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, binderPath(binderID, "/documents"), pr, mw.FormDataContentType())
	if err != nil {
		_ = pr.Close()
		return nil, err
	}

	var out Document
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func writeUpload(mw *multipart.Writer, filename, contentType, note string, body io.Reader) error {
	if note != "" {
		if err := mw.WriteField("note", note); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": filename}))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, body)
	return err
}

// Download copies the document body into w and returns the filename the
// server suggested.
func (c *Client) Download(ctx context.Context, documentID int64, w io.Writer) (string, error) {
	path := "/documents/" + strconv.FormatInt(documentID, 10) + "/download"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	_, params, _ := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	return params["filename"], nil
}

// Report returns the rendered HTML report.
func (c *Client) Report(ctx context.Context, binderID int64) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, binderPath(binderID, "/report"), nil, "")
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(b), nil
}

// Health returns the /health body. A 503 still decodes; the status field
// says what is wrong.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, decodeError(resp)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &h, nil
}

func binderPath(id int64, suffix string) string {
	return "/binders/" + strconv.FormatInt(id, 10) + suffix
}
