package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "BOARDSYNC_HTTP_TIMEOUT"
	sessionEnvKey      = "BOARDSYNC_SESSION"

	sessionCookieName = "session"
)

// Client talks to the remote board service. Requests carry the session
// cookie; transport-level retry is deliberately absent — the sync engine
// owns retry decisions.
type Client struct {
	baseURL string
	http    *http.Client
	session string
}

// NewClient creates a new board API client. The session credential is
// read from the environment unless overridden via WithSession.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
		session: strings.TrimSpace(os.Getenv(sessionEnvKey)),
	}
}

// WithSession overrides the session cookie value.
func (c *Client) WithSession(session string) *Client {
	c.session = strings.TrimSpace(session)
	return c
}

// ListBoards returns the caller's boards, without scene data.
func (c *Client) ListBoards(ctx context.Context) ([]BoardSummary, error) {
	var resp []BoardSummary
	err := c.do(ctx, http.MethodGet, "/boards", nil, &resp)
	return resp, err
}

// GetBoard fetches one board record including its serialized scene.
func (c *Client) GetBoard(ctx context.Context, id int64) (Board, error) {
	var resp Board
	err := c.do(ctx, http.MethodGet, "/boards/"+formatID(id), nil, &resp)
	return resp, err
}

// CreateBoard creates a new empty board.
func (c *Client) CreateBoard(ctx context.Context, name string) (BoardCreateResponse, error) {
	var resp BoardCreateResponse
	err := c.do(ctx, http.MethodPost, "/boards", BoardCreateRequest{Name: name}, &resp)
	return resp, err
}

// UpdateBoard replaces the board's scene data (and optionally its name).
func (c *Client) UpdateBoard(ctx context.Context, id int64, req BoardUpdateRequest) error {
	return c.do(ctx, http.MethodPut, "/boards/"+formatID(id), req, nil)
}

// DeleteBoard deletes one board on the remote service.
func (c *Client) DeleteBoard(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/boards/"+formatID(id), nil, nil)
}

// ListBoardFiles returns the file ids the remote service holds for a
// board. Used as the dedup oracle before uploads; never cached.
func (c *Client) ListBoardFiles(ctx context.Context, id int64) ([]string, error) {
	var resp []string
	err := c.do(ctx, http.MethodGet, "/boards/"+formatID(id)+"/files", nil, &resp)
	return resp, err
}

// DownloadBoardFile fetches one attachment blob. The mime type comes from
// the response Content-Type.
func (c *Client) DownloadBoardFile(ctx context.Context, id int64, fileID string) (BoardFile, error) {
	var file BoardFile

	endpoint := c.baseURL + "/boards/" + formatID(id) + "/files/" + url.PathEscape(fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return file, err
	}
	c.setSessionCookie(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return file, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return file, decodeError(resp)
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return file, fmt.Errorf("read file %s: %w", fileID, err)
	}

	file.FileID = fileID
	file.Blob = blob
	file.MimeType = resp.Header.Get("Content-Type")
	return file, nil
}

// UploadBoardFile uploads one attachment blob as multipart form data.
// The server accepts re-uploads of an existing file id without duplication.
func (c *Client) UploadBoardFile(ctx context.Context, id int64, fileID string, blob []byte) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", fileID)
	if err != nil {
		return err
	}
	if _, err := part.Write(blob); err != nil {
		return err
	}
	if err := form.WriteField("file_id", fileID); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	endpoint := c.baseURL + "/boards/" + formatID(id) + "/files"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.setSessionCookie(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setSessionCookie(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
		return apiErr
	}
	apiErr.Message = resp.Status
	return apiErr
}

func (c *Client) setSessionCookie(req *http.Request) {
	if c.session == "" || req == nil {
		return
	}
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.session})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func httpTimeoutFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if raw == "" {
		return defaultHTTPTimeout
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultHTTPTimeout
}
