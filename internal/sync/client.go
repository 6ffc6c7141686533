package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
)

// Envelope is the wire envelope of every server response.
// Status 1 means the request was accepted; anything else carries a reason in
// Message. UpdatedDate is the cursor a download pass advances the table
// watermark to.
type Envelope struct {
	Status      int               `json:"status"`
	Message     string            `json:"message"`
	Data        []json.RawMessage `json:"data"`
	UpdatedDate string            `json:"updated_date"`
}

// UploadEnvelope is the response to a single-entity upload. Data carries the
// entity as stored by the server, including its assigned key.
type UploadEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the authoritative server's per-entity endpoints.
// All failures come back classified: transport problems as NetworkFailure,
// rejected requests as ServerFailure. A failed call never touches the local
// store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DownloadPage fetches one page of changed records for an entity.
// updateDate is the stored watermark; empty means "from the beginning".
func (c *Client) DownloadPage(ctx context.Context, entity string, page, limit, userType int, userID int64, updateDate string) (*Envelope, error) {
	q := url.Values{}
	q.Set("part_no", fmt.Sprintf("%d", page))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("user_type", fmt.Sprintf("%d", userType))
	q.Set("user_id", fmt.Sprintf("%d", userID))
	if updateDate != "" {
		q.Set("update_date", updateDate)
	}
	return c.download(ctx, entity, q)
}

// DownloadByID fetches a single record, the retry form used to replay a
// failed operation.
func (c *Client) DownloadByID(ctx context.Context, entity string, id int64) (*Envelope, error) {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("%d", id))
	return c.download(ctx, entity, q)
}

func (c *Client) download(ctx context.Context, entity string, q url.Values) (*Envelope, error) {
	u := fmt.Sprintf("%s/download/%s?%s", c.baseURL, entity, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "build download request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindServer, "download %s returned HTTP %d", entity, resp.StatusCode)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apperr.Wrap(apperr.KindServer, "malformed download response", err)
	}
	if env.Status != 1 {
		return nil, apperr.Newf(apperr.KindServer, "download %s rejected: %s", entity, env.Message)
	}
	return &env, nil
}

// Upload sends one locally-created entity and returns the server's stored
// copy, which carries the assigned key.
func (c *Client) Upload(ctx context.Context, entity string, body interface{}) (*UploadEnvelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "encode upload body", err)
	}

	u := fmt.Sprintf("%s/upload/%s", c.baseURL, entity)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "build upload request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.ClassifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperr.Newf(apperr.KindServer, "upload %s returned HTTP %d", entity, resp.StatusCode)
	}

	var env UploadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperr.Wrap(apperr.KindServer, "malformed upload response", err)
	}
	if env.Status != 1 {
		return nil, apperr.Newf(apperr.KindServer, "upload %s rejected: %s", entity, env.Message)
	}
	return &env, nil
}
