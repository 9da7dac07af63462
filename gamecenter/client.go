// Package gamecenter is a minimal App Store Connect client covering the
// Game Center achievement endpoints: detail lookup, achievement and
// localization creation, and the reserve/upload/commit image flow.
package gamecenter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the App Store Connect API root.
const DefaultBaseURL = "https://api.appstoreconnect.apple.com/v1"

// Operation names used in errors and logs.
const (
	OpGetDetail          = "get game center detail"
	OpCreateAchievement  = "create achievement"
	OpCreateLocalization = "create localization"
	OpReserveImage       = "reserve image"
	OpUploadImage        = "upload image"
	OpCommitImage        = "commit image"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// RemoteError is a non-2xx response, or a 2xx response whose body could not
// be used. Body is the raw response text.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: status %d", e.Op, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + truncate(e.Body, 500)
	}
	return msg
}

func (e *RemoteError) Unwrap() error { return e.Err }

// TransportError is a request that never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Options configures a Client.
type Options struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Proxy is an optional HTTP/HTTPS proxy URL; empty uses the environment.
	Proxy string
	// Timeout bounds each request; zero means no client-side timeout.
	Timeout time.Duration
	// OnLog receives one line per completed request.
	OnLog func(format string, args ...any)
}

// Client talks to App Store Connect. It is not safe for concurrent use
// while Authorize is being called.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	onLog   func(format string, args ...any)
}

// New returns a Client for the given options.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		http:    makeHTTPClient(opts.Proxy, opts.Timeout),
		onLog:   opts.OnLog,
	}
}

// Authorize sets the bearer token sent with every API request.
func (c *Client) Authorize(token string) {
	c.token = token
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

func (c *Client) log(format string, args ...any) {
	if c.onLog != nil {
		c.onLog(format, args...)
	}
}

// do sends one JSON request to the API and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	c.log("%s %s: %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, Status: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

var errMissingID = errors.New("response has no data.id")

// createResource POSTs a document and returns the id the backend assigned.
func createResource[A any](ctx context.Context, c *Client, op, path string, doc document[A]) (string, error) {
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, op, http.MethodPost, path, doc, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", &RemoteError{Op: op, Status: http.StatusCreated, Err: errMissingID}
	}
	return resp.Data.ID, nil
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// GameCenterDetailID returns the Game Center detail id of an app. It fails
// when Game Center has not been enabled for the app.
func (c *Client) GameCenterDetailID(ctx context.Context, appID string) (string, error) {
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	path := "/apps/" + url.PathEscape(appID) + "/gameCenterDetail"
	if err := c.do(ctx, OpGetDetail, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", &RemoteError{Op: OpGetDetail, Status: http.StatusOK, Err: errMissingID}
	}
	return resp.Data.ID, nil
}

// CreateAchievement creates an achievement under the given detail id and
// returns its id.
func (c *Client) CreateAchievement(ctx context.Context, detailID string, attrs AchievementAttributes) (string, error) {
	return createResource(ctx, c, OpCreateAchievement, "/gameCenterAchievements", document[AchievementAttributes]{
		Data: resource[AchievementAttributes]{
			Type:          typeAchievement,
			Attributes:    &attrs,
			Relationships: relatedTo("gameCenterDetail", typeDetail, detailID),
		},
	})
}

// CreateLocalization attaches localized text to an achievement and returns
// the localization id.
func (c *Client) CreateLocalization(ctx context.Context, achievementID string, attrs LocalizationAttributes) (string, error) {
	return createResource(ctx, c, OpCreateLocalization, "/gameCenterAchievementLocalizations", document[LocalizationAttributes]{
		Data: resource[LocalizationAttributes]{
			Type:          typeLocalization,
			Attributes:    &attrs,
			Relationships: relatedTo("gameCenterAchievement", typeAchievement, achievementID),
		},
	})
}

// ReserveImage asks the backend for upload instructions for a localization's
// image.
func (c *Client) ReserveImage(ctx context.Context, localizationID, fileName string, fileSize int64) (*ImageReservation, error) {
	req := document[imageCreateAttributes]{
		Data: resource[imageCreateAttributes]{
			Type:          typeImage,
			Attributes:    &imageCreateAttributes{FileName: fileName, FileSize: fileSize},
			Relationships: relatedTo("gameCenterAchievementLocalization", typeLocalization, localizationID),
		},
	}

	var resp document[imageAttributes]
	if err := c.do(ctx, OpReserveImage, http.MethodPost, "/gameCenterAchievementImages", req, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, &RemoteError{Op: OpReserveImage, Status: http.StatusCreated, Err: errMissingID}
	}

	res := &ImageReservation{ID: resp.Data.ID}
	if resp.Data.Attributes != nil {
		res.UploadOperations = resp.Data.Attributes.UploadOperations
	}
	if len(res.UploadOperations) == 0 {
		return nil, &RemoteError{Op: OpReserveImage, Status: http.StatusCreated, Err: errors.New("reservation has no upload operations")}
	}
	return res, nil
}

// UploadImage sends the slice of data described by op to the upload target.
// The target is outside the API, so no bearer token is sent.
func (c *Client) UploadImage(ctx context.Context, op UploadOperation, data []byte) error {
	chunk, err := op.slice(data)
	if err != nil {
		return fmt.Errorf("%s: %w", OpUploadImage, err)
	}

	method := op.Method
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, op.URL, bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", OpUploadImage, err)
	}
	for _, h := range op.RequestHeaders {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: OpUploadImage, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	c.log("%s upload (%d bytes): %d", method, len(chunk), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: OpUploadImage, Status: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// CommitImage marks a reservation as uploaded.
func (c *Client) CommitImage(ctx context.Context, reservationID string) error {
	req := document[imageUpdateAttributes]{
		Data: resource[imageUpdateAttributes]{
			Type:       typeImage,
			ID:         reservationID,
			Attributes: &imageUpdateAttributes{Uploaded: true},
		},
	}
	path := "/gameCenterAchievementImages/" + url.PathEscape(reservationID)
	return c.do(ctx, OpCommitImage, http.MethodPatch, path, req, nil)
}

// slice returns the part of data this operation covers. A zero length means
// everything from Offset on.
func (op UploadOperation) slice(data []byte) ([]byte, error) {
	size := int64(len(data))
	if op.Offset < 0 || op.Offset > size {
		return nil, fmt.Errorf("offset %d outside file of %d bytes", op.Offset, size)
	}
	end := size
	if op.Length > 0 {
		end = op.Offset + op.Length
	}
	if end > size {
		return nil, fmt.Errorf("range %d+%d outside file of %d bytes", op.Offset, op.Length, size)
	}
	return data[op.Offset:end], nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
