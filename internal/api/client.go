package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// Client talks to the update authority. It is an explicit instance with
// injected dependencies; there is no package-level shared client.
type Client struct {
	baseURL    string
	clientType string
	http       *http.Client
}

// NewClient creates a client against the given base URL. clientType is the
// tag sent with version checks so the authority can distinguish launcher
// flavors.
func NewClient(baseURL, clientType string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientType: clientType,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithHTTPClient substitutes the underlying HTTP client (for testing).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// BaseURL returns the resolved authority base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckUpdate asks the authority whether a version newer than currentVersion
// exists for this client type.
func (c *Client) CheckUpdate(ctx context.Context, currentVersion string) (*UpdateCheckResult, error) {
	body := map[string]string{
		"current_version": currentVersion,
		"launcher_type":   c.clientType,
	}
	var result UpdateCheckResult
	if err := c.postJSON(ctx, "check", c.baseURL+"/updates/check", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchDelta requests the changeset between two versions. The v2 endpoint is
// tried first; a missing or failing v2 endpoint falls back to the legacy
// query shape, which must stay supported through the protocol migration
// window.
func (c *Client) FetchDelta(ctx context.Context, from, to string) (*DeltaPatch, error) {
	v2 := fmt.Sprintf("%s/v2/updates/delta?from=%s&to=%s",
		c.baseURL, url.QueryEscape(from), url.QueryEscape(to))

	var patch DeltaPatch
	err := c.getJSON(ctx, "delta", v2, &patch)
	if err == nil {
		return &patch, nil
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return nil, err
	}
	log.WithError(err).Debug("v2 delta endpoint unavailable, trying legacy shape")

	legacy := fmt.Sprintf("%s/updates/delta?from_version=%s&to_version=%s",
		c.baseURL, url.QueryEscape(from), url.QueryEscape(to))
	if err := c.getJSON(ctx, "delta-legacy", legacy, &patch); err != nil {
		return nil, err
	}
	return &patch, nil
}

// FetchManifest retrieves the complete file manifest for a version.
func (c *Client) FetchManifest(ctx context.Context, version string) (*VersionInfo, error) {
	u := c.baseURL + "/updates/version/" + url.PathEscape(version)
	var info VersionInfo
	if err := c.getJSON(ctx, "manifest", u, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchFile downloads the raw bytes of one file by its manifest path.
func (c *Client) FetchFile(ctx context.Context, path string) ([]byte, error) {
	u := c.baseURL + "/updates/files/" + escapeFilePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "file", URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Op: "file", URL: u, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "file", URL: u, Err: err}
	}
	return data, nil
}

// PushLiveEdit posts a hot-patch for a single file. Content travels base64
// encoded inside the JSON body.
func (c *Client) PushLiveEdit(ctx context.Context, filePath string, content []byte) error {
	body := map[string]string{
		"file_path":      filePath,
		"content_base64": base64.StdEncoding.EncodeToString(content),
	}
	return c.postJSON(ctx, "live-edit", c.baseURL+"/updates/live-edit", body, nil)
}

// Rollback asks the authority to revert the install to a prior version.
func (c *Client) Rollback(ctx context.Context, version string) error {
	u := c.baseURL + "/updates/rollback/" + url.PathEscape(version)
	return c.postJSON(ctx, "rollback", u, nil, nil)
}

func (c *Client) getJSON(ctx context.Context, op, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, u string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// escapeFilePath escapes each segment of a relative path while preserving
// the separators, so nested manifest paths stay addressable.
func escapeFilePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
