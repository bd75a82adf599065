package device

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/moca-monitor/internal/moca"
)

// Adapter endpoints. The html pages bootstrap and authorize the session, the
// /ms/ endpoints expose raw register reads.
const (
	devStatusPath = "/devStatus.html"
	phyRatesPath  = "/phyRates.html"
	localInfoPath = "/ms/0/0x15"
	netInfoPath   = "/ms/0/0x16"
	fmrInfoPath   = "/ms/0/0x1D"
)

// ErrNoCSRFToken is returned when the adapter did not hand out a csrf_token
// cookie during the session bootstrap.
var ErrNoCSRFToken = errors.New("no csrf token")

// errSessionRejected marks a request the adapter refused because the session
// token went stale.
var errSessionRejected = errors.New("session rejected")

// Config holds the device client configuration.
type Config struct {
	Host     string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is an authenticated HTTP session against one MoCA adapter. It
// implements moca.RegisterSource. Methods must not be called concurrently:
// the session carries a single CSRF token.
type Client struct {
	base     *url.URL
	username string
	password string
	http     *http.Client
}

// NewClient creates a device client for the given adapter.
func NewClient(c Config) (*Client, error) {
	if c.Host == "" {
		return nil, errors.New("host must not be empty")
	}

	rawURL := c.Host
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}

	base, err := url.Parse(strings.TrimSuffix(rawURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse host")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "new cookie jar")
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base:     base,
		username: c.Username,
		password: c.Password,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// LocalInfo implements moca.RegisterSource.
func (c *Client) LocalInfo(ctx context.Context) (moca.RegisterDump, error) {
	return c.registers(ctx, localInfoPath, []uint32{})
}

// NetInfo implements moca.RegisterSource.
func (c *Client) NetInfo(ctx context.Context, node moca.NodeID) (moca.RegisterDump, error) {
	return c.registers(ctx, netInfoPath, []uint32{uint32(node)})
}

// FMRInfo implements moca.RegisterSource.
func (c *Client) FMRInfo(ctx context.Context, targetMask uint16, format uint8) (moca.RegisterDump, error) {
	return c.registers(ctx, fmrInfoPath, []uint32{uint32(targetMask), uint32(format)})
}

type dataRequest struct {
	Data []uint32 `json:"data"`
}

type dataEnvelope struct {
	Data []string `json:"data"`
}

// registers performs one authenticated register read. A session rejected by
// the adapter (stale token) is re-established once before failing.
func (c *Client) registers(ctx context.Context, path string, payload []uint32) (moca.RegisterDump, error) {
	if c.csrfToken() == "" {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	dump, err := c.post(ctx, path, payload)
	if errors.Is(err, errSessionRejected) {
		log.WithFields(log.Fields{
			"host":     c.base.Host,
			"endpoint": path,
		}).Info("device: session rejected, re-authenticating")

		if err := c.login(ctx); err != nil {
			return nil, err
		}
		dump, err = c.post(ctx, path, payload)
	}

	return dump, err
}

// login fetches the device status page so that the adapter hands out a fresh
// csrf_token cookie for the session.
func (c *Client) login(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base.String()+devStatusPath, nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		loginErrorCounter().Inc()
		return errors.Wrap(err, "get device status")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		loginErrorCounter().Inc()
		return errors.Errorf("get device status: expected 2xx, got %d", resp.StatusCode)
	}

	if c.csrfToken() == "" {
		loginErrorCounter().Inc()
		return errors.Wrap(ErrNoCSRFToken, "login")
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload []uint32) (moca.RegisterDump, error) {
	endpointRequestCounter(path).Inc()

	b, err := json.Marshal(dataRequest{Data: payload})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base.String()+path, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.base.String()+phyRatesPath)
	req.Header.Set("X-CSRF-TOKEN", c.csrfToken())

	resp, err := c.http.Do(req)
	if err != nil {
		endpointErrorCounter(path).Inc()
		return nil, errors.Wrap(err, "post request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		endpointErrorCounter(path).Inc()
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(errSessionRejected, "status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		endpointErrorCounter(path).Inc()
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("expected 2xx, got %d", resp.StatusCode)
	}

	var envelope dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		endpointErrorCounter(path).Inc()
		return nil, errors.Wrap(err, "decode response")
	}

	return moca.RegisterDump(envelope.Data), nil
}

func (c *Client) csrfToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == "csrf_token" {
			return cookie.Value
		}
	}
	return ""
}
