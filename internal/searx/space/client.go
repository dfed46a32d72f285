package space

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

const (
	DefaultBaseURL = "https://searx.space/"
	directoryPath  = "data/instances.json"
	maxBodySize    = 16 << 20
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:103.0) Gecko/20100101 Firefox/103.0"

type Config struct {
	BaseURL          string
	DirectoryTimeout time.Duration
	InstanceTimeout  time.Duration
}

// Client ходит в searx.space за каталогом и в сами инстансы за выдачей
type Client struct {
	baseURL   *url.URL
	directory *http.Client
	instance  *http.Client
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.DirectoryTimeout == 0 {
		cfg.DirectoryTimeout = 30 * time.Second
	}
	if cfg.InstanceTimeout == 0 {
		cfg.InstanceTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	return &Client{
		baseURL:   base,
		directory: &http.Client{Timeout: cfg.DirectoryTimeout},
		instance:  &http.Client{Timeout: cfg.InstanceTimeout},
		logger:    logger,
	}, nil
}

func (c *Client) FetchDirectory(ctx context.Context) (domain.Directory, error) {
	dirURL := c.baseURL.ResolveReference(&url.URL{Path: directoryPath})
	c.logger.Debug("fetching instance directory", zap.String("url", dirURL.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dirURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrDirectoryUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.directory.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %v", domain.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrDirectoryUnavailable, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrDirectoryUnavailable, err)
	}

	dir, err := decodeDirectory(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("instance directory fetched", zap.Int("instances", len(dir)))
	return dir, nil
}

func (c *Client) FetchSearchPage(ctx context.Context, instanceURL, query string) (string, error) {
	searchURL, err := SearchURL(instanceURL, query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInstanceUnreachable, err)
	}
	c.logger.Debug("fetching instance search page", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrInstanceUnreachable, err)
	}
	setBrowserHeaders(req)

	resp, err := c.instance.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: do request: %v", domain.ErrInstanceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned status %d", domain.ErrInstanceUnreachable, instanceURL, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrInstanceUnreachable, err)
	}
	return string(body), nil
}

// SearchURL builds <instance>/search?q=<query>. The path is absolute, so any
// path on the instance URL is replaced.
func SearchURL(instanceURL, query string) (string, error) {
	base, err := url.Parse(instanceURL)
	if err != nil {
		return "", fmt.Errorf("parse instance url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("instance url %q is not absolute", instanceURL)
	}

	ref := &url.URL{Path: "/search", RawQuery: url.Values{"q": {query}}.Encode()}
	return base.ResolveReference(ref).String(), nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
}

// readBody decodes by Content-Encoding. Setting Accept-Encoding ourselves turns
// off the transport's transparent gzip, so it has to be handled here.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}
