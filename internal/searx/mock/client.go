package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

// Client - заглушка searx.Client с фиксированными ответами
type Client struct {
	Directory      domain.Directory
	DirectoryError error
	Pages          map[string]string
	DefaultPage    string
	PageError      error
	Delay          time.Duration

	DirectoryCalls int
	PageCalls      int
	LastInstance   string
	LastQuery      string

	mu sync.Mutex
}

func New() *Client {
	return &Client{Pages: make(map[string]string)}
}

func (c *Client) WithDirectory(dir domain.Directory) *Client {
	c.mu.Lock()
	c.Directory = dir
	c.mu.Unlock()
	return c
}

func (c *Client) WithDirectoryError(err error) *Client {
	c.mu.Lock()
	c.DirectoryError = err
	c.mu.Unlock()
	return c
}

// WithPage sets the body returned for one instance URL.
func (c *Client) WithPage(instanceURL, body string) *Client {
	c.mu.Lock()
	c.Pages[instanceURL] = body
	c.mu.Unlock()
	return c
}

func (c *Client) WithDefaultPage(body string) *Client {
	c.mu.Lock()
	c.DefaultPage = body
	c.mu.Unlock()
	return c
}

func (c *Client) WithPageError(err error) *Client {
	c.mu.Lock()
	c.PageError = err
	c.mu.Unlock()
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.mu.Lock()
	c.Delay = delay
	c.mu.Unlock()
	return c
}

func (c *Client) FetchDirectory(ctx context.Context) (domain.Directory, error) {
	c.mu.Lock()
	c.DirectoryCalls++
	delay := c.Delay
	err := c.DirectoryError
	dir := make(domain.Directory, len(c.Directory))
	for k, v := range c.Directory {
		dir[k] = v
	}
	c.mu.Unlock()

	if err := wait(ctx, delay); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return dir, nil
}

func (c *Client) FetchSearchPage(ctx context.Context, instanceURL, query string) (string, error) {
	c.mu.Lock()
	c.PageCalls++
	c.LastInstance = instanceURL
	c.LastQuery = query
	err := c.PageError
	body, ok := c.Pages[instanceURL]
	if !ok {
		body = c.DefaultPage
	}
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	return body, nil
}

func (c *Client) DirectoryCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.DirectoryCalls
}

func (c *Client) PageCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.PageCalls
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DirectoryCalls = 0
	c.PageCalls = 0
	c.LastInstance = ""
	c.LastQuery = ""
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
