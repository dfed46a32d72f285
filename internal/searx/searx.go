// Package searx describes the upstream side of the proxy: the public instance
// directory and the individual instances listed in it.
package searx

import (
	"context"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

type Client interface {
	// FetchDirectory returns every listed instance keyed by URL. Errors wrap
	// domain.ErrDirectoryUnavailable.
	FetchDirectory(ctx context.Context) (domain.Directory, error)
	// FetchSearchPage returns the raw result HTML of instanceURL for query.
	// Errors wrap domain.ErrInstanceUnreachable.
	FetchSearchPage(ctx context.Context, instanceURL, query string) (string, error)
}
