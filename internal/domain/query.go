package domain

import (
	"strings"
)

const MaxQueryLength = 1000

type SearchRequest struct {
	Query string
}

func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}

	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}

	return nil
}

func (r *SearchRequest) Sanitize() {
	r.Query = strings.TrimSpace(r.Query)
}

type SearchResponse struct {
	Body     string
	Instance string
}
