package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"
)

// PageSize is the number of items requested per page from listing endpoints.
const PageSize = 100

// RequestFailure is returned when the API answers with a non-2xx status.
type RequestFailure struct {
	Status int
	URL    string
	Err    error
}

func (e *RequestFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed with status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// PageSource fetches the raw JSON body of a single page.
// Implementations must report non-2xx responses as *RequestFailure.
type PageSource interface {
	FetchPage(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// Paginate lazily walks a page-based listing endpoint, starting at page 1.
//
// The walk ends on an empty page or on a page shorter than PageSize. A body
// that is not a JSON array is decoded as a single item and ends the walk
// without requesting further pages. The first error is yielded with a zero T
// and ends the sequence.
func Paginate[T any](ctx context.Context, src PageSource, path string, params url.Values) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		query := url.Values{}
		for k, v := range params {
			query[k] = append([]string(nil), v...)
		}
		query.Set("per_page", strconv.Itoa(PageSize))

		for page := 1; ; page++ {
			query.Set("page", strconv.Itoa(page))
			raw, err := src.FetchPage(ctx, path, query)
			if err != nil {
				yield(zero, err)
				return
			}

			body := bytes.TrimSpace(raw)
			if len(body) == 0 || body[0] != '[' {
				var item T
				if err := json.Unmarshal(body, &item); err != nil {
					yield(zero, fmt.Errorf("failed to decode response from %s: %w", path, err))
					return
				}
				yield(item, nil)
				return
			}

			var items []T
			if err := json.Unmarshal(body, &items); err != nil {
				yield(zero, fmt.Errorf("failed to decode page %d from %s: %w", page, path, err))
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if len(items) < PageSize {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Count drains seq and returns the number of items, stopping at the first error.
func Count[T any](seq iter.Seq2[T, error]) (int, error) {
	n := 0
	for _, err := range seq {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
