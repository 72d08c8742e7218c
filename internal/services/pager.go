package services

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Page is the envelope shared by every paginated Spotify response.
type Page[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// PageFetcher retrieves and decodes the page at url.
type PageFetcher[T any] func(ctx context.Context, url string) (*Page[T], error)

// Pager walks a cursor-paginated endpoint one page per call to [Pager.Next], following the "next" link of each
// response until the terminal page.
//
// A failed page is not retried and leaves the cursor where it was, so calling Next again re-requests the same page.
// [Pager.Reset] rewinds to the first page.
type Pager[T any] struct {
	first   string
	next    string
	fetch   PageFetcher[T]
	fetched int
	total   int
	pages   int
	done    bool
}

// NewPager creates a [Pager] starting at first.
func NewPager[T any](first string, fetch PageFetcher[T]) *Pager[T] {
	return &Pager[T]{first: first, next: first, fetch: fetch}
}

// Next fetches the current page and advances the cursor. Returns [io.EOF] once the terminal page has been consumed.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, io.EOF
	}

	page, err := p.fetch(ctx, p.next)
	if err != nil {
		return nil, err
	}

	p.pages++
	p.fetched += len(page.Items)
	p.total = page.Total

	if page.Next == nil || *page.Next == "" {
		p.done = true
	} else {
		p.next = *page.Next
	}

	return page.Items, nil
}

// Done reports whether the terminal page has been consumed.
func (p *Pager[T]) Done() bool {
	return p.done
}

// Reset rewinds the pager to its first page and clears its counters.
func (p *Pager[T]) Reset() {
	p.next = p.first
	p.fetched, p.total, p.pages = 0, 0, 0
	p.done = false
}

// Fetched is the number of items returned so far.
func (p *Pager[T]) Fetched() int { return p.fetched }

// Total is the item count reported by the most recent page.
func (p *Pager[T]) Total() int { return p.total }

// Pages is the number of pages fetched so far.
func (p *Pager[T]) Pages() int { return p.pages }

// Consistent reports whether the number of fetched items matches the server-reported total.
func (p *Pager[T]) Consistent() bool {
	return p.fetched == p.total
}

// Collect drives p to exhaustion and returns every item in page order.
//
// A count mismatch against the server-reported total is logged as a warning and the items are returned unchanged.
func Collect[T any](ctx context.Context, p *Pager[T], logger *log.Logger) ([]T, error) {
	var items []T
	for !p.Done() {
		page, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
	}

	if !p.Consistent() && logger != nil {
		logger.Warn("pagination count mismatch", "fetched", p.Fetched(), "expected", p.Total(), "pages", p.Pages())
	}

	return items, nil
}
