package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

// Page is one page of a cursor-paginated listing.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// DrainOptions bounds a pagination drain.
type DrainOptions struct {
	Timeout  time.Duration
	MaxPages int
}

// Drain fetches pages in order until no cursor remains and concatenates their
// items. Any page failure fails the whole drain. Exceeding Timeout yields
// TimeoutError.
func Drain[T any](ctx context.Context, op string, opts DrainOptions, fetch func(ctx context.Context, token string) (Page[T], error)) ([]T, error) {
	drainCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	items := make([]T, 0)
	seen := make(map[string]struct{})
	token := ""
	for pages := 0; ; pages++ {
		if opts.MaxPages > 0 && pages >= opts.MaxPages {
			return nil, domain.E(domain.KindTransport, op, fmt.Sprintf("listing exceeded %d pages", opts.MaxPages), nil)
		}
		if err := drainCtx.Err(); err != nil {
			return nil, drainTimeout(op, pages, err)
		}

		page, err := fetch(drainCtx, token)
		if err != nil {
			if ctxErr := drainCtx.Err(); ctxErr != nil && !domain.IsKind(err, domain.KindNotFound) {
				return nil, drainTimeout(op, pages, ctxErr)
			}
			return nil, err
		}
		items = append(items, page.Items...)

		if page.NextToken == "" {
			return items, nil
		}
		if _, dup := seen[page.NextToken]; dup {
			return nil, domain.E(domain.KindTransport, op, "pagination cursor repeated", nil)
		}
		seen[page.NextToken] = struct{}{}
		token = page.NextToken
	}
}

func drainTimeout(op string, pages int, err error) error {
	if errors.Is(err, context.Canceled) {
		return domain.E(domain.KindTimeout, op, fmt.Sprintf("listing canceled after %d pages", pages), err)
	}
	return domain.E(domain.KindTimeout, op, fmt.Sprintf("listing did not complete in time after %d pages", pages), err)
}
