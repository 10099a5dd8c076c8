package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

// Limits mirror the DON runtime defaults.
type Limits struct {
	MaxExecutionDuration    time.Duration
	MaxHTTPRequests         int
	MaxHTTPRequestDuration  time.Duration
	MaxHTTPRequestURLLength int
	MaxOnChainResponseBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxExecutionDuration:    10 * time.Second,
		MaxHTTPRequests:         5,
		MaxHTTPRequestDuration:  9 * time.Second,
		MaxHTTPRequestURLLength: 2048,
		MaxOnChainResponseBytes: 256,
	}
}

// limitedRequester enforces per-execution HTTP limits in front of the real requester.
type limitedRequester struct {
	next   HTTPRequester
	limits Limits

	mu    sync.Mutex
	count int
}

func newLimitedRequester(next HTTPRequester, limits Limits) *limitedRequester {
	return &limitedRequester{next: next, limits: limits}
}

func (l *limitedRequester) MakeHTTPRequest(ctx context.Context, req entity.HTTPRequest) (*entity.HTTPResponse, error) {
	if l.next == nil {
		return nil, errors.New("http capability is not available")
	}
	if len(req.URL) > l.limits.MaxHTTPRequestURLLength {
		return nil, errors.Wrapf(domain.ErrLimitExceeded, "url length %d exceeds %d", len(req.URL), l.limits.MaxHTTPRequestURLLength)
	}

	l.mu.Lock()
	l.count++
	count := l.count
	l.mu.Unlock()
	if count > l.limits.MaxHTTPRequests {
		return nil, errors.Wrapf(domain.ErrLimitExceeded, "more than %d http requests", l.limits.MaxHTTPRequests)
	}

	if req.Timeout <= 0 || req.Timeout > l.limits.MaxHTTPRequestDuration {
		req.Timeout = l.limits.MaxHTTPRequestDuration
	}
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	return l.next.MakeHTTPRequest(ctx, req)
}
