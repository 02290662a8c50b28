// Package upstream runs calls against issue trackers and code hosts with retries
// and maps their failures onto domain errors.
package upstream

import (
	"context"
	"fmt"
	"net/http"

	"releaseguard.app/guard/common/retry"
	"releaseguard.app/guard/internal/domain"
)

// Call runs op under policy. 4xx responses are not retried. A final 404 maps to
// domain.ErrNotFound and every other failure to domain.ErrUpstream.
func Call[T any](ctx context.Context, policy retry.Policy, what string, op func(ctx context.Context) (T, *http.Response, error)) (T, error) {
	var status int
	out, err := retry.Value(ctx, policy, func() (T, error) {
		v, resp, err := op(ctx)
		status = 0
		if resp != nil {
			status = resp.StatusCode
		}
		if err != nil && isClientError(status) {
			return v, retry.Permanent(err)
		}
		return v, err
	})
	if err == nil {
		return out, nil
	}
	if status == http.StatusNotFound {
		return out, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return out, fmt.Errorf("%s: %w: %w", what, domain.ErrUpstream, err)
}

func isClientError(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}
