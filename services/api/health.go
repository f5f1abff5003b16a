package apiclient

import (
	"context"
	"net/http"
)

type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Ping checks the API is reachable.
func (c *Client) Ping(ctx context.Context) (Health, error) {
	return call[Health](ctx, c, http.MethodGet, "health/", nil, nil)
}
