package nginx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// externalClient is swapped out in tests.
var externalClient = &http.Client{Timeout: 15 * time.Second}

// probeExternal checks that the deployed application answers over the public
// address from the operator's machine, not just from inside the target.
func probeExternal(ctx context.Context, host string) error {
	url := "http://" + strings.TrimSuffix(host, "/") + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build external probe request: %w", err)
	}
	resp, err := externalClient.Do(req)
	if err != nil {
		return fmt.Errorf("external probe of %s failed: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("external probe of %s returned %s", url, resp.Status)
	}
	return nil
}
