// Package netx holds plain-HTTP helpers used next to the gRPC transport.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// httpClient is a seam for tests.
var httpClient = http.DefaultClient

// DownloadFromPresignedURL fetches an object through a presigned GET URL and
// streams the body into w. Any status other than 200 is an error carrying a
// short excerpt of the response body.
func DownloadFromPresignedURL(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	return io.Copy(w, resp.Body)
}
