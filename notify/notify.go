// Package notify pushes one-way notifications about interesting emails
// to external endpoints. Sink failures are logged and never propagate
// into the sync pipeline.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"onebox/models"
)

// Sink delivers a notification for one email.
type Sink interface {
	Name() string
	Notify(ctx context.Context, email models.Email) error
}

const defaultTimeout = 10 * time.Second

// postJSON sends the payload and requires a 2xx response. The request
// timeout honors an earlier context deadline when one is set.
func postJSON(ctx context.Context, client *fasthttp.Client, url string, payload []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	timeout := defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := client.DoTimeout(req, resp, timeout); err != nil {
		return err
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("unexpected status %d", code)
	}
	return nil
}
