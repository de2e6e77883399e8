package chi

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/marcelsud/sms-inbox/gate"
	"github.com/marcelsud/sms-inbox/inbound"
	"github.com/marcelsud/sms-inbox/telnyx"
)

/* HTTP layer for the webhook API
 * The handlers only translate between HTTP and the domain request/result
 * types; every decision lives in the pipeline
 */

// postWebhook handles POST /v1/webhooks/telnyx
func postWebhook(pipeline *inbound.Pipeline) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := requestFromHTTP(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		result := pipeline.Handle(r.Context(), req)
		writeResult(w, result)
	})
}

// postFallback handles POST /v1/webhooks/telnyx/fallback
func postFallback(fallback *inbound.Fallback) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := requestFromHTTP(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		result := fallback.Handle(r.Context(), req)
		writeResult(w, result)
	})
}

// postAuthorize handles POST /v1/authorize. It exposes the gate's pre-check
// so an edge authorizer can reject junk before forwarding the full request.
// The answer is always 200; the decision is in the body.
func postAuthorize(g *gate.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := requestFromHTTP(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		decision := g.Authorize(req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(decision); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// requestFromHTTP captures the exact body bytes and flattened headers.
// The body must not be re-encoded anywhere on the way to verification.
func requestFromHTTP(r *http.Request) (telnyx.Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return telnyx.Request{}, err
	}
	defer r.Body.Close()

	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	sourceIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		sourceIP = host
	}

	return telnyx.Request{
		Body:       body,
		Headers:    headers,
		SourceIP:   sourceIP,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

func writeResult(w http.ResponseWriter, result inbound.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
