// http.go — Outgoing HTTP interception: record performs the real request, buffers the full
// response body, and logs one HttpResponse event; replay consumes the next event and
// synthesizes the stored response with no network call (spec section 4.5). The record path
// blocks until the complete body is available before appending the event and returning,
// flattening the runtime's async I/O at this boundary (spec section 9).
package intercept

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/wasm-rr/wasm-rr/internal/trace"
	"github.com/wasm-rr/wasm-rr/internal/traceerr"
)

// RealOutgoingHTTP is the real host HTTP client used during record, adapted from the
// teacher's network body capture (internal/capture/network_bodies.go): perform the request,
// buffer the entire body, never stream partial chunks to the guest.
type RealOutgoingHTTP struct {
	Client *http.Client
}

// NewRealOutgoingHTTP returns a client with a bounded timeout so a hung upstream can't wedge
// record mode forever.
func NewRealOutgoingHTTP() RealOutgoingHTTP {
	return RealOutgoingHTTP{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (h RealOutgoingHTTP) do(req HTTPRequest) (HTTPResponse, error) {
	httpReq, err := http.NewRequest(req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return HTTPResponse{}, traceerr.WrapIO(req.URL, err)
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}

	resp, err := h.Client.Do(httpReq)
	if err != nil {
		return HTTPResponse{}, traceerr.WrapIO(req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return HTTPResponse{}, traceerr.WrapIO(req.URL, err)
	}

	headers := make([]trace.EnvPair, 0, len(resp.Header))
	for name, values := range resp.Header {
		for _, v := range values {
			headers = append(headers, trace.EnvPair{Name: name, Value: v})
		}
	}

	return HTTPResponse{
		Status:  uint16(resp.StatusCode),
		Headers: headers,
		Body:    body,
	}, nil
}

// RecordOutgoingHTTP performs the real request via RealOutgoingHTTP, buffers the full
// response, logs an HttpResponse event carrying both request and response context, and
// returns the response to the guest.
type RecordOutgoingHTTP struct {
	Client   RealOutgoingHTTP
	Recorder *trace.Recorder
}

func (r RecordOutgoingHTTP) Send(req HTTPRequest) (HTTPResponse, error) {
	resp, err := r.Client.do(req)
	if err != nil {
		return HTTPResponse{}, err
	}
	r.Recorder.Append(trace.NewHTTPResponse(req.Method, req.URL, req.Headers, resp.Status, resp.Headers, resp.Body))
	return resp, nil
}

// ReplayOutgoingHTTP consumes the next HttpResponse event and returns a synthesized response
// with no network call. Replay is positional, not content-addressed: the stored request
// fields are diagnostic only and are not compared against req.
type ReplayOutgoingHTTP struct {
	Playback *trace.Playback
}

func (r ReplayOutgoingHTTP) Send(req HTTPRequest) (HTTPResponse, error) {
	e, err := r.Playback.Next("outgoing-handler.handle", trace.CallHTTPResponse)
	if err != nil {
		return HTTPResponse{}, err
	}
	return HTTPResponse{Status: e.Status, Headers: e.Headers, Body: e.Body}, nil
}

var (
	_ OutgoingHTTP = RecordOutgoingHTTP{}
	_ OutgoingHTTP = ReplayOutgoingHTTP{}
)
