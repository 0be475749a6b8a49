package metadata

import (
	"bytes"
	"io"
	"net/http"
)

// roundTripFunc lets tests script HTTP responses without a listener.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func fakeClient(f roundTripFunc) *http.Client {
	return &http.Client{Transport: f}
}
