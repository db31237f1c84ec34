package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
)

type httpResponse = httptest.ResponseRecorder

func doWithHeader(r http.Handler, method, target, body string, hdr http.Header) *httpResponse {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// do sends an authenticated request with an optional JSON body.
func do(r http.Handler, method, target, body string) *httpResponse {
	return doWithHeader(r, method, target, body, authHeader("valid"))
}
