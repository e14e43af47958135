package fakeapi

import (
	"net/http"
	"sync"
)

type failure struct {
	method string
	path   string
	status int
	body   any
	header http.Header
}

type hold struct {
	method  string
	path    string
	release chan struct{}
	arrived chan struct{}
	once    sync.Once
}

// FailNext makes the next request matching method and path answer with status
// and body. A trailing "*" in path matches by prefix.
func (s *Server) FailNext(method, path string, status int, body any) {
	s.FailNextWithHeader(method, path, status, body, nil)
}

// FailNextWithHeader is FailNext with extra response headers.
func (s *Server) FailNextWithHeader(method, path string, status int, body any, header http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, body: body, header: header})
}

// Hold parks the next request matching method and path until the returned
// release func is called. The arrived channel closes once the request is parked.
func (s *Server) Hold(method, path string) (arrived <-chan struct{}, release func()) {
	h := &hold{method: method, path: path, release: make(chan struct{}), arrived: make(chan struct{})}
	s.mu.Lock()
	s.holds = append(s.holds, h)
	s.mu.Unlock()
	return h.arrived, func() { h.once.Do(func() { close(h.release) }) }
}

// FailureMiddleware serves injected failures and parks held requests.
func (s *Server) FailureMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var h *hold
		for i, candidate := range s.holds {
			if candidate.method == r.Method && pathMatches(candidate.path, r.URL.Path) {
				h = candidate
				s.holds = append(s.holds[:i], s.holds[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		if h != nil {
			close(h.arrived)
			select {
			case <-h.release:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		var f *failure
		for i, candidate := range s.failures {
			if candidate.method == r.Method && pathMatches(candidate.path, r.URL.Path) {
				f = &candidate
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		if f == nil {
			next(w, r)
			return
		}
		for k, values := range f.header {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
		writeJSON(w, f.status, f.body)
	}
}
