// Package httpsource provides a seekable stream Source backed by HTTP
// range requests.
//
// It pairs naturally with streamcache: each seek discards the open
// response body, so backward seeks are expensive on their own but
// cheap once the cache in front has seen the bytes.
package httpsource

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Source reads a remote HTTP resource sequentially and repositions via
// range requests. It implements io.Reader, io.Seeker, io.Closer, and
// the streamcache Sizer interface.
//
// Source is not safe for concurrent use.
type Source struct {
	url     string
	client  *http.Client
	headers http.Header
	size    int64
	etag    string
	pos     int64
	body    io.ReadCloser // open ranged GET aligned with pos, nil when none
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers http.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(http.Header)
		}
		s.headers.Set(key, value)
	}
}

// New creates a Source for url. It probes the remote with a one-byte
// range request to learn the content size and verify range support.
func New(url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}

	size, etag, err := s.probe()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	s.size = size
	s.etag = etag
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() (int64, error) {
	return s.size, nil
}

// Read reads sequentially from the current position, opening an
// open-ended range request on first use after a seek.
func (s *Source) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.pos >= s.size {
		return 0, io.EOF
	}
	if s.body == nil {
		body, err := s.openRange(s.pos)
		if err != nil {
			return 0, err
		}
		s.body = body
	}

	n, err := s.body.Read(p)
	s.pos += int64(n)
	if err != nil {
		s.closeBody()
		if errors.Is(err, io.EOF) && n > 0 {
			err = nil
		}
	}
	return n, err
}

// Seek repositions the stream. Seeking away from the current position
// drops the open response body; the next Read issues a new range
// request.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		abs = s.size + offset
	default:
		return 0, fmt.Errorf("seek %s: invalid whence %d", s.url, whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek %s: negative position %d", s.url, abs)
	}
	if abs != s.pos {
		s.closeBody()
		s.pos = abs
	}
	return abs, nil
}

// Close releases any open response body.
func (s *Source) Close() error {
	s.closeBody()
	return nil
}

func (s *Source) closeBody() {
	if s.body != nil {
		_ = s.body.Close() //nolint:errcheck // draining a stale body is best-effort
		s.body = nil
	}
}

func (s *Source) openRange(off int64) (io.ReadCloser, error) {
	req, err := s.newRequest()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-", off))
	if s.etag != "" {
		// Fail the range request instead of serving bytes from a
		// resource that changed under us.
		req.Header.Set("If-Range", s.etag)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
		return resp.Body, nil
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return nil, io.EOF
	case http.StatusOK:
		resp.Body.Close()
		return nil, errors.New("range requests not supported")
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("range request failed: %s", resp.Status)
	}
}

func (s *Source) probe() (int64, string, error) {
	req, err := s.newRequest()
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		_ = resp.Body.Close()                 //nolint:errcheck // drain for connection reuse
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		size, err := parseContentRangeSize(resp.Header.Get("Content-Range"))
		if err != nil {
			return 0, "", err
		}
		return size, resp.Header.Get("ETag"), nil
	case http.StatusRequestedRangeNotSatisfiable:
		// Empty resources satisfy no range at all.
		return 0, resp.Header.Get("ETag"), nil
	case http.StatusOK:
		return 0, "", errors.New("range requests not supported")
	default:
		return 0, "", fmt.Errorf("probe request failed: %s", resp.Status)
	}
}

func (s *Source) newRequest() (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

// parseContentRangeSize extracts the total size from a Content-Range
// header of the form "bytes 0-0/1234".
func parseContentRangeSize(header string) (int64, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bytes") {
		return 0, fmt.Errorf("invalid Content-Range %q", header)
	}
	_, total, ok := strings.Cut(fields[1], "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("unknown total size in Content-Range %q", header)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Range %q: %w", header, err)
	}
	return size, nil
}
