package fetcher

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitFetcher는 호스트(도메인)별로 별도의 토큰 버킷을 유지하는 미들웨어입니다.
//
// 하나의 Fetcher 체인을 여러 소매업체(retailer)의 요청이 공유하더라도, 요청 대상
// 호스트가 서로 다르면 서로의 페이싱에 영향을 주지 않습니다.
type RateLimitFetcher struct {
	delegate Fetcher

	requestsPerSecond float64
	burst             int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ Fetcher = (*RateLimitFetcher)(nil)

// NewRateLimitFetcher는 호스트당 requestsPerSecond/burst로 페이싱하는
// RateLimitFetcher를 생성합니다. requestsPerSecond <= 0이면 페이싱 없이
// delegate에 그대로 위임합니다.
func NewRateLimitFetcher(delegate Fetcher, requestsPerSecond float64, burst int) Fetcher {
	if requestsPerSecond <= 0 {
		return delegate
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitFetcher{
		delegate:          delegate,
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		limiters:          make(map[string]*rate.Limiter),
	}
}

func (f *RateLimitFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.requestsPerSecond), f.burst)
		f.limiters[host] = l
	}
	return l
}

// Do는 req의 호스트에 해당하는 토큰 버킷을 기다린 뒤 delegate에 위임합니다.
func (f *RateLimitFetcher) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := f.limiterFor(req.URL.Host).Wait(ctx); err != nil {
		return nil, err
	}

	return f.delegate.Do(req)
}

func (f *RateLimitFetcher) Close() error {
	return f.delegate.Close()
}
