// Package common holds small helpers shared across packages
package common

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// NewHTTPClientWithTimeout returns an HTTP client with its own transport and the given timeout
func NewHTTPClientWithTimeout(t time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSHandshakeTimeout: 15 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 8,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   t,
	}
}

// AppendError joins incoming onto original; nil values are ignored
func AppendError(original, incoming error) error {
	switch {
	case incoming == nil:
		return original
	case original == nil:
		return incoming
	}
	return errors.Join(original, incoming)
}

// ErrorCollector gathers errors from a known number of goroutines
type ErrorCollector struct {
	C  chan error
	Wg sync.WaitGroup
}

// CollectErrors returns an ErrorCollector expecting n goroutines; each must call Wg.Done
func CollectErrors(n int) *ErrorCollector {
	e := &ErrorCollector{C: make(chan error, n)}
	e.Wg.Add(n)
	return e
}

// Collect waits for all goroutines and returns their errors joined
func (e *ErrorCollector) Collect() error {
	e.Wg.Wait()
	close(e.C)
	var errs error
	for err := range e.C {
		errs = AppendError(errs, err)
	}
	return errs
}

// Lower0x lowercases a hex string and guarantees the 0x prefix
func Lower0x(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}
