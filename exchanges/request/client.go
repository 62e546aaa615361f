package request

import (
	"net/http"
	"sync"
)

// trackedClients ensures an http.Client is only ever owned by one Requester
var trackedClients sync.Map

func claimClient(c *http.Client) error {
	if c == nil {
		return errNoHTTPClient
	}
	if _, loaded := trackedClients.LoadOrStore(c, struct{}{}); loaded {
		return errCannotReuseHTTPClient
	}
	return nil
}

func releaseClient(c *http.Client) {
	trackedClients.Delete(c)
}
