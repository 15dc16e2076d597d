package helpers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESConfig describes the search cluster. MaxRetries of zero keeps the client default.
type ESConfig struct {
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
}

// NewESClient builds a client that retries gateway errors with a linear backoff.
func NewESClient(cfg ESConfig) (*elasticsearch.Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("elasticsearch: no addresses")
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Addrs,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

// PingES fails when the cluster is unreachable or answers with an error status.
func PingES(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}
