package httpclient

import (
	"net/http"
	"time"

	"github.com/supplysight/ragapi/internal/config"
)

// New builds the pooled HTTP client shared by the embedding and generation
// provider SDKs, so repeated provider calls reuse connections instead of
// paying the handshake on every request.
func New(cfg config.Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        cfg.HTTPMaxIdleConns,
			MaxIdleConnsPerHost: cfg.HTTPMaxIdleConnsHost,
			IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
		},
		Timeout: 2 * time.Minute,
	}
}
