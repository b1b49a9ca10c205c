package middleware

import (
	"net/http"
	"strconv"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/handlers"
	"github.com/supplysight/ragapi/internal/metrics"
	"github.com/supplysight/ragapi/pkg/logx"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logx.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var (
	cfg             config.Config
	limiterInstance *IPRateLimiter
)

// Init wires the middleware chain to the runtime configuration. Must run
// before any wrapped handler serves traffic.
func Init(c config.Config) {
	cfg = c
	limiterInstance = NewIPRateLimiter(rate.Limit(c.RateLimitPerSecond), c.BurstLimitPerSecond)
}

var (
	GetHandler            = Wrap(handlers.GetHandler)
	AskHandler            = Wrap(handlers.AskHandler)
	GetStatusHandler      = Wrap(handlers.GetStatusHandler)
	PostDocumentHandler   = Wrap(handlers.PostDocumentHandler)
	ListDocumentsHandler  = Wrap(handlers.ListDocumentsHandler)
	GetDocumentHandler    = Wrap(handlers.GetDocumentHandler)
	DeleteDocumentHandler = Wrap(handlers.DeleteDocumentHandler)
	GetHistoryHandler     = Wrap(handlers.GetHistoryHandler)
	DeleteHistoryHandler  = Wrap(handlers.DeleteHistoryHandler)
)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logx.New("middleware")

	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re = rateLimiter(re)
	return re
}
