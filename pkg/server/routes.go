package server

import (
	"net/http"

	"github.com/dd0wney/cyberdna/pkg/auth"
	"github.com/dd0wney/cyberdna/pkg/health"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/metrics"
)

// MaxBodyBytes bounds GraphQL request bodies
const MaxBodyBytes = 1 << 20

// Routes are the handlers mounted by NewRouter. Nil handlers are not
// mounted.
type Routes struct {
	GraphQL http.Handler
	Health  *health.HealthChecker
	Metrics *metrics.Registry
	// JWT guards /graphql when set
	JWT    *auth.JWTManager
	Logger logging.Logger
}

// NewRouter mounts /graphql, /health, /ready and /metrics behind the
// request ID, recovery and instrumentation middleware
func NewRouter(routes Routes) http.Handler {
	logger := routes.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("http"))

	mux := http.NewServeMux()
	if routes.GraphQL != nil {
		gql := auth.Middleware(routes.JWT, logger)(routes.GraphQL)
		mux.Handle("/graphql", BodySizeLimit(MaxBodyBytes)(gql))
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health.HTTPHandler())
		mux.Handle("GET /ready", routes.Health.ReadinessHandler())
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics.Handler())
	}

	var h http.Handler = mux
	h = Instrument(routes.Metrics, logger)(h)
	h = Recovery(logger)(h)
	h = RequestID()(h)
	return h
}
