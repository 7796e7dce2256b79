package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cyberdna/pkg/logging"
)

// Request is a GraphQL HTTP request body
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response is a GraphQL HTTP response body
type Response struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Error is one GraphQL error
type Error struct {
	Message string `json:"message"`
}

// Handler serves a schema over HTTP POST
type Handler struct {
	schema   graphql.Schema
	maxDepth int
	logger   logging.Logger
}

// NewHandler creates a handler. maxDepth <= 0 uses DefaultMaxDepth.
func NewHandler(schema graphql.Schema, maxDepth int, logger logging.Logger) *Handler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{schema: schema, maxDepth: maxDepth, logger: logger.With(logging.Component("graphql"))}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		h.respond(w, Response{Errors: []Error{{Message: err.Error()}}})
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	resp := Response{Data: result.Data}
	if result.HasErrors() {
		resp.Errors = make([]Error, len(result.Errors))
		for i, err := range result.Errors {
			resp.Errors[i] = Error{Message: err.Message}
		}
		h.logger.Debug("query returned errors", logging.Count(len(result.Errors)), logging.String("first", result.Errors[0].Message))
	}
	h.respond(w, resp)
}

func (h *Handler) respond(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to encode response", logging.Error(err))
	}
}
