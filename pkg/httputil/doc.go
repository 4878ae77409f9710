// Package httputil provides the HTTP plumbing shared by ruleflow's server.
//
// # Overview
//
// The server is a thin host around the pipeline runner. This package holds
// the pieces that are not specific to any one route:
//
//   - [WriteJSON] and [WriteError]: JSON responses, with coded errors from
//     pkg/errors mapped to HTTP status codes by [StatusFor]
//   - [RequestID]: assigns every request a UUID, echoed in X-Request-ID
//   - [LimitBody]: rejects bodies larger than a fixed size
//   - [Observe]: reports requests to the registered observability.ServerHooks
//
// # Error Responses
//
// Every error response has the same shape:
//
//	{
//	  "error": "Bad Request",
//	  "code": "INVALID_FORMAT",
//	  "message": "unsupported format \"gif\"",
//	  "request_id": "5f0c..."
//	}
//
// Usage with chi:
//
//	r := chi.NewRouter()
//	r.Use(httputil.RequestID, httputil.Observe, httputil.LimitBody(maxBody))
package httputil
