// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Adds CORS headers for a configured origin and answers OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//   - WithRecover: Converts handler panics into a JSON 500 response.
//
// Provided helpers:
//   - Pprof: Registers net/http/pprof handlers on a chi router.
package controller
