package controller

import (
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
)

// PprofPrefix is where Pprof mounts the profiling handlers.
const PprofPrefix = "/debug/pprof"

// Pprof registers the net/http/pprof handlers on r under PprofPrefix.
// Named profiles such as heap or goroutine are served by the index handler.
func Pprof(r chi.Router) {
	r.Route(PprofPrefix, func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		r.HandleFunc("/{profile}", pprof.Index)
	})
}
