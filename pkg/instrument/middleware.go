// Package instrument times HTTP handlers as call sites.
package instrument

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/psantana5/calltiming/pkg/timing"
)

// HTTPMiddleware times every request on its own site, one per method and
// route template ("GET /jobs/{id}"). Requests outside a mux route use the
// raw path. opts apply to each site when it is first registered.
func HTTPMiddleware(reg *timing.Registry, opts ...timing.Option) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			site := reg.Register(RouteIdentity(r), opts...)
			inv := site.Begin()
			defer inv.End()

			next.ServeHTTP(w, r)
		})
	}
}

// RouteIdentity names the site for a request
func RouteIdentity(r *http.Request) timing.SiteIdentity {
	path := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			path = tmpl
		}
	}
	return timing.SiteIdentity{
		Type:   "http",
		Method: r.Method + " " + path,
	}
}
