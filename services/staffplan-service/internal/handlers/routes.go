package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/staffplan/libs/httpx"
)

type registrar interface {
	Register(mux *http.ServeMux)
}

// API mounts every /api route on a dedicated mux wrapped by guard, and the
// result under /api/ on root.
func API(root *http.ServeMux, guard httpx.Middleware, routes ...registrar) {
	api := http.NewServeMux()
	for _, r := range routes {
		r.Register(api)
	}
	var h http.Handler = api
	if guard != nil {
		h = guard(api)
	}
	root.Handle("/api/", h)
}
