package serverapp

import (
	"net/http"

	"villagenird/internal/game"

	"github.com/a-h/templ"
)

//go:generate templ generate -f status.templ

func statusPageHandler(svc *game.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		recs, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		templ.Handler(statusPage(recs, svc.Catalogue())).ServeHTTP(w, r)
	})
}
