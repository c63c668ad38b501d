package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"stylestudio/internal/http/handlers"
	"stylestudio/internal/middleware"
)

// Options configures the router beyond the handlers themselves.
type Options struct {
	JWTSecret       string
	ClientURLs      []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	UploadDir       string
	OutputDir       string
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.ClientURLs),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/api/health", app.Health)
	r.Get("/api/image/styles", app.ListStyles)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Post("/api/image/transform", app.TransformImage)
		r.Route("/api/history", func(r chi.Router) {
			r.Get("/", app.ListHistory)
			r.Get("/{id}", app.GetHistory)
			r.Get("/{id}/archive", app.HistoryArchive)
			r.Delete("/{id}", app.DeleteHistory)
		})
	})

	if opts.UploadDir != "" {
		mountStatic(r, "/uploads", opts.UploadDir)
	}
	if opts.OutputDir != "" {
		mountStatic(r, "/outputs", opts.OutputDir)
	}
	return r
}

// mountStatic serves files from dir under prefix without directory listings.
func mountStatic(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(noListing{http.Dir(dir)}))
	r.With(middleware.PublicAssets).Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}

type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
