package fakesite

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// maxUploadMemory bounds how much of an upload is buffered in memory;
// the rest spills to temporary files.
const maxUploadMemory = 32 << 20

// Store is the storage a Site serves from.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Write(ctx context.Context, path string, content io.Reader) (WriteResult, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// Site serves the list, upload and delete endpoints for one site.
type Site struct {
	store       Store
	apiKey      string
	corsOrigins []string
}

// Option configures a Site.
type Option func(*Site)

// WithCORS allows browser requests from the given origins.
func WithCORS(origins ...string) Option {
	return func(s *Site) {
		s.corsOrigins = origins
	}
}

// New creates a Site storing its files under root and accepting apiKey
// as the only valid credential.
func New(root *os.Root, apiKey string, opts ...Option) *Site {
	return NewWithStore(NewFileStore(root), apiKey, opts...)
}

// NewWithStore creates a Site on top of an arbitrary Store.
func NewWithStore(store Store, apiKey string, opts ...Option) *Site {
	s := &Site{store: store, apiKey: apiKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the site's http.Handler.
func (s *Site) Router() http.Handler {
	r := chi.NewRouter()

	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(s.apiKey))
		r.Get("/list", s.handleList)
		r.Post("/upload", s.handleUpload)
		r.Post("/delete", s.handleDelete)
	})

	return r
}

// BearerAuth rejects requests whose Authorization header does not carry
// apiKey as a bearer token.
func BearerAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				WriteError(w, http.StatusUnauthorized, errTypeInvalidAuth, "invalid credentials - please check your api key and try again")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Site) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	if files == nil {
		files = []Entry{}
	}

	_ = WriteJSON(w, http.StatusOK, ListResponse{Result: "success", Files: files})
}

func (s *Site) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, errTypeBadRequest, "could not parse upload: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	names := make([]string, 0, len(r.MultipartForm.File))
	for name := range r.MultipartForm.File {
		names = append(names, name)
	}
	if len(names) == 0 {
		WriteError(w, http.StatusBadRequest, errTypeMissingFiles, "you must pass files to upload")
		return
	}
	sort.Strings(names)

	paths := make(map[string]string, len(names))
	for _, name := range names {
		p, ok := CleanPath(name)
		if !ok {
			HandleError(w, fmt.Errorf("%w: %s", ErrInvalidPath, name))
			return
		}
		paths[name] = p
	}

	for _, name := range names {
		for _, fh := range r.MultipartForm.File[name] {
			res, err := s.storePart(r.Context(), paths[name], fh)
			if err != nil {
				HandleError(w, err)
				return
			}
			slog.Debug("stored file", "path", paths[name], "size", res.BytesWritten, "sha1", res.SHA1Hash)
		}
	}

	_ = WriteJSON(w, http.StatusOK, SuccessResponse{
		Result:  "success",
		Message: "your file(s) have been successfully uploaded",
	})
}

func (s *Site) storePart(ctx context.Context, p string, fh *multipart.FileHeader) (WriteResult, error) {
	f, err := fh.Open()
	if err != nil {
		return WriteResult{}, fmt.Errorf("open part %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()

	return s.store.Write(ctx, p, f)
}

func (s *Site) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, errTypeBadRequest, "could not parse form: "+err.Error())
		return
	}

	names := r.PostForm["filenames[]"]
	if len(names) == 0 {
		WriteError(w, http.StatusBadRequest, errTypeMissingFiles, "you must provide files to delete")
		return
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, ok := CleanPath(name)
		if !ok {
			HandleError(w, fmt.Errorf("%w: %s", ErrInvalidPath, name))
			return
		}

		exists, err := s.store.Exists(r.Context(), p)
		if err != nil {
			HandleError(w, err)
			return
		}
		if !exists {
			HandleError(w, fmt.Errorf("%w: %s was not found on your site, canceled deleting", ErrNotFound, name))
			return
		}
		paths = append(paths, p)
	}

	for _, p := range paths {
		if err := s.store.Delete(r.Context(), p); err != nil {
			HandleError(w, err)
			return
		}
	}

	_ = WriteJSON(w, http.StatusOK, SuccessResponse{
		Result:  "success",
		Message: "file(s) have been deleted",
	})
}
