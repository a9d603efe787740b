package fakesite_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/neo/fakesite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "secret-key"

// MockStore is a mock implementation of fakesite.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) List(ctx context.Context) ([]fakesite.Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fakesite.Entry), args.Error(1)
}

func (m *MockStore) Write(ctx context.Context, path string, content io.Reader) (fakesite.WriteResult, error) {
	args := m.Called(ctx, path, content)
	return args.Get(0).(fakesite.WriteResult), args.Error(1)
}

func (m *MockStore) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func newSite(t *testing.T) (string, http.Handler) {
	t.Helper()
	dir, root := openRoot(t)
	return dir, fakesite.New(root, testKey).Router()
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(name, filepath.Base(name))
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return authed(req)
}

func deleteRequest(paths ...string) *http.Request {
	form := url.Values{}
	for _, p := range paths {
		form.Add("filenames[]", p)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/delete", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return authed(req)
}

func decodeError(t *testing.T, body io.Reader) fakesite.ErrorResponse {
	t.Helper()
	var res fakesite.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestBearerAuth(t *testing.T) {
	_, handler := newSite(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong key", header: "Bearer nope"},
		{name: "empty token", header: "Bearer "},
		{name: "basic scheme", header: "Basic " + testKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/list", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			res := decodeError(t, rec.Body)
			assert.Equal(t, "error", res.Result)
			assert.Equal(t, "invalid_auth", res.ErrorType)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestSite_List(t *testing.T) {
	dir, handler := newSite(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "cat.png"), []byte("meow"), 0o600))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/list", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Result string           `json:"result"`
		Files  []map[string]any `json:"files"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "success", res.Result)
	require.Len(t, res.Files, 2)

	assert.Equal(t, "img", res.Files[0]["path"])
	assert.Equal(t, true, res.Files[0]["is_directory"])
	assert.NotContains(t, res.Files[0], "size")
	assert.NotContains(t, res.Files[0], "sha1_hash")

	assert.Equal(t, "img/cat.png", res.Files[1]["path"])
	assert.Equal(t, sha1Hex([]byte("meow")), res.Files[1]["sha1_hash"])
}

func TestSite_Upload(t *testing.T) {
	t.Run("stores each part at its field name", func(t *testing.T) {
		dir, handler := newSite(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, map[string]string{
			"index.html":         "<h1>hi</h1>",
			"dir/sub/report.txt": "report",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := os.ReadFile(filepath.Join(dir, "dir", "sub", "report.txt"))
		require.NoError(t, err)
		assert.Equal(t, "report", string(got))

		got, err = os.ReadFile(filepath.Join(dir, "index.html"))
		require.NoError(t, err)
		assert.Equal(t, "<h1>hi</h1>", string(got))
	})

	t.Run("invalid path stores nothing", func(t *testing.T) {
		dir, handler := newSite(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, map[string]string{
			"ok.txt":      "fine",
			"../evil.txt": "bad",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_file_type", decodeError(t, rec.Body).ErrorType)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("no files", func(t *testing.T) {
		_, handler := newSite(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_files", decodeError(t, rec.Body).ErrorType)
	})

	t.Run("not multipart", func(t *testing.T) {
		_, handler := newSite(t)

		req := authed(httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("x")))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockStore)
		store.On("Write", mock.Anything, "a.txt", mock.Anything).
			Return(fakesite.WriteResult{}, errors.New("disk full"))
		handler := fakesite.NewWithStore(store, testKey).Router()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, map[string]string{"a.txt": "x"}))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "server_error", decodeError(t, rec.Body).ErrorType)
		store.AssertExpectations(t)
	})
}

func TestSite_Delete(t *testing.T) {
	t.Run("removes files and directories", func(t *testing.T) {
		dir, handler := newSite(t)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "cat.png"), []byte("meow"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, deleteRequest("a.txt", "img"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing path deletes nothing", func(t *testing.T) {
		dir, handler := newSite(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, deleteRequest("a.txt", "gone.txt"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		res := decodeError(t, rec.Body)
		assert.Equal(t, "missing_files", res.ErrorType)
		assert.Contains(t, res.Message, "gone.txt")

		_, err := os.Stat(filepath.Join(dir, "a.txt"))
		assert.NoError(t, err)
	})

	t.Run("no filenames", func(t *testing.T) {
		_, handler := newSite(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, deleteRequest())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_files", decodeError(t, rec.Body).ErrorType)
	})

	t.Run("invalid path", func(t *testing.T) {
		_, handler := newSite(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, deleteRequest("/"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_file_type", decodeError(t, rec.Body).ErrorType)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockStore)
		store.On("Exists", mock.Anything, "a.txt").Return(false, errors.New("io error"))
		handler := fakesite.NewWithStore(store, testKey).Router()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, deleteRequest("a.txt"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestSite_ListStoreFailure(t *testing.T) {
	store := new(MockStore)
	store.On("List", mock.Anything).Return(nil, errors.New("io error"))
	handler := fakesite.NewWithStore(store, testKey).Router()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/list", nil)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	store.AssertExpectations(t)
}

func TestSite_ListEmptyStore(t *testing.T) {
	store := new(MockStore)
	store.On("List", mock.Anything).Return([]fakesite.Entry(nil), nil)
	handler := fakesite.NewWithStore(store, testKey).Router()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/list", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"success","files":[]}`, rec.Body.String())
	store.AssertExpectations(t)
}

func TestSite_CORS(t *testing.T) {
	_, root := openRoot(t)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		handler := fakesite.New(root, testKey, fakesite.WithCORS("http://localhost:3000")).Router()

		req := httptest.NewRequest(http.MethodOptions, "/api/list", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disabled by default", func(t *testing.T) {
		handler := fakesite.New(root, testKey).Router()

		req := authed(httptest.NewRequest(http.MethodGet, "/api/list", nil))
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
