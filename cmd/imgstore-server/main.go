// Command imgstore-server exposes a single image store over HTTP: listing,
// reading at a resolution, deleting, and a two-step chunked insert.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nicolasduc/imgstore/pkg/logging"
	"github.com/nicolasduc/imgstore/pkg/store"
)

const (
	listeningAddr = "localhost:8000"
	tmpDirectory  = "/tmp/imgstore-uploads"
)

// server wraps a single open store behind a mutex; the store's own
// single-writer lock already forbids a second process from opening it
// read-write, but within this process every handler still needs to
// serialize access to the shared in-memory slot table.
type server struct {
	mu    sync.Mutex
	store *store.Store
	log   interface {
		Info(string, ...interface{})
		Error(string, ...interface{})
	}
}

func main() {
	var path string
	var addr string
	flag.StringVar(&path, "store", "", "Path to the image store file (required)")
	flag.StringVar(&addr, "addr", listeningAddr, "Address to listen on")
	flag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: imgstore-server --store <file> [--addr host:port]")
		os.Exit(1)
	}

	logger := logging.NewLogger("server", logging.GetLogLevel(), os.Stderr)

	s, err := store.Open(path, store.OpenReadWrite, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(store.ExitCode(err))
	}
	defer s.Close()

	if err := os.MkdirAll(tmpDirectory, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv := &server{store: s, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/list", srv.handleList)
	mux.HandleFunc("/read", srv.handleRead)
	mux.HandleFunc("/delete", srv.handleDelete)
	mux.HandleFunc("/upload", srv.handleUpload)
	mux.HandleFunc("/insert", srv.handleInsert)

	logger.Info("🌐 starting imgstore server", "addr", addr, "store", path)
	fmt.Printf("Starting imgStore server on http://%s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (s *server) errorReply(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := s.store.WriteListJSON(w); err != nil {
		s.errorReply(w, err)
	}
}

func (s *server) handleRead(w http.ResponseWriter, r *http.Request) {
	imgID := r.URL.Query().Get("img_id")
	resName := r.URL.Query().Get("res")
	if imgID == "" {
		s.errorReply(w, fmt.Errorf("%w: missing img_id", store.ErrInvalidArgument))
		return
	}
	res, err := parseResolutionQuery(resName)
	if err != nil {
		s.errorReply(w, err)
		return
	}

	s.mu.Lock()
	data, err := s.store.Read(imgID, res)
	s.mu.Unlock()
	if err != nil {
		s.errorReply(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	imgID := r.URL.Query().Get("img_id")
	if imgID == "" {
		s.errorReply(w, fmt.Errorf("%w: missing img_id", store.ErrInvalidArgument))
		return
	}

	s.mu.Lock()
	err := s.store.Delete(imgID)
	s.mu.Unlock()
	if err != nil {
		s.errorReply(w, err)
		return
	}

	http.Redirect(w, r, "/index.html", http.StatusFound)
}

// handleUpload appends a chunk of the raw request body to the temp file for
// img_id. Mongoose's mg_http_upload let the client request arbitrary
// chunking; this does the same by always opening for append.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	imgID := r.URL.Query().Get("name")
	if imgID == "" || strings.ContainsAny(imgID, "/\\") {
		s.errorReply(w, fmt.Errorf("%w: invalid or missing name", store.ErrInvalidImgID))
		return
	}

	f, err := os.OpenFile(filepath.Join(tmpDirectory, imgID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.errorReply(w, fmt.Errorf("%w: %v", store.ErrIO, err))
		return
	}
	defer f.Close()

	if _, err := io.Copy(f, r.Body); err != nil {
		s.errorReply(w, fmt.Errorf("%w: %v", store.ErrIO, err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleInsert commits a previously uploaded file into the store.
//
// The original implementation trusted a client-supplied "offset" query
// parameter as the uploaded file's size. This instead stats the uploaded
// temp file directly, so a client cannot make the server read past (or
// short of) what was actually written to disk.
func (s *server) handleInsert(w http.ResponseWriter, r *http.Request) {
	imgID := r.URL.Query().Get("name")
	if imgID == "" || strings.ContainsAny(imgID, "/\\") {
		s.errorReply(w, fmt.Errorf("%w: invalid or missing name", store.ErrInvalidImgID))
		return
	}

	path := filepath.Join(tmpDirectory, imgID)
	info, err := os.Stat(path)
	if err != nil {
		s.errorReply(w, fmt.Errorf("%w: no upload found for %s", store.ErrFileNotFound, imgID))
		return
	}

	data := make([]byte, info.Size())
	f, err := os.Open(path)
	if err != nil {
		s.errorReply(w, fmt.Errorf("%w: %v", store.ErrIO, err))
		return
	}
	_, err = io.ReadFull(f, data)
	f.Close()
	if err != nil {
		s.errorReply(w, fmt.Errorf("%w: %v", store.ErrIO, err))
		return
	}
	os.Remove(path)

	s.mu.Lock()
	err = s.store.Insert(imgID, data)
	s.mu.Unlock()
	if err != nil {
		s.errorReply(w, err)
		return
	}

	http.Redirect(w, r, "/index.html", http.StatusFound)
}

func parseResolutionQuery(name string) (int, error) {
	switch name {
	case "thumb", "thumbnail":
		return store.ResThumb, nil
	case "small":
		return store.ResSmall, nil
	case "orig", "original", "":
		return store.ResOrig, nil
	default:
		return 0, fmt.Errorf("%w: unknown resolution %q", store.ErrResolutions, name)
	}
}
