// Package site serves the embedded marketing site and its assets.
package site

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Error constants
var (
	ErrPageNotFound = errors.New("page not found")
)

// pages maps each public path to its embedded file.
var pages = map[string]string{
	"/":               "index.html",
	"/loans":          "loans.html",
	"/eligibility":    "eligibility.html",
	"/emi-calculator": "emi-calculator.html",
	"/apply":          "apply.html",
	"/faq":            "faq.html",
	"/privacy":        "privacy.html",
	"/terms":          "terms.html",
	"/contact":        "contact.html",
	"/admin":          "admin.html",
}

// Paths returns the public page paths.
func Paths() []string {
	out := make([]string, 0, len(pages))
	for p := range pages {
		out = append(out, p)
	}
	return out
}

// Register attaches the site pages and the /assets/ tree to mux. It claims
// "GET /", so API routes must be registered with more specific patterns.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /assets/", http.FileServer(FS()))
	mux.HandleFunc("GET /", NewRootHandler().HandleRoot)
}

// RootHandler resolves a request path to an embedded page.
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot serves the page for r's path, tolerating a trailing slash, and
// answers 404 for anything else.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	file, ok := pages[path]
	if !ok {
		serveNotFound(w)
		return
	}
	body, err := staticFS.ReadFile("static/" + file)
	if err != nil {
		serveNotFound(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func serveNotFound(w http.ResponseWriter) {
	body, err := staticFS.ReadFile("static/404.html")
	if err != nil {
		http.Error(w, ErrPageNotFound.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(body)
}
