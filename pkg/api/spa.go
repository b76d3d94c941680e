// Source: https://github.com/mandrigin/gin-spa
//
// MIT License
//
// Copyright (c) 2020 Igor Mandrigin
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// cacheControlWriter wraps http.ResponseWriter to set Cache-Control headers
// based on the request path before writing the response.
type cacheControlWriter struct {
	http.ResponseWriter
	path        string
	wroteHeader bool
}

func (w *cacheControlWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Set("Cache-Control", cacheControlFor(w.path, statusCode))
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// cacheControlFor picks the cache policy for a static response. Bundler
// output under /assets/ carries content hashes and never changes.
func cacheControlFor(p string, statusCode int) string {
	switch {
	case statusCode >= http.StatusBadRequest:
		return "no-store"
	case strings.HasPrefix(p, "/assets/"):
		return "public, max-age=31536000, immutable"
	case strings.HasSuffix(p, ".html") || p == "/":
		return "no-cache, must-revalidate"
	default:
		return "public, max-age=3600, must-revalidate"
	}
}

// ServeSPA serves files from spaDirectory under urlPrefix and falls back to
// index.html for client-side routes. Missing files with an extension are a
// plain 404 so a broken asset reference does not load the app shell as script
// or image. Cache policy is chosen on the path relative to urlPrefix.
func ServeSPA(urlPrefix, spaDirectory string) gin.HandlerFunc {
	directory := static.LocalFile(spaDirectory, true)
	fileserver := http.FileServer(directory)
	base := strings.TrimSuffix(urlPrefix, "/")
	if base != "" {
		fileserver = http.StripPrefix(base, fileserver)
	}
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		rel := "/" + strings.TrimPrefix(strings.TrimPrefix(p, base), "/")
		switch {
		case directory.Exists(urlPrefix, p):
			fileserver.ServeHTTP(&cacheControlWriter{ResponseWriter: c.Writer, path: rel}, c.Request)
		case path.Ext(rel) != "":
			c.Header("Cache-Control", "no-store")
			c.Status(http.StatusNotFound)
		default:
			c.Request.URL.Path = base + "/"
			fileserver.ServeHTTP(&cacheControlWriter{ResponseWriter: c.Writer, path: "/"}, c.Request)
		}
		c.Abort()
	}
}
