package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/assets"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/deploy"
)

const appNotFoundPage = `<!DOCTYPE html>
<html>
<head><title>App Not Found</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 4rem;">
<h1>404</h1>
<p>This app does not exist or has no entry page.</p>
</body>
</html>`

// serveAppHandler serves the static files of a deployed application from
// its frontend directory under the deploy root
func (ws *WebServer) serveAppHandler(c *gin.Context) {
	appID := c.Param("appId")
	frontendDir := filepath.Join(ws.orchestrator.AppDir(appID), deploy.FrontendDir)

	if _, err := os.Stat(frontendDir); err != nil {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(appNotFoundPage))
		return
	}

	requested := strings.TrimPrefix(c.Param("filepath"), "/")

	if requested == "" {
		ws.serveAppEntry(c, frontendDir)
		return
	}

	// Reject any path that would escape the frontend directory
	target := filepath.Join(frontendDir, filepath.FromSlash(requested))
	rel, err := filepath.Rel(frontendDir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(appNotFoundPage))
		return
	}

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		c.File(target)
		return
	}

	// Assets shipped next to the entry document may be referenced with
	// root-relative paths by the app
	if entry, ok := assets.FindEntry(frontendDir); ok {
		sibling := filepath.Join(filepath.Dir(entry), filepath.FromSlash(requested))
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			c.File(sibling)
			return
		}

		// Single-page apps route on the client side, so unknown
		// extensionless paths fall back to the entry document
		if filepath.Ext(requested) == "" {
			c.File(entry)
			return
		}
	}

	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(appNotFoundPage))
}

// serveAppEntry serves the application entry document
func (ws *WebServer) serveAppEntry(c *gin.Context, frontendDir string) {
	entry, ok := assets.FindEntry(frontendDir)
	if !ok {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(appNotFoundPage))
		return
	}

	c.File(entry)
}
