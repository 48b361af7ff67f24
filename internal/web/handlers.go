package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/auth"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/deploy"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/registry"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/store"
	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// registerHandler creates a new user account
func (ws *WebServer) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(fmt.Errorf("%w: email and password are required", api.ErrValidation))
		return
	}

	identity, err := ws.authManager.Register(req.Email, req.Password, req.Name)
	if err != nil {
		c.Error(err)
		return
	}

	token := ws.authManager.IssueToken(identity.ID)
	ws.setTokenCookie(c, token)
	ws.audit(identity.ID, "register", identity.Email, "")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    identity,
		"token":   token,
	})
}

// loginHandler authenticates a user and issues a session token
func (ws *WebServer) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(fmt.Errorf("%w: email and password are required", api.ErrValidation))
		return
	}

	identity, err := ws.authManager.Login(req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token := ws.authManager.IssueToken(identity.ID)
	ws.setTokenCookie(c, token)
	ws.audit(identity.ID, "login", identity.Email, "")

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    identity,
		"token":   token,
	})
}

// logoutHandler invalidates the caller's session token
func (ws *WebServer) logoutHandler(c *gin.Context) {
	if token, err := c.Cookie("token"); err == nil {
		ws.authManager.Logout(token)
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		ws.authManager.Logout(strings.TrimPrefix(h, "Bearer "))
	}

	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// meHandler returns the authenticated caller's identity
func (ws *WebServer) meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": auth.CallerIdentity(c)})
}

func (ws *WebServer) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie("token", token, 7*24*3600, "/", "", false, true)
}

// uploadHandler accepts a zip archive and materializes it for deployment
func (ws *WebServer) uploadHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ws.maxUploadSize)

	file, header, err := c.Request.FormFile("frontend")
	if err != nil {
		c.Error(fmt.Errorf("%w: no frontend archive uploaded", api.ErrValidation))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		c.Error(fmt.Errorf("%w: only zip archives are accepted", api.ErrValidation))
		return
	}

	upload, err := ws.materializer.Materialize(file)
	if err != nil {
		c.Error(err)
		return
	}

	identity := auth.CallerIdentity(c)
	ws.audit(identity.ID, "upload", upload.ID, fmt.Sprintf("%d files", upload.FileCount))

	c.JSON(http.StatusOK, api.UploadResponse{
		Success:      true,
		UploadID:     upload.ID,
		FrontendType: string(upload.FrontendType),
		FileCount:    upload.FileCount,
	})
}

// templatesHandler lists the available backend templates
func (ws *WebServer) templatesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": store.Catalog()})
}

// deployHandler starts a deployment from a previously completed upload
func (ws *WebServer) deployHandler(c *gin.Context) {
	var req api.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UploadID == "" || req.TemplateID == "" {
		c.Error(fmt.Errorf("%w: uploadId and templateId are required", api.ErrValidation))
		return
	}

	sourceDir, err := ws.materializer.Dir(req.UploadID)
	if err != nil {
		c.Error(err)
		return
	}

	identity := auth.CallerIdentity(c)
	appID := deploy.GenerateAppID()

	name := req.Name
	if name == "" {
		count, err := ws.registry.Count()
		if err != nil {
			count = 0
		}
		name = fmt.Sprintf("App %d", count+1)
	}

	ws.orchestrator.Start(deploy.Request{
		SourceDir:  sourceDir,
		TemplateID: req.TemplateID,
		AppID:      appID,
		OwnerID:    identity.ID,
		Name:       name,
	})

	ws.audit(identity.ID, "deploy", appID, fmt.Sprintf("template=%s", req.TemplateID))

	c.JSON(http.StatusOK, api.DeployResponse{
		Success: true,
		AppID:   appID,
		URL:     fmt.Sprintf("/apps/%s", appID),
		Message: "Deployment started",
	})
}

// statusHandler reports the deployment status of an app
func (ws *WebServer) statusHandler(c *gin.Context) {
	appID := c.Param("appId")

	record, ok := ws.tracker.Get(appID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "not_found"})
		return
	}

	identity := auth.CallerIdentity(c)
	if record.OwnerID != identity.ID && !identity.IsAdmin() {
		c.Error(fmt.Errorf("%w: not your app", api.ErrForbidden))
		return
	}

	c.JSON(http.StatusOK, record)
}

// myAppsHandler lists the caller's deployed apps
func (ws *WebServer) myAppsHandler(c *gin.Context) {
	identity := auth.CallerIdentity(c)

	entries, err := ws.registry.ListAll()
	if err != nil {
		c.Error(err)
		return
	}

	apps := []api.AppSummary{}
	for appID, entry := range entries {
		if entry.OwnerID != identity.ID {
			continue
		}
		apps = append(apps, ws.summarize(appID, entry, false))
	}

	c.JSON(http.StatusOK, gin.H{"apps": apps})
}

// adminAppsHandler lists every deployed app with owner details
func (ws *WebServer) adminAppsHandler(c *gin.Context) {
	entries, err := ws.registry.ListAll()
	if err != nil {
		c.Error(err)
		return
	}

	apps := []api.AppSummary{}
	for appID, entry := range entries {
		apps = append(apps, ws.summarize(appID, entry, true))
	}

	c.JSON(http.StatusOK, gin.H{"apps": apps})
}

// summarize builds the app listing entry from the registry record,
// the in-memory deployment status and the document store stats
func (ws *WebServer) summarize(appID string, entry registry.Entry, withOwner bool) api.AppSummary {
	status := "stopped"
	if record, ok := ws.tracker.Get(appID); ok {
		status = string(record.Status)
	}

	summary := api.AppSummary{
		ID:        appID,
		Name:      entry.Name,
		OwnerID:   entry.OwnerID,
		Template:  entry.Template,
		CreatedAt: entry.CreatedAt,
		Status:    status,
		URL:       fmt.Sprintf("/apps/%s", appID),
		DBStats:   ws.stores.Stats(appID),
	}

	if withOwner {
		summary.Owner = ws.authManager.LookupOwner(entry.OwnerID)
	}

	return summary
}

// adminAuditHandler returns the most recent audit log entries
func (ws *WebServer) adminAuditHandler(c *gin.Context) {
	if ws.auditLogger == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []api.ErrorResponse{}})
		return
	}

	entries, err := ws.auditLogger.Recent(100)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// deleteAppHandler removes a deployed app, its files and its data
func (ws *WebServer) deleteAppHandler(c *gin.Context) {
	appID := c.Param("appId")
	identity := auth.CallerIdentity(c)

	entry, err := ws.registry.Get(appID)
	if err != nil {
		c.Error(err)
		return
	}

	if entry.OwnerID != identity.ID && !identity.IsAdmin() {
		c.Error(fmt.Errorf("%w: not your app", api.ErrForbidden))
		return
	}

	ws.orchestrator.Cancel(appID)
	ws.tracker.Remove(appID)

	if err := os.RemoveAll(ws.orchestrator.AppDir(appID)); err != nil {
		c.Error(fmt.Errorf("failed to remove app files: %w", err))
		return
	}

	if err := ws.registry.Remove(appID); err != nil {
		c.Error(err)
		return
	}

	ws.audit(identity.ID, "delete_app", appID, "")
	c.JSON(http.StatusOK, gin.H{"message": "App deleted"})
}

// stopAppHandler clears the in-memory status of an app, which makes it
// show as stopped in listings while leaving its files and data in place
func (ws *WebServer) stopAppHandler(c *gin.Context) {
	appID := c.Param("appId")
	ws.orchestrator.Cancel(appID)

	if !ws.tracker.Remove(appID) {
		c.Error(fmt.Errorf("%w: app %s has no active status", api.ErrNotFound, appID))
		return
	}

	identity := auth.CallerIdentity(c)
	ws.audit(identity.ID, "stop_app", appID, "")

	c.JSON(http.StatusOK, gin.H{"message": "App stopped"})
}

// dashboardHandler serves the platform dashboard page
func (ws *WebServer) dashboardHandler(c *gin.Context) {
	c.File(filepath.Join(ws.publicDir, "index.html"))
}

// adminPageHandler serves the admin console page
func (ws *WebServer) adminPageHandler(c *gin.Context) {
	c.File(filepath.Join(ws.publicDir, "admin.html"))
}

// audit records an audit entry when an audit logger is configured
func (ws *WebServer) audit(userID, action, resource, details string) {
	if ws.auditLogger != nil {
		ws.auditLogger.Record(userID, action, resource, details)
	}
}
