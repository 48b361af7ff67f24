package api

import (
	"errors"
	"time"
)

// Identity is a verified caller identity attached to every authenticated
// request. The core only compares it against ownership records; credential
// checks happen in the auth layer.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the identity carries administrative privilege.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

const (
	// RoleAdmin is the administrative role
	RoleAdmin = "admin"
	// RoleUser is the default role for registered users
	RoleUser = "user"
)

// DeployState represents a stage of the deployment pipeline
type DeployState string

const (
	// DeployStarting indicates the deployment has been accepted
	DeployStarting DeployState = "starting"
	// DeployCopyingFiles indicates the uploaded tree is being copied into place
	DeployCopyingFiles DeployState = "copying_files"
	// DeployInitializingDatabase indicates the document store is being seeded
	DeployInitializingDatabase DeployState = "initializing_database"
	// DeployInjectingSDK indicates the client SDK is being injected
	DeployInjectingSDK DeployState = "injecting_sdk"
	// DeployLive indicates the application is deployed and servable
	DeployLive DeployState = "live"
	// DeployFailed indicates the deployment terminated with an error
	DeployFailed DeployState = "failed"
)

// StatusRecord is the transient, in-memory deployment status of one
// application. It is never persisted; a process restart loses it.
type StatusRecord struct {
	Status   DeployState `json:"status"`
	Progress int         `json:"progress"`
	OwnerID  string      `json:"ownerId"`
	Error    string      `json:"error,omitempty"`
	URL      string      `json:"url,omitempty"`
}

// DBStats summarizes an application's document store. Values are best
// effort: a missing or corrupt store file reports zeros.
type DBStats struct {
	Size         int64 `json:"size"`
	Collections  int   `json:"collections"`
	TotalRecords int   `json:"totalRecords"`
}

// AppSummary merges registry metadata with live status and store statistics
type AppSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
	URL       string    `json:"url"`
	DBStats   DBStats   `json:"dbStats"`
	Owner     *Owner    `json:"owner,omitempty"`
}

// Owner identifies the owning user in administrative listings
type Owner struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Template describes one entry of the closed template catalog
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UploadResponse is returned after an archive has been extracted
type UploadResponse struct {
	Success      bool   `json:"success"`
	UploadID     string `json:"uploadId"`
	FrontendType string `json:"frontendType"`
	FileCount    int    `json:"fileCount"`
}

// DeployRequest asks for a deployment of a previously uploaded archive
type DeployRequest struct {
	UploadID   string `json:"uploadId" binding:"required"`
	TemplateID string `json:"templateId" binding:"required"`
	Name       string `json:"name"`
}

// DeployResponse acknowledges a started deployment
type DeployResponse struct {
	Success bool   `json:"success"`
	AppID   string `json:"appId"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// ErrorResponse is the JSON shape of every error returned by the API
type ErrorResponse struct {
	Error string `json:"error"`
}

// Sentinel errors for the request-time error kinds. The web layer maps them
// to HTTP statuses; everything else is a 500.
var (
	// ErrValidation indicates a missing or malformed required input
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates failed credential verification
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates an unknown application, upload or store
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller is neither owner nor administrator
	ErrForbidden = errors.New("forbidden")
	// ErrExtraction indicates a malformed archive
	ErrExtraction = errors.New("extraction failed")
	// ErrMethodNotAllowed indicates an unsupported tenant-data operation
	ErrMethodNotAllowed = errors.New("method not allowed")
)
