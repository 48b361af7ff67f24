package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/auth"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/store"
	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// tenantDataHandler serves the per-app document store API. Every request is
// checked against the app registry: the app must exist and the caller must
// be its owner or an admin.
func (ws *WebServer) tenantDataHandler(c *gin.Context) {
	appID := c.Param("appId")

	entry, err := ws.registry.Get(appID)
	if err != nil {
		c.Error(err)
		return
	}

	identity := auth.CallerIdentity(c)
	if entry.OwnerID != identity.ID && !identity.IsAdmin() {
		c.Error(fmt.Errorf("%w: not your app", api.ErrForbidden))
		return
	}

	collection, recordID := splitDataPath(c.Param("collection"))

	switch c.Request.Method {
	case http.MethodGet:
		switch {
		case collection == "":
			ws.listCollections(c, appID)
		case recordID == "":
			ws.listRecords(c, appID, collection)
		default:
			ws.getRecord(c, appID, collection, recordID)
		}
	case http.MethodPost:
		if collection == "" || recordID != "" {
			c.Error(fmt.Errorf("%w: collection name is required", api.ErrValidation))
			return
		}
		ws.createRecord(c, appID, collection)
	default:
		c.Error(fmt.Errorf("%w: %s is not supported on the data API", api.ErrMethodNotAllowed, c.Request.Method))
	}
}

// splitDataPath splits the wildcard remainder into at most a collection name
// and a record identifier
func splitDataPath(raw string) (collection, recordID string) {
	parts := strings.SplitN(strings.Trim(raw, "/"), "/", 2)
	collection = parts[0]
	if len(parts) == 2 {
		recordID = parts[1]
	}
	return collection, recordID
}

func (ws *WebServer) listCollections(c *gin.Context, appID string) {
	collections, err := ws.stores.Collections(appID)
	if err != nil {
		c.Error(err)
		return
	}

	ws.countTenantOp("list_collections")
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

func (ws *WebServer) listRecords(c *gin.Context, appID, collection string) {
	records, err := ws.stores.List(appID, collection)
	if err != nil {
		c.Error(err)
		return
	}

	ws.countTenantOp("list_records")
	c.JSON(http.StatusOK, records)
}

func (ws *WebServer) getRecord(c *gin.Context, appID, collection, recordID string) {
	record, err := ws.stores.Get(appID, collection, recordID)
	if err != nil {
		c.Error(err)
		return
	}

	ws.countTenantOp("get_record")
	c.JSON(http.StatusOK, record)
}

func (ws *WebServer) createRecord(c *gin.Context, appID, collection string) {
	var attrs store.Record
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.Error(fmt.Errorf("%w: request body must be a JSON object", api.ErrValidation))
		return
	}

	record, err := ws.stores.Create(appID, collection, attrs)
	if err != nil {
		c.Error(err)
		return
	}

	ws.countTenantOp("create_record")
	c.JSON(http.StatusCreated, record)
}

func (ws *WebServer) countTenantOp(operation string) {
	if ws.metrics != nil {
		ws.metrics.TenantDataOp(operation)
	}
}
