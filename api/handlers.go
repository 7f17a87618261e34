package api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/docretrieval/internal/apperrors"
	"github.com/gcbaptista/docretrieval/internal/ingest"
	"github.com/gcbaptista/docretrieval/internal/registry"
	"github.com/gcbaptista/docretrieval/model"
)

// API holds the dependencies for every HTTP handler: the collection
// registry for reads (Get/List/Search) and the ingest dispatcher for
// writes (Apply). It is also the sole write-operation log producer for
// this demo surface, so it assigns each operation's Offset itself.
type API struct {
	registry   *registry.Registry
	dispatcher *ingest.Dispatcher

	offsetsMu sync.Mutex
	offsets   map[model.CollectionId]model.Offset
}

// NewAPI creates a new API handler structure.
func NewAPI(reg *registry.Registry, dispatcher *ingest.Dispatcher) *API {
	return &API{
		registry:   reg,
		dispatcher: dispatcher,
		offsets:    make(map[model.CollectionId]model.Offset),
	}
}

// nextOffset hands out the next Offset to assign to an operation for id,
// starting from whatever that collection's commit recovery already
// advanced to.
func (api *API) nextOffset(id model.CollectionId) model.Offset {
	api.offsetsMu.Lock()
	defer api.offsetsMu.Unlock()
	if _, seen := api.offsets[id]; !seen {
		if c, err := api.registry.Get(id); err == nil {
			api.offsets[id] = c.Offset()
		}
	}
	api.offsets[id]++
	return api.offsets[id]
}

// SetupRoutes defines every API route for the retrieval engine.
func SetupRoutes(router *gin.Engine, reg *registry.Registry, dispatcher *ingest.Dispatcher) {
	apiHandler := NewAPI(reg, dispatcher)

	router.GET("/health", apiHandler.HealthCheckHandler)

	collections := router.Group("/collections")
	{
		collections.POST("", apiHandler.CreateCollectionHandler)
		collections.GET("", apiHandler.ListCollectionsHandler)
		collections.DELETE("/:id", apiHandler.DeleteCollectionHandler)
		collections.POST("/:id/fields", apiHandler.CreateFieldHandler)
		collections.POST("/:id/operations", apiHandler.ApplyOperationHandler)
		collections.POST("/:id/_search", apiHandler.SearchHandler)
		collections.POST("/:id/_commit", apiHandler.CommitHandler)
	}
}

// HealthCheckHandler provides a simple liveness endpoint.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "docretrieval",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// CreateCollectionHandler handles the request to create a new collection.
func (api *API) CreateCollectionHandler(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateCollectionID(req.ID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	id := model.CollectionId(req.ID)
	_, err := api.dispatcher.Apply(c.Request.Context(), model.Operation{
		Offset:     api.nextOffset(id),
		Kind:       model.OpCreateCollection,
		Collection: id,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrCollectionExists) {
			SendCollectionExistsError(c, req.ID)
			return
		}
		SendApplyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Collection '" + req.ID + "' created successfully"})
}

// ListCollectionsHandler lists every known collection id.
func (api *API) ListCollectionsHandler(c *gin.Context) {
	ids := api.registry.List()
	c.JSON(http.StatusOK, gin.H{"collections": ids, "count": len(ids)})
}

// DeleteCollectionHandler removes a collection and its on-disk data.
func (api *API) DeleteCollectionHandler(c *gin.Context) {
	id := model.CollectionId(c.Param("id"))
	if err := api.registry.Delete(id); err != nil {
		if errors.Is(err, apperrors.ErrUnknownCollection) {
			SendCollectionNotFoundError(c, string(id))
			return
		}
		SendInternalError(c, "delete collection", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collection '" + string(id) + "' deleted successfully"})
}

// CreateFieldHandler registers a new field on a collection.
func (api *API) CreateFieldHandler(c *gin.Context) {
	id := model.CollectionId(c.Param("id"))

	var req CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateFieldMeta(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	_, err := api.dispatcher.Apply(c.Request.Context(), model.Operation{
		Offset:     api.nextOffset(id),
		Kind:       model.OpCreateField,
		Collection: id,
		Field:      req.toFieldMeta(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownCollection) {
			SendCollectionNotFoundError(c, string(id))
			return
		}
		SendApplyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Field '" + req.Name + "' created successfully"})
}

// ApplyOperationHandler applies one write-operation log entry (a document
// insert or a field index) against a collection.
func (api *API) ApplyOperationHandler(c *gin.Context) {
	id := model.CollectionId(c.Param("id"))

	var req ApplyOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	op := model.Operation{
		Offset:     api.nextOffset(id),
		Collection: id,
		DocID:      model.DocumentId(req.DocID),
	}
	switch req.Kind {
	case "insert_document":
		op.Kind = model.OpInsertDocument
	case "index":
		op.Kind = model.OpIndex
		op.Field = model.FieldMeta{ID: model.FieldId(req.FieldID)}
		op.FieldOp = req.toFieldOp()
	default:
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "kind must be one of insert_document, index")
		return
	}

	if _, err := api.dispatcher.Apply(c.Request.Context(), op); err != nil {
		if errors.Is(err, apperrors.ErrUnknownCollection) {
			SendCollectionNotFoundError(c, string(id))
			return
		}
		SendApplyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "operation applied"})
}

// SearchHandler runs a query against a collection.
func (api *API) SearchHandler(c *gin.Context) {
	id := model.CollectionId(c.Param("id"))

	collection, err := api.registry.Get(id)
	if err != nil {
		SendCollectionNotFoundError(c, string(id))
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateSearchRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result, err := collection.Search(req.toSearchParams())
	if err != nil {
		SendSearchError(c, string(id), err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CommitHandler flushes a collection's uncommitted tier into a new
// committed generation.
func (api *API) CommitHandler(c *gin.Context) {
	id := model.CollectionId(c.Param("id"))

	collection, err := api.registry.Get(id)
	if err != nil {
		SendCollectionNotFoundError(c, string(id))
		return
	}

	if err := collection.Commit(); err != nil {
		SendCommitError(c, string(id), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection '" + string(id) + "' committed successfully"})
}
