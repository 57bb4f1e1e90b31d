package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/middleware"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/validator"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/ingest"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/resolver"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/tasks"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/vector"
)

type ResourceHandler struct {
	resources *store.ResourceStore
	resolver  *resolver.Resolver
	pipeline  *ingest.Pipeline
	taskQueue *tasks.TaskClient
	index     vector.Index
	log       *logger.Logger
}

func NewResourceHandler(
	resources *store.ResourceStore,
	res *resolver.Resolver,
	pipeline *ingest.Pipeline,
	taskQueue *tasks.TaskClient,
	index vector.Index,
) *ResourceHandler {
	return &ResourceHandler{
		resources: resources,
		resolver:  res,
		pipeline:  pipeline,
		taskQueue: taskQueue,
		index:     index,
		log:       logger.New("resource_handler"),
	}
}

type resourceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	FileType    string `json:"fileType"`
	UploadedBy  string `json:"uploadedBy"`
	AccessCount int    `json:"accessCount"`
	HasText     bool   `json:"hasText"`
}

// List godoc
// @Summary List accessible resources
// @Description Admins see every stored resource; users see only resources they hold a grant on.
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /resources [get]
func (h *ResourceHandler) List(c echo.Context) error {
	sess := middleware.GetSession(c)
	ctx := c.Request().Context()

	var list []models.Resource
	var err error
	if sess.IsAdmin() {
		list, err = h.resources.ListAll(ctx)
	} else {
		list, err = h.resolver.Resolve(ctx, sess.UserID)
	}
	if err != nil {
		return h.log.Error("Failed to list resources", err)
	}

	out := make([]resourceResponse, 0, len(list))
	for i := range list {
		res := &list[i]
		out = append(out, resourceResponse{
			ID:          res.ID,
			Name:        res.Name,
			URL:         res.URL,
			FileType:    res.FileType,
			UploadedBy:  res.UploadedBy,
			AccessCount: res.AccessCount,
			HasText:     res.Text() != "",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"resources": out})
}

// Delete godoc
// @Summary Delete a resource
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} map[string]string
// @Router /resources/{id} [delete]
func (h *ResourceHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	url, err := h.resources.Delete(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Resource not found")
	}

	if h.index != nil {
		if err := h.index.Delete(ctx, url); err != nil {
			h.log.Warn("Failed to remove vector entry for %s: %v", url, err)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// SyncFile godoc
// @Summary Sync a single drive file
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validator.SyncFileRequest true "File share URL"
// @Success 200 {object} ingest.Result
// @Router /resources/sync/file [post]
func (h *ResourceHandler) SyncFile(c echo.Context) error {
	var req validator.SyncFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess := middleware.GetSession(c)
	result := h.pipeline.IngestFile(c.Request().Context(), req.URL, sess.Username)
	if !result.OK {
		return c.JSON(http.StatusBadGateway, result)
	}
	return c.JSON(http.StatusOK, result)
}

// SyncFolder godoc
// @Summary Sync a whole drive folder in the background
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validator.SyncFolderRequest true "Folder URL"
// @Success 202 {object} map[string]string
// @Router /resources/sync/folder [post]
func (h *ResourceHandler) SyncFolder(c echo.Context) error {
	var req validator.SyncFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess := middleware.GetSession(c)
	err := h.taskQueue.EnqueueFolderSync(c.Request().Context(), req.URL, sess.Username)
	if err != nil {
		if errors.Is(err, tasks.ErrSyncInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "A folder sync is already running")
		}
		return h.log.Error("Failed to enqueue folder sync", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "sync started"})
}

// SyncStatus godoc
// @Summary Poll the result of the last folder sync
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /resources/sync/status [get]
func (h *ResourceHandler) SyncStatus(c echo.Context) error {
	sess := middleware.GetSession(c)

	status, err := h.taskQueue.SyncStatus(c.Request().Context(), sess.UserID)
	if err != nil {
		return h.log.Error("Failed to read sync status", err)
	}
	if status == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "running"})
	}
	return c.JSONBlob(http.StatusOK, []byte(status))
}
