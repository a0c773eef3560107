package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/errmsg"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
)

const requestCategory = "question request"

func (h *API) registerRequests(g *gin.RouterGroup) {
	g.GET("/:id", h.GetRequest)
	g.GET("/name/:name", h.GetRequestByName)
	g.GET("/search", h.SearchRequests)
	g.POST("/page", h.ListRequests)
	g.PATCH("/:id", h.UpdateRequest)
	g.DELETE("/:id", h.SoftDeleteRequest)
	g.POST("/:id/restore", h.RestoreRequest)
	g.POST("/restore", h.RestoreAllRequests)
	g.DELETE("/marked", h.DeleteMarkedRequests)
	g.DELETE("/approved/:userId", h.DeleteApprovedRequests)
}

// CreateRequest stores a request authored by the caller.
func (h *API) CreateRequest(c *gin.Context) {
	rec, ok := bindRecord[models.Request](c)
	if !ok {
		return
	}
	rec.Data.UserID = userID(c)
	rec.Data.User = nil
	if rec.Data.Status == "" {
		rec.Data.Status = models.StatusPending
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	created, rep, err := h.repos.Requests.CreateOne(ctx, rec)
	if err != nil {
		h.fail(c, errmsg.Creation, requestCategory, rec.Data.Name, err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusCreated, created)
}

// ListMyRequests pages through the caller's own requests.
func (h *API) ListMyRequests(c *gin.Context) {
	h.listRequests(c, userID(c))
}

// ListRequests pages through every request, or the ones of ?userId=.
func (h *API) ListRequests(c *gin.Context) {
	h.listRequests(c, c.Query("userId"))
}

func (h *API) listRequests(c *gin.Context, owner string) {
	body, ok := bindPage(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.repos.Requests.List(ctx, body.PageRequest, owner)
	if err != nil {
		h.fail(c, errmsg.Load, "question requests", "", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *API) UploadRequestImage(c *gin.Context) {
	h.upload(c, "question request image", h.repos.Requests.UploadImage)
}

func (h *API) GetRequest(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Requests.GetOne(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, errmsg.Load, requestCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) GetRequestByName(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Requests.GetByName(ctx, c.Param("name"))
	if err != nil {
		h.fail(c, errmsg.Load, requestCategory, c.Param("name"), err)
		return
	}
	found(c, rec, c.Param("name"))
}

// SearchRequests filters by ?text= name prefix, ?userId= and ?status=.
func (h *API) SearchRequests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Requests.Search(ctx, c.Query("text"), c.Query("userId"), c.Query("status"))
	if err != nil {
		h.fail(c, errmsg.Load, "question requests", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) UpdateRequest(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Requests.UpdateOne(ctx, c.Param("id"), fields)
	if err != nil {
		h.fail(c, errmsg.Edition, requestCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) SoftDeleteRequest(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Requests.SoftDeleteOne(ctx, c.Param("id"), userEmail(c))
	if err != nil {
		h.fail(c, errmsg.Exclusion, requestCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) RestoreRequest(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Requests.RestoreOne(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, errmsg.Edition, requestCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) RestoreAllRequests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Requests.RestoreAll(ctx, c.Query("userEmail"))
	if err != nil {
		h.fail(c, errmsg.Edition, "question requests", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) DeleteMarkedRequests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, rep, err := h.repos.Requests.DeleteMarked(ctx)
	if err != nil {
		h.fail(c, errmsg.Exclusion, "question requests", "", err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, recs)
}

// DeleteApprovedRequests removes the approved requests of one author once
// they have been turned into questions.
func (h *API) DeleteApprovedRequests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, rep, err := h.repos.Requests.DeleteApproved(ctx, c.Param("userId"))
	if err != nil {
		h.fail(c, errmsg.Exclusion, "question requests", "", err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, recs)
}
