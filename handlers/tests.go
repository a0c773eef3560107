package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/errmsg"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/quiz"
)

const testCategory = "test"

func (h *API) registerTests(g *gin.RouterGroup) {
	g.GET("/:id", h.GetTest)
	g.GET("/last", h.LastTests)
	g.GET("/search", h.SearchTests)
	g.GET("/question/:name", h.TestsByQuestion)
	g.POST("/page", h.ListTests)
	g.POST("", h.CreateTest)
	g.PATCH("/:id", h.UpdateTest)
	g.DELETE("/:id", h.SoftDeleteTest)
	g.DELETE("/marked", h.DeleteMarkedTests)
}

// GetTestByUUID loads the test a student was invited to.
func (h *API) GetTestByUUID(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Tests.GetByUUID(ctx, c.Param("uuid"))
	if err != nil {
		h.fail(c, errmsg.Load, testCategory, c.Param("uuid"), err)
		return
	}
	found(c, rec, c.Param("uuid"))
}

func (h *API) GetTest(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Tests.GetOne(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, errmsg.Load, testCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// LastTests returns the ?n= most recently updated tests.
func (h *API) LastTests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Tests.GetLast(ctx, intQuery(c, "n", quiz.DefaultLastTests))
	if err != nil {
		h.fail(c, errmsg.Load, "tests", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) SearchTests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Tests.Search(ctx, c.Query("text"))
	if err != nil {
		h.fail(c, errmsg.Load, "tests", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// TestsByQuestion lists the tests using a question, checked before the
// question is deleted.
func (h *API) TestsByQuestion(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Tests.GetByQuestion(ctx, c.Param("name"))
	if err != nil {
		h.fail(c, errmsg.Load, "tests", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) ListTests(c *gin.Context) {
	body, ok := bindPage(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.repos.Tests.List(ctx, body.PageRequest)
	if err != nil {
		h.fail(c, errmsg.Load, "tests", "", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *API) CreateTest(c *gin.Context) {
	rec, ok := bindRecord[models.Test](c)
	if !ok {
		return
	}
	rec.Data.UserID = userID(c)
	rec.Data.User = nil
	ctx, cancel := h.ctx(c)
	defer cancel()
	created, rep, err := h.repos.Tests.CreateOne(ctx, rec)
	if err != nil {
		h.fail(c, errmsg.Creation, testCategory, rec.Data.Title, err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusCreated, created)
}

func (h *API) UpdateTest(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Tests.UpdateOne(ctx, c.Param("id"), fields)
	if err != nil {
		h.fail(c, errmsg.Edition, testCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) SoftDeleteTest(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Tests.SoftDeleteOne(ctx, c.Param("id"), userEmail(c))
	if err != nil {
		h.fail(c, errmsg.Exclusion, testCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) DeleteMarkedTests(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, rep, err := h.repos.Tests.DeleteMarked(ctx)
	if err != nil {
		h.fail(c, errmsg.Exclusion, "tests", "", err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, recs)
}
