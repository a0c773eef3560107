package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/errmsg"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
)

const questionCategory = "question"

func (h *API) registerQuestions(g *gin.RouterGroup) {
	g.GET("/:id", h.GetQuestion)
	g.GET("/name/:name", h.GetQuestionByName)
	g.GET("/search", h.SearchQuestions)
	g.GET("/marked", h.MarkedQuestions)
	g.POST("/page", h.ListQuestions)
	g.POST("", h.CreateQuestion)
	g.PATCH("/:id", h.UpdateQuestion)
	g.DELETE("/:id", h.SoftDeleteQuestion)
	g.POST("/:id/restore", h.RestoreQuestion)
	g.POST("/restore", h.RestoreAllQuestions)
	g.DELETE("/marked", h.DeleteMarkedQuestions)
	g.POST("/image/:name", h.UploadQuestionImage)
}

func (h *API) GetQuestion(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Questions.GetOne(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, errmsg.Load, questionCategory, c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) GetQuestionByName(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Questions.GetByName(ctx, c.Param("name"))
	if err != nil {
		h.fail(c, errmsg.Load, questionCategory, c.Param("name"), err)
		return
	}
	found(c, rec, c.Param("name"))
}

// SearchQuestions matches ?text= as a name prefix, optionally within ?subject=.
func (h *API) SearchQuestions(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Questions.Search(ctx, c.Query("text"), c.Query("subject"))
	if err != nil {
		h.fail(c, errmsg.Load, "questions", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// MarkedQuestions lists questions flagged for deletion (?confirmed=true for
// the ones awaiting the purge).
func (h *API) MarkedQuestions(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Questions.Marked(ctx, c.Query("confirmed") != "true")
	if err != nil {
		h.fail(c, errmsg.Load, "questions", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) ListQuestions(c *gin.Context) {
	body, ok := bindPage(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.repos.Questions.List(ctx, body.PageRequest, body.Constraints)
	if err != nil {
		h.fail(c, errmsg.Load, "questions", "", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *API) CreateQuestion(c *gin.Context) {
	rec, ok := bindRecord[models.Question](c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	created, rep, err := h.repos.Questions.CreateOne(ctx, rec)
	if err != nil {
		h.fail(c, errmsg.Creation, questionCategory, rec.Data.Name, err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusCreated, created)
}

func (h *API) UpdateQuestion(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	id := c.Param("id")
	old, err := h.repos.Questions.GetOne(ctx, id)
	if err != nil {
		h.fail(c, errmsg.Edition, questionCategory, id, err)
		return
	}
	rec, rep, err := h.repos.Questions.UpdateOne(ctx, id, fields, old)
	if err != nil {
		h.fail(c, errmsg.Edition, questionCategory, id, err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, rec)
}

func (h *API) SoftDeleteQuestion(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, rep, err := h.repos.Questions.SoftDeleteOne(ctx, c.Param("id"), userEmail(c))
	if err != nil {
		h.fail(c, errmsg.Exclusion, questionCategory, c.Param("id"), err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, rec)
}

func (h *API) RestoreQuestion(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, rep, err := h.repos.Questions.RestoreOne(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, errmsg.Edition, questionCategory, c.Param("id"), err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, rec)
}

// RestoreAllQuestions restores every flagged question, or only the ones
// flagged by ?userEmail=.
func (h *API) RestoreAllQuestions(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, rep, err := h.repos.Questions.RestoreAll(ctx, c.Query("userEmail"))
	if err != nil {
		h.fail(c, errmsg.Edition, "questions", "", err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, recs)
}

func (h *API) DeleteMarkedQuestions(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, rep, err := h.repos.Questions.DeleteMarked(ctx)
	if err != nil {
		h.fail(c, errmsg.Exclusion, "questions", "", err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusOK, recs)
}

func (h *API) UploadQuestionImage(c *gin.Context) {
	h.upload(c, "question image", h.repos.Questions.UploadImage)
}
