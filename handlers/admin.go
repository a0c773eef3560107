package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/errmsg"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/jobs"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
)

func (h *API) registerAdmin(g *gin.RouterGroup) {
	g.GET("/subjects/:name", h.GetSubject)
	g.POST("/subjects", h.CreateSubject)

	g.GET("/users", h.ListUsers)
	g.GET("/users/last", h.LastUser)
	g.GET("/users/email/:email", h.GetUserByEmail)
	g.PATCH("/users/email/:email", h.UpdateUserByEmail)

	g.GET("/data-size", h.GetDataSize)
	g.GET("/backups/last", h.LastBackup)
	g.GET("/backups/recent", h.RecentBackups)
	g.GET("/logs", h.ListLogs)
	g.GET("/logs/last", h.LastLog)
	g.POST("/jobs/:name", h.RunJob)
}

// Me returns the caller's profile.
func (h *API) Me(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Users.GetOne(ctx, userID(c))
	if err != nil {
		h.fail(c, errmsg.Load, "user", userID(c), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// SignUp stores the caller's profile under the identity provider uid.
func (h *API) SignUp(c *gin.Context) {
	rec, ok := bindRecord[models.User](c)
	if !ok {
		return
	}
	if rec.Data.Email == "" {
		rec.Data.Email = userEmail(c)
	}
	rec.Data.Role = models.RoleStudent
	ctx, cancel := h.ctx(c)
	defer cancel()
	user, rep, err := h.repos.Users.SignUp(ctx, userID(c), rec.Data)
	if err != nil {
		h.fail(c, errmsg.Creation, "user", "", err)
		return
	}
	report(c, rep)
	c.JSON(http.StatusCreated, user)
}

// UpdateMe edits the caller's profile. The role is managed elsewhere.
func (h *API) UpdateMe(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	delete(fields, "role")
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Users.UpdateOne(ctx, userID(c), fields)
	if err != nil {
		h.fail(c, errmsg.Edition, "user", userID(c), err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) UploadAvatar(c *gin.Context) {
	c.Params = append(c.Params, gin.Param{Key: "name", Value: userID(c)})
	h.upload(c, "profile image", h.repos.Users.UploadAvatar)
}

func (h *API) ListSubjects(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Subjects.GetAll(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "subjects", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) GetSubject(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Subjects.GetByName(ctx, c.Param("name"))
	if err != nil {
		h.fail(c, errmsg.Load, "subject", c.Param("name"), err)
		return
	}
	found(c, rec, c.Param("name"))
}

func (h *API) CreateSubject(c *gin.Context) {
	rec, ok := bindRecord[models.Subject](c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	created, err := h.repos.Subjects.CreateOne(ctx, rec)
	if err != nil {
		h.fail(c, errmsg.Creation, "subject", rec.Data.Name, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *API) ListUsers(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Users.GetAll(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "users", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) LastUser(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Users.GetLast(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "users", "", err)
		return
	}
	found(c, rec, "last user")
}

func (h *API) GetUserByEmail(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Users.GetByEmail(ctx, c.Param("email"))
	if err != nil {
		h.fail(c, errmsg.Load, "user", c.Param("email"), err)
		return
	}
	found(c, rec, c.Param("email"))
}

// UpdateUserByEmail is how admins change roles.
func (h *API) UpdateUserByEmail(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Users.UpdateByEmail(ctx, c.Param("email"), fields)
	if err != nil {
		h.fail(c, errmsg.Edition, "user", c.Param("email"), err)
		return
	}
	found(c, rec, c.Param("email"))
}

func (h *API) GetDataSize(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.DataSize.Get(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "data size", "", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *API) LastBackup(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Backups.GetLast(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "backups", "", err)
		return
	}
	found(c, rec, "last backup")
}

// RecentBackups lists the backups of the current month and the two before.
func (h *API) RecentBackups(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Backups.GetLastMonths(ctx, time.Now())
	if err != nil {
		h.fail(c, errmsg.Load, "backups", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) ListLogs(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	recs, err := h.repos.Logs.GetAll(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "logs", "", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *API) LastLog(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	rec, err := h.repos.Logs.GetLast(ctx)
	if err != nil {
		h.fail(c, errmsg.Load, "logs", "", err)
		return
	}
	found(c, rec, "last log")
}

// RunJob runs a maintenance job in the request. The request timeout does
// not apply; jobs are bounded by the client connection only.
func (h *API) RunJob(c *gin.Context) {
	if h.jobs == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errmsg.Format(errmsg.Admin, "", "maintenance jobs are disabled")})
		return
	}
	name := c.Param("name")
	err := h.jobs.Run(c.Request.Context(), name)
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errmsg.Format(errmsg.NotFound, "", name)})
	case errors.Is(err, jobs.ErrBackupDisabled):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errmsg.Format(errmsg.Admin, "", err.Error())})
	case err != nil:
		h.fail(c, errmsg.Admin, "", name, err)
	default:
		c.JSON(http.StatusOK, gin.H{"job": name, "finished": entity.NowISOString()})
	}
}
