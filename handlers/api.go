package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/errmsg"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/jobs"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/quiz"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/saga"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/middleware"
)

// FailedStepsHeader lists the secondary steps of a write that failed. The
// primary write succeeded when it is present.
const FailedStepsHeader = "X-Failed-Steps"

// API serves the collections under /api/v1.
type API struct {
	repos   *quiz.Repos
	jobs    *jobs.Runner
	timeout time.Duration
	log     *logger.Logger
}

// NewAPI builds the handlers. runner may be nil to disable /jobs.
func NewAPI(repos *quiz.Repos, runner *jobs.Runner, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &API{repos: repos, jobs: runner, timeout: timeout, log: logger.With("api")}
}

// Register mounts the routes. auth must set the caller identity (see
// middleware.AuthMiddleware); admin guards the management routes.
func (h *API) Register(rg *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	user := rg.Group("", auth)
	user.GET("/me", h.Me)
	user.POST("/me", h.SignUp)
	user.PATCH("/me", h.UpdateMe)
	user.POST("/me/avatar", h.UploadAvatar)
	user.GET("/subjects", h.ListSubjects)
	user.GET("/tests/uuid/:uuid", h.GetTestByUUID)
	user.POST("/requests", h.CreateRequest)
	user.POST("/requests/mine/page", h.ListMyRequests)
	user.POST("/requests/image/:name", h.UploadRequestImage)

	adm := rg.Group("", auth, admin)
	h.registerQuestions(adm.Group("/questions"))
	h.registerRequests(adm.Group("/requests"))
	h.registerTests(adm.Group("/tests"))
	h.registerAdmin(adm)
}

func (h *API) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// status maps repository errors to an HTTP status and message model.
func status(err error) (int, errmsg.Type) {
	var invalid *query.ValidationError
	switch {
	case errors.Is(err, repository.ErrIDNotProvided),
		errors.Is(err, repository.ErrNoConstraints),
		errors.As(err, &invalid):
		return http.StatusBadRequest, errmsg.Default
	case errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound, errmsg.NotFound
	case errors.Is(err, quiz.ErrUserExists):
		return http.StatusConflict, errmsg.Default
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, errmsg.Connection
	}
	return http.StatusInternalServerError, errmsg.Default
}

// fail writes err using the message model of typ. item is reported instead
// of the error text when the target does not exist.
func (h *API) fail(c *gin.Context, typ errmsg.Type, category, item string, err error) {
	code, kind := status(err)
	msg := err.Error()
	switch kind {
	case errmsg.NotFound:
		typ, msg = kind, item
	case errmsg.Connection:
		typ = kind
	}
	if code >= http.StatusInternalServerError {
		h.log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": errmsg.Format(typ, category, msg)})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errmsg.Format(errmsg.Default, "", err.Error())})
}

// found writes rec, or a 404 naming item when rec is nil.
func found[T any](c *gin.Context, rec *entity.Record[T], item string) {
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errmsg.Format(errmsg.NotFound, "", item)})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// report flags the failed saga steps of a successful write.
func report(c *gin.Context, rep saga.Report) {
	if rep.OK() {
		return
	}
	steps := make([]string, 0, len(rep.Failed))
	for _, f := range rep.Failed {
		steps = append(steps, f.Step)
	}
	c.Header(FailedStepsHeader, rep.Saga+": "+strings.Join(steps, ","))
}

// bindRecord decodes the request body into a new record.
func bindRecord[T any](c *gin.Context) (*entity.Record[T], bool) {
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return nil, false
	}
	delete(body, entity.KeyID)
	rec, err := entity.FromMap[T](body)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return rec, true
}

func bindFields(c *gin.Context) (entity.Fields, bool) {
	fields := entity.Fields{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err)
		return nil, false
	}
	return fields, true
}

// pageBody is a page request plus optional constraints applied before the
// pagination clauses.
type pageBody struct {
	query.PageRequest
	Constraints *query.Query `json:"constraints,omitempty"`
}

func bindPage(c *gin.Context) (pageBody, bool) {
	var body pageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return body, false
	}
	return body, true
}

func intQuery(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// upload reads the multipart "file" field and stores it with store.
func (h *API) upload(c *gin.Context, category string, store func(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()
	ctx, cancel := h.ctx(c)
	defer cancel()
	url, err := store(ctx, c.Param("name"), f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, repository.ErrNoFileStore) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errmsg.Format(errmsg.Admin, "", err.Error())})
			return
		}
		h.fail(c, errmsg.Creation, category, c.Param("name"), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func userID(c *gin.Context) string    { return c.GetString(middleware.SubjectKey) }
func userEmail(c *gin.Context) string { return c.GetString(middleware.EmailKey) }
