package handlers

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/joeg-ita/jobdrop/src/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

const view = "file.html"

type JobCreator interface {
	CreateJob(ctx context.Context, sub domain.JobSubmission) (domain.JobRecord, error)

	Get(ctx context.Context, jobId string) (domain.JobRecord, error)
}

type JobSearcher interface {
	Search(ctx context.Context, query string) ([]domain.JobRecord, error)
}

type JobsHandler struct {
	jobs   JobCreator
	search JobSearcher
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(jobs JobCreator, search JobSearcher) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	h := &JobsHandler{jobs: jobs, search: search}

	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	router.POST("/job/create", h.CreateJob)
	router.GET("/job/search", h.SearchJobs)
	router.GET("/job/:id/file", h.JobFile)

	return router
}

func (h *JobsHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, view, gin.H{})
}

func (h *JobsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *JobsHandler) CreateJob(c *gin.Context) {
	sub, err := submissionFromForm(c)
	if err != nil {
		c.JSON(createFailure(err))
		return
	}

	// a dropped client must not abort an upload that already started
	ctx := context.WithoutCancel(c.Request.Context())

	job, err := h.jobs.CreateJob(ctx, sub)
	if err != nil {
		c.JSON(createFailure(err))
		return
	}
	c.HTML(http.StatusCreated, view, gin.H{"created": job})
}

// createFailure maps a create error to its response. Store faults are
// checked first so they never surface as client errors.
func createFailure(err error) (int, gin.H) {
	switch {
	case domain.IsUploadError(err):
		return http.StatusInternalServerError, gin.H{"message": "File upload failed"}
	case domain.IsValidationError(err):
		return http.StatusBadRequest, gin.H{"message": err.Error()}
	default:
		utils.GetLogger().Errorw("job creation failed", "err", err)
		return http.StatusInternalServerError, gin.H{"message": "Internal server error"}
	}
}

func (h *JobsHandler) SearchJobs(c *gin.Context) {
	query := c.Query("query")

	jobs, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.HTML(http.StatusOK, view, gin.H{
		"searched": true,
		"query":    query,
		"jobs":     jobs,
	})
}

// JobFile serves the retained copy of the uploaded bytes.
func (h *JobsHandler) JobFile(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.Data(http.StatusOK, job.FileType, job.FileData)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		utils.GetLogger().Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"errors", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
