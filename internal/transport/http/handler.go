package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"gatilho/internal/artifact"
	"gatilho/internal/job"
	"gatilho/internal/jobstore"
	"gatilho/internal/provider"

	"github.com/gin-gonic/gin"
)

// JobService is the submission/status surface consumed by the handlers.
type JobService interface {
	SubmitExtract(params job.Params) (job.Job, error)
	SubmitAnalyze(params job.Params) (job.Job, error)
	JobSnapshot(id string) (job.Job, bool)
	JobsSnapshot() []job.Job
	History(ctx context.Context, limit int) ([]jobstore.JobRecordModel, error)
}

// ArtifactStore is the read side of the artifact directory.
type ArtifactStore interface {
	List() ([]string, error)
	Get(name string) ([]byte, error)
}

// TASummarizer serves synchronous technical-analysis snapshots.
type TASummarizer interface {
	Summary(ctx context.Context, q provider.TAQuery) (provider.TASnapshot, error)
}

// AssetLister lists tradeable symbols for the submission UI.
type AssetLister interface {
	AvailableAssets(ctx context.Context) ([]string, error)
}

type handlers struct {
	jobs        JobService
	artifacts   ArtifactStore
	tradingview TASummarizer
	assets      AssetLister
}

type submitRequest struct {
	Assets    []string `json:"assets"`
	Intervals []string `json:"intervals"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

func (h *handlers) bindSubmit(c *gin.Context) (job.Params, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return job.Params{}, false
	}
	if err := validateRequestBody(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return job.Params{}, false
	}
	var req submitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return job.Params{}, false
	}
	return job.Params{
		Source:    c.Param("source"),
		Assets:    req.Assets,
		Intervals: req.Intervals,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}, true
}

func (h *handlers) handleExtract(c *gin.Context) {
	params, ok := h.bindSubmit(c)
	if !ok {
		return
	}
	j, err := h.jobs.SubmitExtract(params)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": j, "message": "extraction started; poll /api/reports for the artifact"})
}

func (h *handlers) handleAnalyze(c *gin.Context) {
	params, ok := h.bindSubmit(c)
	if !ok {
		return
	}
	j, err := h.jobs.SubmitAnalyze(params)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": j, "message": "analysis started; poll /api/reports for the artifact"})
}

func (h *handlers) handleJobs(c *gin.Context) {
	jobs := h.jobs.JobsSnapshot()
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].SubmittedAt.After(jobs[k].SubmittedAt) })
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *handlers) handleJobStatus(c *gin.Context) {
	j, ok := h.jobs.JobSnapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": j})
}

func (h *handlers) handleJobHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	recs, err := h.jobs.History(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": recs})
}

func (h *handlers) handleReportList(c *gin.Context) {
	names, err := h.artifacts.List()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": names})
}

func (h *handlers) handleReportDownload(c *gin.Context) {
	name := c.Param("name")
	data, err := h.artifacts.Get(name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *handlers) handleTASummary(c *gin.Context) {
	if h.tradingview == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tradingview source not configured"})
		return
	}
	var q provider.TAQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.tradingview.Summary(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) handleTASearch(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": provider.SearchForex(c.Query("q"))})
}

func (h *handlers) handleAssets(c *gin.Context) {
	if h.assets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "binance source not configured"})
		return
	}
	symbols, err := h.assets.AvailableAssets(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": symbols})
}

// abortWithError maps the service error taxonomy onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, provider.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, provider.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, provider.ErrUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, artifact.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
