package job

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"gatilho/internal/artifact"
	"gatilho/internal/jobstore"
	"gatilho/internal/logger"
	"gatilho/internal/market"
	"gatilho/internal/provider"
	"gatilho/internal/report"
	"gatilho/internal/trigger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ServiceConfig wires the job service dependencies.
type ServiceConfig struct {
	Sources   *provider.Registry
	Artifacts artifact.Store
	Records   *jobstore.Store // optional; nil disables persistence

	MaxConcurrent   int
	JobTimeout      time.Duration
	RateLimitPerMin int
}

// Service owns job bookkeeping and executes submissions on a bounded pool.
type Service struct {
	sources   *provider.Registry
	artifacts artifact.Store
	records   *jobstore.Store

	limiter    *rate.Limiter
	sem        chan struct{}
	jobTimeout time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job

	baseCtx context.Context
	nowFn   func() time.Time
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Sources == nil {
		return nil, fmt.Errorf("job service requires a source registry")
	}
	if cfg.Artifacts == nil {
		return nil, fmt.Errorf("job service requires an artifact store")
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	perSec := rate.Limit(float64(cfg.RateLimitPerMin) / 60.0)
	if cfg.RateLimitPerMin <= 0 {
		perSec = 8
	}
	return &Service{
		sources:    cfg.Sources,
		artifacts:  cfg.Artifacts,
		records:    cfg.Records,
		limiter:    rate.NewLimiter(perSec, 1),
		sem:        make(chan struct{}, maxConcurrent),
		jobTimeout: jobTimeout,
		jobs:       make(map[string]*Job),
		baseCtx:    context.Background(),
		nowFn:      time.Now,
	}, nil
}

// SetContext injects the host context used to cancel running jobs on shutdown.
func (s *Service) SetContext(ctx context.Context) {
	if ctx != nil {
		s.baseCtx = ctx
	}
}

func (s *Service) ctx() context.Context {
	if s.baseCtx == nil {
		return context.Background()
	}
	return s.baseCtx
}

// SubmitExtract validates and registers an extract batch, then returns the
// pending job immediately; the batch runs in the background.
func (s *Service) SubmitExtract(params Params) (Job, error) {
	src, _, _, err := s.validate(params, true)
	if err != nil {
		return Job{}, err
	}
	job := s.register(KindExtract, src.Name(), params)
	go s.run(job.ID, func(ctx context.Context) { s.runExtract(ctx, job.ID, src) })
	return job, nil
}

// SubmitAnalyze validates and registers a trigger analysis for the first
// asset at a fixed 1-minute interval.
func (s *Service) SubmitAnalyze(params Params) (Job, error) {
	src, _, _, err := s.validate(params, false)
	if err != nil {
		return Job{}, err
	}
	job := s.register(KindAnalyze, src.Name(), params)
	go s.run(job.ID, func(ctx context.Context) { s.runAnalyze(ctx, job.ID, src) })
	return job, nil
}

// validate rejects malformed submissions before any network call.
func (s *Service) validate(params Params, needIntervals bool) (provider.BarSource, time.Time, time.Time, error) {
	var zero time.Time
	src, ok := s.sources.Lookup(params.Source)
	if !ok {
		return nil, zero, zero, fmt.Errorf("%w: unknown source %q (have %s)",
			provider.ErrInvalidInput, params.Source, strings.Join(s.sources.Names(), ", "))
	}
	if len(params.Assets) == 0 {
		return nil, zero, zero, fmt.Errorf("%w: at least one asset is required", provider.ErrInvalidInput)
	}
	if needIntervals && len(params.Intervals) == 0 {
		return nil, zero, zero, fmt.Errorf("%w: at least one interval is required", provider.ErrInvalidInput)
	}
	start, err := market.ParseDate(params.StartDate)
	if err != nil {
		return nil, zero, zero, fmt.Errorf("%w: start_date: %v", provider.ErrInvalidInput, err)
	}
	end, err := market.ParseDate(params.EndDate)
	if err != nil {
		return nil, zero, zero, fmt.Errorf("%w: end_date: %v", provider.ErrInvalidInput, err)
	}
	if end.Before(start) {
		return nil, zero, zero, fmt.Errorf("%w: end_date %s before start_date %s",
			provider.ErrInvalidInput, params.EndDate, params.StartDate)
	}
	return src, start, end, nil
}

func (s *Service) register(kind Kind, source string, params Params) Job {
	now := s.nowFn()
	job := &Job{
		ID:          uuid.NewString(),
		Kind:        kind,
		Source:      source,
		Status:      StatusPending,
		Params:      params,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	logger.Infof("[job] %s submitted: kind=%s source=%s assets=%d intervals=%d range=%s..%s",
		job.ID, kind, source, len(params.Assets), len(params.Intervals), params.StartDate, params.EndDate)
	return job.copy()
}

// run gates execution on the worker semaphore and the per-job timeout.
func (s *Service) run(jobID string, fn func(ctx context.Context)) {
	select {
	case s.sem <- struct{}{}:
	case <-s.ctx().Done():
		s.finish(jobID, StatusFailed, "service shutting down", "")
		return
	}
	defer func() { <-s.sem }()

	ctx, cancel := context.WithTimeout(s.ctx(), s.jobTimeout)
	defer cancel()

	s.update(jobID, func(j *Job) {
		j.Status = StatusRunning
		j.UpdatedAt = s.nowFn()
	})
	fn(ctx)
}

// fetchUnit pulls and normalizes one (asset, interval) pair. Returned errors
// are already classified; callers convert them into unit results.
func (s *Service) fetchUnit(ctx context.Context, src provider.BarSource, asset string, iv market.Interval, start, end time.Time) (market.NormalizeResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return market.NormalizeResult{}, err
	}
	endExclusive := end.AddDate(0, 0, 1)
	raws, err := src.FetchBars(ctx, asset, iv, start, endExclusive)
	if err != nil {
		return market.NormalizeResult{}, err
	}
	return market.Normalize(raws, start, end), nil
}

func (s *Service) runExtract(ctx context.Context, jobID string, src provider.BarSource) {
	job := s.snapshotInternal(jobID)
	if job == nil {
		return
	}
	params := job.Params
	start, _ := market.ParseDate(params.StartDate)
	end, _ := market.ParseDate(params.EndDate)

	var files []report.File
	var units []UnitResult
	for _, asset := range params.Assets {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		for _, code := range params.Intervals {
			unit := UnitResult{Asset: asset, Interval: code}
			iv, err := market.ParseInterval(code)
			if err != nil {
				unit.Status = UnitFailed
				unit.Error = err.Error()
				logger.Warnf("[job] %s skipping %s/%s: %v", jobID, asset, code, err)
				units = append(units, unit)
				continue
			}
			res, err := s.fetchUnit(ctx, src, asset, iv, start, end)
			if err != nil {
				// Best-effort batch policy: the pair is dropped and logged,
				// never surfaced to the (long gone) caller.
				unit.Status = UnitFailed
				unit.Error = err.Error()
				logger.Warnf("[job] %s fetch failed for %s/%s: %v", jobID, asset, code, err)
				units = append(units, unit)
				continue
			}
			unit.Rows = len(res.Candles)
			unit.Dropped = res.Dropped
			if res.Dropped > 0 {
				logger.Warnf("[job] %s dropped %d malformed rows for %s/%s", jobID, res.Dropped, asset, code)
			}
			if len(res.Candles) == 0 {
				unit.Status = UnitEmpty
				logger.Infof("[job] %s no data for %s/%s", jobID, asset, code)
				units = append(units, unit)
				continue
			}
			unit.Status = UnitOK
			units = append(units, unit)
			files = append(files, report.File{
				Name: fmt.Sprintf("%s_%s.csv", asset, iv.Code),
				Body: report.CandlesCSV(res.Candles),
			})
		}
	}

	s.update(jobID, func(j *Job) { j.Units = units })
	if len(files) == 0 {
		logger.Infof("[job] %s produced no data; artifact skipped", jobID)
		s.finish(jobID, StatusDone, "no data found for any asset/interval pair", "")
		return
	}
	name := fmt.Sprintf("extrator_%s_%s.zip", src.Name(), s.nowFn().UTC().Format("20060102_150405"))
	if err := s.artifacts.Put(name, files); err != nil {
		logger.Errorf("[job] %s artifact write failed: %v", jobID, err)
		s.finish(jobID, StatusFailed, fmt.Sprintf("artifact write failed: %v", err), "")
		return
	}
	logger.Infof("[job] %s done: artifact=%s units_ok=%d", jobID, name, len(files))
	s.finish(jobID, StatusDone, "", name)
}

func (s *Service) runAnalyze(ctx context.Context, jobID string, src provider.BarSource) {
	job := s.snapshotInternal(jobID)
	if job == nil {
		return
	}
	params := job.Params
	start, _ := market.ParseDate(params.StartDate)
	end, _ := market.ParseDate(params.EndDate)

	// Analysis always runs on the first asset with 1-minute candles; the
	// trigger minutes only make sense on that granularity.
	asset := strings.ToUpper(strings.TrimSpace(params.Assets[0]))
	iv, _ := market.ParseInterval("1m")

	unit := UnitResult{Asset: asset, Interval: iv.Code}
	res, err := s.fetchUnit(ctx, src, asset, iv, start, end)
	if err != nil {
		unit.Status = UnitFailed
		unit.Error = err.Error()
		s.update(jobID, func(j *Job) { j.Units = []UnitResult{unit} })
		logger.Warnf("[job] %s fetch failed for %s/1m: %v", jobID, asset, err)
		s.finish(jobID, StatusDone, fmt.Sprintf("no data for %s: fetch failed", asset), "")
		return
	}
	unit.Rows = len(res.Candles)
	unit.Dropped = res.Dropped
	if len(res.Candles) == 0 {
		unit.Status = UnitEmpty
		s.update(jobID, func(j *Job) { j.Units = []UnitResult{unit} })
		logger.Infof("[job] %s no 1m data for %s", jobID, asset)
		s.finish(jobID, StatusDone, fmt.Sprintf("no 1m data for %s in range", asset), "")
		return
	}

	events, err := trigger.Detect(res.Candles)
	if err != nil {
		unit.Status = UnitFailed
		unit.Error = err.Error()
		s.update(jobID, func(j *Job) { j.Units = []UnitResult{unit} })
		logger.Errorf("[job] %s detection failed for %s: %v", jobID, asset, err)
		s.finish(jobID, StatusFailed, fmt.Sprintf("detection failed: %v", err), "")
		return
	}
	unit.Status = UnitOK
	s.update(jobID, func(j *Job) { j.Units = []UnitResult{unit} })
	if len(events) == 0 {
		logger.Infof("[job] %s no triggers found for %s", jobID, asset)
		s.finish(jobID, StatusDone, fmt.Sprintf("no qualifying triggers for %s in range", asset), "")
		return
	}

	meta := report.Meta{
		Asset:       asset,
		Source:      src.Name(),
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		GeneratedAt: s.nowFn().UTC(),
	}
	htmlBody, err := report.HTML(meta, events, report.Indicators(res.Candles))
	if err != nil {
		s.finish(jobID, StatusFailed, fmt.Sprintf("report build failed: %v", err), "")
		return
	}
	files := []report.File{
		{Name: "resultado.csv", Body: report.EventsCSV(events)},
		{Name: "relatorio.html", Body: htmlBody},
	}
	if chart, err := report.OutcomeChart(meta, events); err == nil {
		files = append(files, chart)
	} else {
		logger.Warnf("[job] %s chart render failed: %v", jobID, err)
	}

	name := fmt.Sprintf("analise_4e9_%s_%s_%s.zip", src.Name(), asset, s.nowFn().UTC().Format("20060102_150405"))
	if err := s.artifacts.Put(name, files); err != nil {
		logger.Errorf("[job] %s artifact write failed: %v", jobID, err)
		s.finish(jobID, StatusFailed, fmt.Sprintf("artifact write failed: %v", err), "")
		return
	}
	logger.Infof("[job] %s done: artifact=%s events=%d", jobID, name, len(events))
	s.finish(jobID, StatusDone, "", name)
}

func (s *Service) finish(jobID, status, message, artifactName string) {
	s.update(jobID, func(j *Job) {
		j.Status = status
		j.Message = message
		j.Artifact = artifactName
		j.UpdatedAt = s.nowFn()
	})
	s.persist(jobID)
}

func (s *Service) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok && fn != nil {
		fn(job)
	}
}

func (s *Service) snapshotInternal(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// persist mirrors the finished job into the durable store, best effort.
func (s *Service) persist(jobID string) {
	if s.records == nil {
		return
	}
	job, ok := s.JobSnapshot(jobID)
	if !ok {
		return
	}
	paramsJSON, _ := json.Marshal(job.Params)
	unitsJSON, _ := json.Marshal(job.Units)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.records.Save(ctx, &jobstore.JobRecordModel{
		ID:        job.ID,
		Kind:      string(job.Kind),
		Source:    job.Source,
		Status:    job.Status,
		Message:   job.Message,
		Artifact:  job.Artifact,
		Params:    paramsJSON,
		Units:     unitsJSON,
		CreatedAt: job.SubmittedAt,
		UpdatedAt: job.UpdatedAt,
	})
	if err != nil {
		logger.Warnf("[job] %s record save failed: %v", jobID, err)
	}
}

// JobSnapshot returns a copy of one job.
func (s *Service) JobSnapshot(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

// JobsSnapshot returns copies of all known jobs.
func (s *Service) JobsSnapshot() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.copy())
	}
	return out
}

// History reads persisted job records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]jobstore.JobRecordModel, error) {
	if s.records == nil {
		return nil, nil
	}
	return s.records.ListRecent(ctx, limit)
}
