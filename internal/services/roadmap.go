package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	types "github.com/yungbote/roadmap-backend/internal/domain/roadmap"
	"github.com/yungbote/roadmap-backend/internal/modules/roadmap"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/apierr"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
	"github.com/yungbote/roadmap-backend/internal/platform/openai"
)

const (
	CodeBadRequest         = "bad_request"
	CodeUpstreamError      = "upstream_error"
	CodeBadUpstreamFormat  = "bad_upstream_format"
	CodePersistenceFailure = "persistence_failure"
	CodeRoadmapNotFound    = "roadmap_not_found"
)

const (
	msgMissingFields    = "languageName and duration are required"
	msgGenerationFailed = "Failed to generate and save roadmap"
	msgInvalidFormat    = "Invalid format of AI response"
	msgRoadmapNotFound  = "Roadmap not found"
)

// GenerationClient sends one prompt to the language model and returns its raw text.
type GenerationClient interface {
	Generate(ctx context.Context, prompt roadmap.Prompt) (string, error)
}

type openAIGenerationClient struct {
	client  openai.Client
	metrics *observability.Metrics
}

func NewOpenAIGenerationClient(client openai.Client, metrics *observability.Metrics) GenerationClient {
	return &openAIGenerationClient{client: client, metrics: metrics}
}

func (c *openAIGenerationClient) Generate(ctx context.Context, prompt roadmap.Prompt) (string, error) {
	start := time.Now()
	out, err := c.client.GenerateText(ctx, prompt.System, prompt.User)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveLLMRequest(status, time.Since(start))
	return out, err
}

type RoadmapService interface {
	Generate(ctx context.Context, req roadmap.Request) (*types.Roadmap, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Roadmap, error)
	List(ctx context.Context, limit, offset int) ([]*types.Roadmap, error)
}

type RoadmapServiceConfig struct {
	ParseOptions roadmap.ParseOptions
}

type roadmapService struct {
	log         *logger.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	generator   GenerationClient
	roadmapRepo repos.RoadmapRepo
	buildPrompt func(subjectName, duration string) roadmap.Prompt
	parseOpts   roadmap.ParseOptions
}

func NewRoadmapService(
	log *logger.Logger,
	metrics *observability.Metrics,
	generator GenerationClient,
	roadmapRepo repos.RoadmapRepo,
	cfg RoadmapServiceConfig,
) RoadmapService {
	return &roadmapService{
		log:         log.With("service", "RoadmapService"),
		metrics:     metrics,
		tracer:      observability.Tracer(),
		generator:   generator,
		roadmapRepo: roadmapRepo,
		buildPrompt: roadmap.BuildPrompt,
		parseOpts:   cfg.ParseOptions,
	}
}

// Generate validates req, asks the model once, parses the answer and stores it.
// Failures are *apierr.Error values; nothing is stored unless the answer parses.
func (rs *roadmapService) Generate(ctx context.Context, req roadmap.Request) (*types.Roadmap, error) {
	subject := strings.TrimSpace(req.SubjectName)
	duration := strings.TrimSpace(req.Duration)

	ctx, span := rs.tracer.Start(ctx, "roadmap.generate", trace.WithAttributes(
		attribute.String("roadmap.subject", subject),
		attribute.String("roadmap.duration", duration),
	))
	defer span.End()

	record, outcome, err := rs.generate(ctx, subject, duration)
	rs.metrics.IncRoadmapGeneration(outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(attribute.String("roadmap.id", record.ID.String()))
	return record, nil
}

func (rs *roadmapService) generate(ctx context.Context, subject, duration string) (*types.Roadmap, string, error) {
	if subject == "" || duration == "" {
		return nil, CodeBadRequest, apierr.NewWithMessage(http.StatusBadRequest, CodeBadRequest, msgMissingFields, nil)
	}

	prompt := rs.buildPrompt(subject, duration)

	start := time.Now()
	raw, err := rs.generator.Generate(ctx, prompt)
	if err != nil {
		rs.metrics.ObserveRoadmapStage("generate", "error", time.Since(start))
		rs.log.Error("Roadmap generation failed", "subject", subject, "error", err)
		return nil, CodeUpstreamError, apierr.NewWithMessage(http.StatusInternalServerError, CodeUpstreamError, msgGenerationFailed, err)
	}
	rs.metrics.ObserveRoadmapStage("generate", "ok", time.Since(start))

	start = time.Now()
	parsed, err := roadmap.ParseWithOptions(raw, rs.parseOpts)
	if err != nil {
		rs.metrics.ObserveRoadmapStage("parse", "error", time.Since(start))
		rs.log.Warn("Model output rejected", "subject", subject, "error", err, "raw_len", len(raw))
		return nil, CodeBadUpstreamFormat, apierr.NewWithMessage(http.StatusInternalServerError, CodeBadUpstreamFormat, msgInvalidFormat, err)
	}
	data, err := json.Marshal(parsed)
	if err != nil {
		rs.metrics.ObserveRoadmapStage("parse", "error", time.Since(start))
		return nil, CodeBadUpstreamFormat, apierr.NewWithMessage(http.StatusInternalServerError, CodeBadUpstreamFormat, msgInvalidFormat, err)
	}
	rs.metrics.ObserveRoadmapStage("parse", "ok", time.Since(start))

	start = time.Now()
	record := &types.Roadmap{
		SubjectName: subject,
		Duration:    duration,
		RoadmapData: datatypes.JSON(data),
	}
	if _, err := rs.roadmapRepo.Create(dbctx.Of(ctx), []*types.Roadmap{record}); err != nil {
		rs.metrics.ObserveRoadmapStage("persist", "error", time.Since(start))
		rs.log.Error("Roadmap persistence failed", "subject", subject, "error", err)
		return nil, CodePersistenceFailure, apierr.NewWithMessage(http.StatusInternalServerError, CodePersistenceFailure, msgGenerationFailed, fmt.Errorf("save roadmap: %w", err))
	}
	rs.metrics.ObserveRoadmapStage("persist", "ok", time.Since(start))

	rs.log.Info("Roadmap generated", "roadmap_id", record.ID.String(), "subject", subject, "days", dayCount(parsed))
	return record, "ok", nil
}

func dayCount(r *roadmap.Roadmap) int {
	n := 0
	for _, s := range r.Subjects {
		n += len(s.Days)
	}
	return n
}

func (rs *roadmapService) GetByID(ctx context.Context, id uuid.UUID) (*types.Roadmap, error) {
	found, err := rs.roadmapRepo.GetByIDs(dbctx.Of(ctx), []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load roadmap: %w", err)
	}
	if len(found) == 0 {
		return nil, apierr.NewWithMessage(http.StatusNotFound, CodeRoadmapNotFound, msgRoadmapNotFound, nil)
	}
	return found[0], nil
}

func (rs *roadmapService) List(ctx context.Context, limit, offset int) ([]*types.Roadmap, error) {
	out, err := rs.roadmapRepo.List(dbctx.Of(ctx), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list roadmaps: %w", err)
	}
	return out, nil
}

// IsRoadmapNotFound reports a GetByID miss.
func IsRoadmapNotFound(err error) bool {
	return apierr.HasCode(err, CodeRoadmapNotFound)
}
