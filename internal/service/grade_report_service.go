package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/grading"
	"github.com/filipesuhett/academic-system/internal/observability"
	"github.com/filipesuhett/academic-system/internal/registry"
)

// ErrClassroomNotFound indicates an unknown classroom identifier.
var ErrClassroomNotFound = errors.New("classroom not found")

const reportCachePrefix = "report:grades:"

// GradeReportService computes classroom summaries and the cross-classroom rollup.
type GradeReportService interface {
	ResolvePolicy(value string) (grading.Policy, error)
	Report(ctx context.Context, policy grading.Policy) (dto.GradeReportResponse, error)
	ClassroomGrades(ctx context.Context, id uint, policy grading.Policy) (dto.ClassroomGradesResponse, error)
	Invalidate(ctx context.Context) error
}

type gradeReportService struct {
	registry      *registry.Registry
	cache         *redis.Client
	cacheTTL      time.Duration
	defaultPolicy grading.Policy
	logger        zerolog.Logger
}

// NewGradeReportService builds the reporting collaborator. cache may be nil.
func NewGradeReportService(reg *registry.Registry, cache *redis.Client, ttl time.Duration, defaultPolicy grading.Policy, logger zerolog.Logger) GradeReportService {
	if !defaultPolicy.Valid() {
		defaultPolicy = grading.PolicySum
	}

	return &gradeReportService{
		registry:      reg,
		cache:         cache,
		cacheTTL:      ttl,
		defaultPolicy: defaultPolicy,
		logger:        logger.With().Str("component", "grade_report_service").Logger(),
	}
}

func (s *gradeReportService) ResolvePolicy(value string) (grading.Policy, error) {
	return grading.ParsePolicy(value, s.defaultPolicy)
}

func (s *gradeReportService) Report(ctx context.Context, policy grading.Policy) (dto.GradeReportResponse, error) {
	tracer := otel.Tracer("github.com/filipesuhett/academic-system/internal/service/grade_report")
	ctx, span := tracer.Start(ctx, "grades.report")
	span.SetAttributes(attribute.String("grades.policy", policy.String()))
	defer span.End()

	entries := s.registry.Classrooms()
	cacheKey := reportCacheKey(policy, len(entries))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GradeReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.ReportCacheHits().Inc()
				span.SetAttributes(attribute.Bool("grades.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
	}

	ids := make([]uint, 0, len(entries))
	classrooms := make([]*grading.Classroom, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
		classrooms = append(classrooms, entry.Classroom)
	}

	report, err := grading.BuildReport(classrooms, policy)
	if err != nil {
		observability.GradeReports().WithLabelValues(policy.String(), "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "report_failed")
		return dto.GradeReportResponse{}, err
	}

	response := dto.NewGradeReportResponse(ids, report)
	observability.GradeReports().WithLabelValues(policy.String(), "computed").Inc()
	span.SetAttributes(
		attribute.Int("grades.classrooms", len(response.Classrooms)),
		attribute.Int("grades.students", response.Students),
	)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
			}
		}
	}

	s.logger.Debug().
		Str("policy", policy.String()).
		Int("classrooms", len(response.Classrooms)).
		Float64("median", response.Median).
		Msg("grade report computed")

	return response, nil
}

func (s *gradeReportService) ClassroomGrades(ctx context.Context, id uint, policy grading.Policy) (dto.ClassroomGradesResponse, error) {
	tracer := otel.Tracer("github.com/filipesuhett/academic-system/internal/service/grade_report")
	_, span := tracer.Start(ctx, "grades.classroom")
	span.SetAttributes(attribute.Int64("grades.classroom_id", int64(id)), attribute.String("grades.policy", policy.String()))
	defer span.End()

	classroom, ok := s.registry.FindClassroom(id)
	if !ok {
		span.SetStatus(codes.Error, "classroom_not_found")
		return dto.ClassroomGradesResponse{}, ErrClassroomNotFound
	}

	summary, err := classroom.Summary(policy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary_failed")
		return dto.ClassroomGradesResponse{}, err
	}

	return dto.NewClassroomGradesResponse(id, summary), nil
}

// Invalidate drops every cached report.
func (s *gradeReportService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	var keys []string
	iter := s.cache.Scan(ctx, 0, reportCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan report cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate report cache: %w", err)
	}
	return nil
}

// reportCacheKey versions the key by classroom count; the registry only grows.
func reportCacheKey(policy grading.Policy, classrooms int) string {
	return fmt.Sprintf("%s%s:%d", reportCachePrefix, policy.String(), classrooms)
}
