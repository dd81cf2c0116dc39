package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
)

type curriculumRepo interface {
	ListActive(ctx context.Context, classCode, academicYear string) ([]models.CurriculumMapping, error)
	Upsert(ctx context.Context, mapping *models.CurriculumMapping) error
}

// CurriculumService resolves the prioritized curriculum assignment for a
// class/year pair, with a short-TTL cache in front of the mapping table.
type CurriculumService struct {
	repo      curriculumRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCurriculumService constructs the service.
func NewCurriculumService(repo curriculumRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{repo: repo, cache: cache, validator: validate, logger: logger}
}

func curriculumCacheKey(classCode, academicYear string) string {
	return fmt.Sprintf("curriculum:%s:%s", classCode, academicYear)
}

// Resolve returns the active mappings for the key ordered by priority, with
// priority 1 exposed as primary and 2 as secondary. An unmapped class yields
// the explicit unassigned sentinel, never an error. Cache staleness up to the
// TTL is accepted; cache failures degrade to the repository.
func (s *CurriculumService) Resolve(ctx context.Context, classCode, academicYear string) (*models.CurriculumResolution, error) {
	if classCode == "" || academicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class and year are required")
	}

	key := curriculumCacheKey(classCode, academicYear)
	if s.cache != nil {
		var cached models.CurriculumResolution
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	mappings, err := s.repo.ListActive(ctx, classCode, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum mappings")
	}

	resolution := models.UnassignedCurriculum(classCode, academicYear)
	if len(mappings) > 0 {
		resolution.Assigned = true
		resolution.All = mappings
		for i := range mappings {
			switch mappings[i].Priority {
			case 1:
				if resolution.Primary == nil {
					resolution.Primary = &mappings[i]
				}
			case 2:
				if resolution.Secondary == nil {
					resolution.Secondary = &mappings[i]
				}
			}
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, resolution, 0)
	}
	return resolution, nil
}

// UpsertMapping stores a mapping row and force-invalidates the resolver cache
// for its key, so writers see their change before the TTL expires.
func (s *CurriculumService) UpsertMapping(ctx context.Context, req dto.UpsertCurriculumMappingRequest) (*models.CurriculumMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum mapping payload")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	mapping := &models.CurriculumMapping{
		ClassCode:       req.ClassCode,
		AcademicYear:    req.AcademicYear,
		Priority:        req.Priority,
		CurriculumLevel: req.CurriculumLevel,
		Active:          active,
	}
	if err := s.repo.Upsert(ctx, mapping); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store curriculum mapping")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, curriculumCacheKey(req.ClassCode, req.AcademicYear)+"*"); err != nil {
			s.logger.Warn("curriculum cache invalidation failed",
				zap.String("class", req.ClassCode),
				zap.String("year", req.AcademicYear),
				zap.Error(err))
		}
	}
	return mapping, nil
}
