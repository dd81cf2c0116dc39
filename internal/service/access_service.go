package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
)

type accessAssignmentRepo interface {
	ListActiveByTeacher(ctx context.Context, teacherID string, classCodes []string) ([]models.ClassAccessAssignment, error)
	List(ctx context.Context, teacherID, classCode string) ([]models.ClassAccessAssignment, error)
	Upsert(ctx context.Context, assignment *models.ClassAccessAssignment) error
	Deactivate(ctx context.Context, id string) error
	ActiveClassCodes(ctx context.Context, teacherID string) ([]string, error)
}

type ownershipReader interface {
	OwnedClassCodes(ctx context.Context, teacherID string, classCodes []string) ([]string, error)
}

type classCatalog interface {
	DistinctClassCodes(ctx context.Context, academicYear string) ([]string, error)
}

// AccessService computes a teacher's effective access to classes by layering
// ownership-derived and role-derived overrides onto the explicit assignment
// table.
type AccessService struct {
	assignments accessAssignmentRepo
	ownership   ownershipReader
	catalog     classCatalog
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAccessService constructs the service.
func NewAccessService(assignments accessAssignmentRepo, ownership ownershipReader, catalog classCatalog, validate *validator.Validate, logger *zap.Logger) *AccessService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{assignments: assignments, ownership: ownership, catalog: catalog, validator: validate, logger: logger}
}

// ResolveEffectiveAccess returns the effective level per requested class.
// Administrative roles short-circuit to FULL everywhere. Otherwise the base
// level comes from the active assignment row (NONE when absent) and any class
// the caller owns content in is upgraded to FULL; a revoked assignment does
// not suppress an ownership-derived FULL.
func (s *AccessService) ResolveEffectiveAccess(ctx context.Context, claims *models.JWTClaims, classCodes []string) (map[string]models.AccessLevel, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	result := make(map[string]models.AccessLevel, len(classCodes))

	if claims.Role.IsAdministrative() {
		for _, code := range classCodes {
			result[code] = models.AccessFull
		}
		return result, nil
	}

	for _, code := range classCodes {
		result[code] = models.AccessNone
	}

	assignments, err := s.assignments.ListActiveByTeacher(ctx, claims.UserID, classCodes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load access assignments")
	}
	for _, a := range assignments {
		if a.AccessLevel.Rank() > result[a.ClassCode].Rank() {
			result[a.ClassCode] = a.AccessLevel
		}
	}

	owned, err := s.ownership.OwnedClassCodes(ctx, claims.UserID, classCodes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ownership records")
	}
	for _, code := range owned {
		// An owner is never shown as merely a viewer of their own content.
		result[code] = models.AccessFull
	}

	return result, nil
}

// AccessibleClasses lists the classes the caller may see for the year together
// with the effective level per class. Administrative roles see every class
// known to the grid.
func (s *AccessService) AccessibleClasses(ctx context.Context, claims *models.JWTClaims, academicYear string) ([]string, map[string]models.AccessLevel, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}

	if claims.Role.IsAdministrative() {
		codes, err := s.catalog.DistinctClassCodes(ctx, academicYear)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
		}
		levels := make(map[string]models.AccessLevel, len(codes))
		for _, code := range codes {
			levels[code] = models.AccessFull
		}
		return codes, levels, nil
	}

	assigned, err := s.assignments.ActiveClassCodes(ctx, claims.UserID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned classes")
	}
	owned, err := s.ownership.OwnedClassCodes(ctx, claims.UserID, nil)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list owned classes")
	}

	seen := make(map[string]struct{}, len(assigned)+len(owned))
	union := make([]string, 0, len(assigned)+len(owned))
	for _, code := range append(assigned, owned...) {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		union = append(union, code)
	}
	sort.Strings(union)

	levels, err := s.ResolveEffectiveAccess(ctx, claims, union)
	if err != nil {
		return nil, nil, err
	}

	visible := make([]string, 0, len(union))
	for _, code := range union {
		if levels[code].CanView() {
			visible = append(visible, code)
		}
	}
	return visible, levels, nil
}

// ListAssignments returns assignment rows (including history) for admins.
func (s *AccessService) ListAssignments(ctx context.Context, filter dto.AccessAssignmentFilter) ([]models.ClassAccessAssignment, error) {
	assignments, err := s.assignments.List(ctx, filter.TeacherID, filter.ClassCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// UpsertAssignment grants or replaces a base access level. Granting NONE is
// expressed by deactivating the current row instead of storing a NONE level.
func (s *AccessService) UpsertAssignment(ctx context.Context, req dto.UpsertAccessAssignmentRequest) (*models.ClassAccessAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access assignment payload")
	}

	assignment := &models.ClassAccessAssignment{
		TeacherID:   req.TeacherID,
		ClassCode:   req.ClassCode,
		AccessLevel: req.AccessLevel,
	}
	if err := s.assignments.Upsert(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store access assignment")
	}
	return assignment, nil
}

// DeactivateAssignment revokes an assignment row, keeping it as history.
func (s *AccessService) DeactivateAssignment(ctx context.Context, id string) error {
	if err := s.assignments.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "active assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate assignment")
	}
	return nil
}
