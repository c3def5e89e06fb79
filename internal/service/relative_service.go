package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

type relativeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Relative, error)
	FindByID(ctx context.Context, id string) (*models.Relative, error)
	Create(ctx context.Context, relative *models.Relative) error
	Update(ctx context.Context, relative *models.Relative) error
	Delete(ctx context.Context, id string) error
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Student, error)
}

// RelativeService manages secondary contacts of students.
type RelativeService struct {
	relatives relativeRepository
	students  studentFinder
	validator *validation.Validator
	logger    *zap.Logger
}

// NewRelativeService constructs the relative service.
func NewRelativeService(relatives relativeRepository, students studentFinder, validate *validation.Validator, logger *zap.Logger) *RelativeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelativeService{relatives: relatives, students: students, validator: defaultValidator(validate), logger: logger}
}

// Create adds a relative to the student identified by the request's student national ID.
func (s *RelativeService) Create(ctx context.Context, req dto.RelativeRequest) (*models.Relative, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	if req.StudentNationalID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "öğrenci TC kimlik numarası zorunludur")
	}
	student, err := s.studentByNationalID(ctx, req.StudentNationalID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, student.ID, req)
}

// BulkSave stores each relative independently; failures are reported without aborting the rest.
func (s *RelativeService) BulkSave(ctx context.Context, req dto.BulkRelativesRequest) (*dto.BulkRelativesResult, error) {
	if err := s.validator.Var(req.StudentNationalID, "required,tckn"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "öğrenci TC kimlik numarası 11 haneli ve yalnızca rakamlardan oluşmalıdır")
	}
	if len(req.Relatives) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "en az bir yakın gönderilmelidir")
	}
	student, err := s.studentByNationalID(ctx, req.StudentNationalID)
	if err != nil {
		return nil, err
	}

	result := &dto.BulkRelativesResult{Failed: []dto.BulkFailure{}}
	for i, item := range req.Relatives {
		if err := s.validator.Struct(item); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{Index: i, Name: item.Name, Message: s.validator.Message(err)})
			continue
		}
		if _, err := s.create(ctx, student.ID, item); err != nil {
			s.logger.Warn("bulk relative save failed", zap.String("student_id", student.ID), zap.Int("index", i), zap.Error(err))
			result.Failed = append(result.Failed, dto.BulkFailure{Index: i, Name: item.Name, Message: appErrors.FromError(err).Message})
			continue
		}
		result.Saved++
	}
	return result, nil
}

// ListByStudent returns the relatives of a student.
func (s *RelativeService) ListByStudent(ctx context.Context, studentID string) ([]models.Relative, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, appErrors.Internal(err, "öğrenci bilgileri alınamadı")
	}
	relatives, err := s.relatives.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "yakın listesi alınamadı")
	}
	return emptyIfNil(relatives), nil
}

// Get returns a relative.
func (s *RelativeService) Get(ctx context.Context, id string) (*models.Relative, error) {
	relative, err := s.relatives.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "yakın bulunamadı")
		}
		return nil, appErrors.Internal(err, "yakın bilgileri alınamadı")
	}
	return relative, nil
}

// Update rewrites a relative's contact fields. The owning student never changes.
func (s *RelativeService) Update(ctx context.Context, id string, req dto.RelativeRequest) (*models.Relative, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	relative, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRelativeRequest(relative, req)
	if err := s.relatives.Update(ctx, relative); err != nil {
		return nil, appErrors.Internal(err, "yakın güncellenemedi")
	}
	return relative, nil
}

// Delete removes a relative.
func (s *RelativeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.relatives.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "yakın silinemedi")
	}
	return nil
}

func (s *RelativeService) create(ctx context.Context, studentID string, req dto.RelativeRequest) (*models.Relative, error) {
	relative := &models.Relative{StudentID: studentID}
	applyRelativeRequest(relative, req)
	if err := s.relatives.Create(ctx, relative); err != nil {
		return nil, appErrors.Internal(err, "yakın kaydedilemedi")
	}
	return relative, nil
}

func (s *RelativeService) studentByNationalID(ctx context.Context, nationalID string) (*models.Student, error) {
	student, err := s.students.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bu TC kimlik numarasıyla kayıtlı öğrenci bulunamadı")
		}
		return nil, appErrors.Internal(err, "öğrenci bilgileri alınamadı")
	}
	return student, nil
}

func applyRelativeRequest(relative *models.Relative, req dto.RelativeRequest) {
	relative.Name = strings.TrimSpace(req.Name)
	relative.NationalID = req.NationalID
	relative.Phone = strings.TrimSpace(req.Phone)
	relative.Occupation = strings.TrimSpace(req.Occupation)
	relative.RelationType = strings.TrimSpace(req.RelationType)
}
