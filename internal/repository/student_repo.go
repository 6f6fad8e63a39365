package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/filipesuhett/academic-system/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByEnrollmentID(ctx context.Context, enrollmentID string) (models.Student, error)
	ListByEnrollmentIDs(ctx context.Context, enrollmentIDs []string) ([]models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByEnrollmentID(ctx context.Context, enrollmentID string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("enrollment_id = ?", enrollmentID).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListByEnrollmentIDs(ctx context.Context, enrollmentIDs []string) ([]models.Student, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Where("enrollment_id IN ?", enrollmentIDs).Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}
