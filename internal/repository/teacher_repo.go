package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/filipesuhett/academic-system/internal/models"
)

// TeacherRepository provides access to teacher records.
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByNationalID(ctx context.Context, nationalID string) (models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepository) GetByNationalID(ctx context.Context, nationalID string) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).Where("national_id = ?", nationalID).First(&teacher).Error; err != nil {
		return models.Teacher{}, err
	}

	return teacher, nil
}

func (r *teacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&teachers).Error; err != nil {
		return nil, err
	}

	return teachers, nil
}
