package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filipesuhett/academic-system/internal/models"
)

// ClassroomRepository persists classrooms together with their roster, exams and results.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	List(ctx context.Context) ([]models.Classroom, error)
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository instantiates a GORM-backed repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Classroom{}).
		Preload("Teacher").
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Enrollments.Student").
		Preload("Exams", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Exams.Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Exams.Results.Student")
}

// Create writes the classroom and its children in one transaction. Teacher and student
// rows must already exist; only their IDs are referenced.
func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(classroom).Error; err != nil {
			return err
		}

		for i := range classroom.Enrollments {
			enrollment := &classroom.Enrollments[i]
			enrollment.ClassroomID = classroom.ID
			if err := tx.Omit(clause.Associations).Create(enrollment).Error; err != nil {
				return err
			}
		}

		for i := range classroom.Exams {
			exam := &classroom.Exams[i]
			exam.ClassroomID = classroom.ID
			if err := tx.Omit(clause.Associations).Create(exam).Error; err != nil {
				return err
			}
			for j := range exam.Results {
				result := &exam.Results[j]
				result.ExamID = exam.ID
				if err := tx.Omit(clause.Associations).Create(result).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.baseQuery(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.baseQuery(ctx).Order("id ASC").Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}
