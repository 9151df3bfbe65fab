package repository

import (
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// deleteCourses removes the given courses and everything hanging off them:
// resources, quizzes with their questions and results, exams with their
// questions, results and answers.
func deleteCourses(tx *gorm.DB, courseIDs []uint) error {
	if len(courseIDs) == 0 {
		return nil
	}

	quizIDs := tx.Model(&models.Quiz{}).Select("id").Where("course_id IN ?", courseIDs)
	if err := deleteQuizChildren(tx, quizIDs); err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Quiz{}).Error; err != nil {
		return err
	}

	examIDs := tx.Model(&models.Exam{}).Select("id").Where("course_id IN ?", courseIDs)
	if err := deleteExamChildren(tx, examIDs); err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Exam{}).Error; err != nil {
		return err
	}

	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.CourseResource{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", courseIDs).Delete(&models.Course{}).Error
}

// quizIDs may be a slice or a subquery.
func deleteQuizChildren(tx *gorm.DB, quizIDs interface{}) error {
	if err := tx.Where("quiz_id IN (?)", quizIDs).Delete(&models.QuizResult{}).Error; err != nil {
		return err
	}
	return tx.Where("quiz_id IN (?)", quizIDs).Delete(&models.QuizQuestion{}).Error
}

func deleteExamChildren(tx *gorm.DB, examIDs interface{}) error {
	resultIDs := tx.Model(&models.ExamResult{}).Select("id").Where("exam_id IN (?)", examIDs)
	if err := tx.Where("exam_result_id IN (?)", resultIDs).Delete(&models.ExamAnswer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("exam_id IN (?)", examIDs).Delete(&models.ExamResult{}).Error; err != nil {
		return err
	}
	return tx.Where("exam_id IN (?)", examIDs).Delete(&models.ExamQuestion{}).Error
}
