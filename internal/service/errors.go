package service

import "errors"

// Error kinds. Every error returned by the services wraps one of them.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccountPending  = errors.New("account pending")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrImmutable       = errors.New("immutable")
)

type domainError struct {
	kind    error
	message string
}

func (e *domainError) Error() string { return e.message }

func (e *domainError) Unwrap() error { return e.kind }

func newError(kind error, message string) error {
	return &domainError{kind: kind, message: message}
}

var (
	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")
	ErrPendingApproval    = newError(ErrAccountPending, "account is awaiting administrator approval")
	ErrEmailTaken         = newError(ErrConflict, "email is already registered")

	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrClassNotFound        = newError(ErrNotFound, "class not found")
	ErrJoinRequestNotFound  = newError(ErrNotFound, "join request not found")
	ErrCourseNotFound       = newError(ErrNotFound, "course not found")
	ErrQuizNotFound         = newError(ErrNotFound, "quiz not found")
	ErrExamNotFound         = newError(ErrNotFound, "exam not found")
	ErrQuestionNotFound     = newError(ErrNotFound, "question not found")
	ErrResultNotFound       = newError(ErrNotFound, "result not found")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")

	ErrNotClassOwner    = newError(ErrForbidden, "you do not own this class")
	ErrNotCourseOwner   = newError(ErrForbidden, "you do not own this course")
	ErrNotEnrolled      = newError(ErrForbidden, "you are not enrolled in this class")
	ErrCannotDeleteSelf = newError(ErrForbidden, "you cannot delete your own account")

	ErrJoinRequestExists   = newError(ErrConflict, "a join request already exists for this class")
	ErrAlreadyEnrolled     = newError(ErrConflict, "student is already enrolled in this class")
	ErrJoinRequestResolved = newError(ErrConflict, "join request has already been processed")
	ErrUserInUse           = newError(ErrConflict, "user still owns classes or courses")

	ErrQuizAlreadyTaken = newError(ErrForbidden, "quiz already taken")
	ErrExamAlreadyTaken = newError(ErrForbidden, "exam already taken")
	ErrExamLocked       = newError(ErrImmutable, "exam already taken by students")
	ErrNoQuestions      = newError(ErrConflict, "assessment has no questions")

	ErrUploadTooLarge = newError(ErrValidation, "file exceeds maximum allowed size")
)
