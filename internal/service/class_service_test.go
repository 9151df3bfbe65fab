package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

func TestClassServiceJoinRequestAcceptedAppearsInRoster(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher T", models.RoleTeacher)
	student := f.user(t, "Student S", models.RoleStudent)

	class, err := svc.Create(ctx, teacher, dto.ClassCreateRequest{Name: "10B"})
	require.NoError(t, err)

	request, err := svc.RequestJoin(ctx, student, class.ID)
	require.NoError(t, err)
	require.Equal(t, models.JoinRequestPending, request.Status)

	pending, err := svc.PendingRequests(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.Accept(ctx, teacher, request.ID))

	roster, err := svc.Roster(ctx, teacher, class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, student.ID, roster[0].ID)

	pending, err = svc.PendingRequests(ctx, teacher)
	require.NoError(t, err)
	require.Empty(t, pending)

	mine, err := svc.MyClasses(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "10B", mine[0].Name)

	require.Equal(t, []string{models.NotificationJoinAccepted}, f.notifier.kinds(student.ID))
	require.Len(t, f.activities(t, models.ActionJoinAccepted), 1)
}

func TestClassServiceJoinRequestConflicts(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	class := f.class(t, teacher, "Algebra")

	request, err := svc.RequestJoin(ctx, student, class.ID)
	require.NoError(t, err)

	_, err = svc.RequestJoin(ctx, student, class.ID)
	require.ErrorIs(t, err, ErrJoinRequestExists)
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, svc.Reject(ctx, teacher, request.ID))
	err = svc.Accept(ctx, teacher, request.ID)
	require.ErrorIs(t, err, ErrJoinRequestResolved)

	enrolled, err := f.classes.IsEnrolled(ctx, class.ID, student.ID)
	require.NoError(t, err)
	require.False(t, enrolled)
	require.Equal(t, []string{models.NotificationJoinRejected}, f.notifier.kinds(student.ID))

	_, err = svc.RequestJoin(ctx, student, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClassServiceRequestJoinRejectsEnrolledStudent(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	class := f.class(t, teacher, "Biology")
	f.enroll(t, class.ID, student)

	_, err := svc.RequestJoin(ctx, student, class.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestClassServiceOwnershipIsEnforced(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	owner := f.user(t, "Owner", models.RoleTeacher)
	other := f.user(t, "Other", models.RoleTeacher)
	admin := f.user(t, "Admin", models.RoleAdmin)
	student := f.user(t, "Student", models.RoleStudent)
	class := f.class(t, owner, "Chemistry")

	request, err := svc.RequestJoin(ctx, student, class.ID)
	require.NoError(t, err)

	err = svc.Accept(ctx, other, request.ID)
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.AddStudent(ctx, other, class.ID, student.ID)
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, other, class.ID)
	require.ErrorIs(t, err, ErrNotClassOwner)

	otherPending, err := svc.PendingRequests(ctx, other)
	require.NoError(t, err)
	require.Empty(t, otherPending)

	adminPending, err := svc.PendingRequests(ctx, admin)
	require.NoError(t, err)
	require.Len(t, adminPending, 1)

	require.NoError(t, svc.Accept(ctx, admin, request.ID))
}

func TestClassServiceAddAndRemoveStudent(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	colleague := f.user(t, "Colleague", models.RoleTeacher)
	class := f.class(t, teacher, "Drama")

	err := svc.AddStudent(ctx, teacher, class.ID, colleague.ID)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "student_id")

	require.NoError(t, svc.AddStudent(ctx, teacher, class.ID, student.ID))
	require.ErrorIs(t, svc.AddStudent(ctx, teacher, class.ID, student.ID), ErrAlreadyEnrolled)
	require.Equal(t, []string{models.NotificationAddedToClass}, f.notifier.kinds(student.ID))

	require.NoError(t, svc.RemoveStudent(ctx, teacher, class.ID, student.ID))
	require.NoError(t, svc.RemoveStudent(ctx, teacher, class.ID, student.ID))

	require.Len(t, f.activities(t, models.ActionStudentAdded), 1)
	require.Len(t, f.activities(t, models.ActionStudentRemoved), 1)
}

func TestClassServiceRemoveStudentClearsPendingRequest(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	class := f.class(t, teacher, "Choir")

	_, err := svc.RequestJoin(ctx, student, class.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveStudent(ctx, teacher, class.ID, student.ID))

	requests, err := svc.MyRequests(ctx, student)
	require.NoError(t, err)
	require.Empty(t, requests)
	require.Empty(t, f.activities(t, models.ActionStudentRemoved))

	_, err = svc.RequestJoin(ctx, student, class.ID)
	require.NoError(t, err)
}

func TestClassServiceDeleteCascades(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	enrolled := f.user(t, "Enrolled", models.RoleStudent)
	waiting := f.user(t, "Waiting", models.RoleStudent)
	class := f.class(t, teacher, "History")
	f.enroll(t, class.ID, enrolled)
	_, err := svc.RequestJoin(ctx, waiting, class.ID)
	require.NoError(t, err)
	classID := class.ID
	f.course(t, teacher, "Class notes", &classID)
	public := f.course(t, teacher, "Open notes", nil)

	require.NoError(t, svc.Delete(ctx, teacher, class.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.JoinRequest{}).Where("class_id = ?", class.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, f.db.Model(&models.Enrollment{}).Where("class_id = ?", class.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, f.db.Model(&models.Course{}).Where("class_id = ?", class.ID).Count(&count).Error)
	require.Zero(t, count)

	_, err = f.courses.GetByID(ctx, public.ID)
	require.NoError(t, err)

	entries := f.activities(t, models.ActionClassDeleted)
	require.Len(t, entries, 1)
	require.Equal(t, "History", entries[0].Metadata["name"])

	require.ErrorIs(t, svc.Delete(ctx, teacher, class.ID), ErrClassNotFound)
}

func TestClassServiceListAndUpdate(t *testing.T) {
	f := newFixture(t)
	svc := f.classService()
	ctx := context.Background()

	teacher := f.user(t, "Teacher", models.RoleTeacher)
	student := f.user(t, "Student", models.RoleStudent)
	class := f.class(t, teacher, "Geography")
	f.enroll(t, class.ID, student)

	classes, err := svc.List(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.NotNil(t, classes[0].StudentCount)
	require.EqualValues(t, 1, *classes[0].StudentCount)

	name := "  <b>Geography II</b> "
	updated, err := svc.Update(ctx, teacher, class.ID, dto.ClassUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Geography II", updated.Name)

	empty := "   "
	_, err = svc.Update(ctx, teacher, class.ID, dto.ClassUpdateRequest{Name: &empty})
	require.ErrorIs(t, err, ErrValidation)

	found, err := svc.SearchStudents(ctx, "stud")
	require.NoError(t, err)
	require.Len(t, found, 1)
}
