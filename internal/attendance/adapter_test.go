package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/store"
)

func newFileAdapter(t *testing.T) *Adapter {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewAdapter(store.ModeFile, nil, fs)
}

func TestAddStudentDefaultsAndSequentialCode(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	s, err := a.AddStudent(ctx, Student{Name: "  Alice  ", Email: "Alice@X.com"})
	require.NoError(t, err)
	assert.Equal(t, "1", s.ID)
	assert.Equal(t, "Alice", s.Name)
	assert.Equal(t, "alice@x.com", s.Email)
	assert.Equal(t, "STU001", s.StudentID)
	assert.Equal(t, "Not Specified", s.Department)
	assert.Equal(t, "active", s.Status)
	assert.False(t, s.CreatedAt.IsZero())

	s2, err := a.AddStudent(ctx, Student{Name: "Bob", Email: "bob@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "STU002", s2.StudentID)

	all, err := a.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddStudentRejectsDuplicateEmail(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	_, err := a.AddStudent(ctx, Student{Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = a.AddStudent(ctx, Student{Name: "Another Alice", Email: "A@X.COM"})
	assert.ErrorIs(t, err, ErrDuplicate)

	all, err := a.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddStudentGeneratedCodeSkipsExistingCodes(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	// An explicit code occupies the slot the counter would pick next.
	_, err := a.AddStudent(ctx, Student{Name: "Alice", Email: "a@x.com", StudentID: "STU002"})
	require.NoError(t, err)

	generated, err := a.AddStudent(ctx, Student{Name: "Bob", Email: "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "STU003", generated.StudentID)

	codes := map[string]bool{}
	all, err := a.ListStudents(ctx)
	require.NoError(t, err)
	for _, s := range all {
		assert.False(t, codes[s.StudentID], "code %s assigned twice", s.StudentID)
		codes[s.StudentID] = true
	}
}

func TestAddStudentRejectsDuplicateCode(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	_, err := a.AddStudent(ctx, Student{Name: "Alice", Email: "a@x.com", StudentID: "STU900"})
	require.NoError(t, err)

	_, err = a.AddStudent(ctx, Student{Name: "Bob", Email: "b@x.com", StudentID: "STU900"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAddStudentRequiresNameAndEmail(t *testing.T) {
	a := newFileAdapter(t)

	_, err := a.AddStudent(context.Background(), Student{Name: "No Email"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListSubmissionsNewestFirst(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	older := mustTime(t, "2025-01-20T09:00:00Z")
	newer := mustTime(t, "2025-01-22T09:00:00Z")

	_, err := a.AddSubmission(ctx, Submission{Student: StudentRef{Email: "a@x.com"}, Date: older})
	require.NoError(t, err)
	_, err = a.AddSubmission(ctx, Submission{Student: StudentRef{Email: "b@x.com"}, Date: newer})
	require.NoError(t, err)

	subs, err := a.ListSubmissions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "b@x.com", subs[0].Student.Email)
	assert.Equal(t, "a@x.com", subs[1].Student.Email)
}

func TestUpdateSubmissionStatus(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	sub, err := a.AddSubmission(ctx, Submission{
		Student: StudentRef{Name: "Alice", Email: "a@x.com"},
		Status:  StatusPending,
		Date:    time.Now().UTC(),
	})
	require.NoError(t, err)

	updated, err := a.UpdateSubmissionStatus(ctx, sub.ID, StatusApproved, "Admin")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	assert.Equal(t, "Admin", updated.VerifiedBy)
	require.NotNil(t, updated.VerifiedAt)

	// Mutation survives a reload.
	subs, err := a.ListSubmissions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, StatusApproved, subs[0].Status)
}

func TestUpdateSubmissionStatusNotFound(t *testing.T) {
	a := newFileAdapter(t)

	_, err := a.UpdateSubmissionStatus(context.Background(), "nonexistent-id", StatusApproved, "Admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertDailyEntryIdempotence(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	first := DailyEntry{Date: "2025-01-22", StudentID: "a@x.com", StudentName: "Alice", Status: StatusPresent, MarkedBy: "Admin", Type: TypeManual}
	_, err := a.UpsertDailyEntry(ctx, first)
	require.NoError(t, err)

	second := first
	second.Status = StatusAbsent
	_, err = a.UpsertDailyEntry(ctx, second)
	require.NoError(t, err)

	entries, err := a.ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusAbsent, entries[0].Status)
}

func TestUpsertDailyEntryKeepsBackReferenceOnMerge(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	photo := DailyEntry{Date: "2025-01-22", StudentID: "a@x.com", Status: StatusPresent, Type: TypePhotoVerified, AttendanceRecordID: "41"}
	_, err := a.UpsertDailyEntry(ctx, photo)
	require.NoError(t, err)

	manual := DailyEntry{Date: "2025-01-22", StudentID: "a@x.com", Status: StatusAbsent, Type: TypeManual}
	merged, err := a.UpsertDailyEntry(ctx, manual)
	require.NoError(t, err)
	assert.Equal(t, "41", merged.AttendanceRecordID)
}

func TestUpsertDailyEntrySeparateKeys(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	for _, e := range []DailyEntry{
		{Date: "2025-01-22", StudentID: "a@x.com", Status: StatusPresent},
		{Date: "2025-01-22", StudentID: "b@x.com", Status: StatusPresent},
		{Date: "2025-01-23", StudentID: "a@x.com", Status: StatusAbsent},
	} {
		_, err := a.UpsertDailyEntry(ctx, e)
		require.NoError(t, err)
	}

	day1, err := a.ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	assert.Len(t, day1, 2)

	all, err := a.ListAllDaily(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest date first.
	assert.Equal(t, "2025-01-23", all[0].Date)
}

func TestEmptyCollectionsReadAsEmpty(t *testing.T) {
	a := newFileAdapter(t)
	ctx := context.Background()

	students, err := a.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	subs, err := a.ListSubmissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	daily, err := a.ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	assert.Empty(t, daily)
}

func TestHealthCheckFileMode(t *testing.T) {
	a := newFileAdapter(t)

	h := a.HealthCheck(context.Background())
	assert.Equal(t, "file_storage", h.Mode)
	assert.Equal(t, "file_storage", h.Status)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}
