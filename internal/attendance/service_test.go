package attendance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/queue"
)

func newFileService(t *testing.T) *Service {
	t.Helper()
	return NewService(newFileAdapter(t), nil, nil)
}

func pendingSubmission(t *testing.T, svc *Service, email, name, datetime string) Submission {
	t.Helper()
	sub, err := svc.SubmitCheckIn(context.Background(), CheckInInput{
		StudentEmail: email,
		StudentName:  name,
		Photo:        "data:image/jpeg;base64,abc123",
		Lat:          "12.9716",
		Long:         "77.5946",
		Date:         mustTime(t, datetime),
	})
	require.NoError(t, err)
	return sub
}

func TestSubmitCheckInDefaults(t *testing.T) {
	svc := newFileService(t)

	sub := pendingSubmission(t, svc, "A@X.com", "", "2025-01-22T09:00:00Z")
	assert.Equal(t, StatusPending, sub.Status)
	assert.Equal(t, TypePhotoBased, sub.Type)
	assert.Equal(t, "a@x.com", sub.Student.Email)
	assert.Equal(t, "Student User", sub.Student.Name)
	assert.Equal(t, "12.9716, 77.5946", sub.Address)
	assert.False(t, sub.SubmittedAt.IsZero())
}

func TestSubmitCheckInValidation(t *testing.T) {
	svc := newFileService(t)

	_, err := svc.SubmitCheckIn(context.Background(), CheckInInput{
		StudentEmail: "a@x.com",
		Lat:          "12.9716",
		Long:         "77.5946",
		// no photo
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitCheckInAllowsSameDayResubmission(t *testing.T) {
	svc := newFileService(t)

	pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")
	pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:05:00Z")

	subs, err := svc.Adapter().ListSubmissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestVerifyApprovedSyncsLedger(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	sub := pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")

	updated, synced, err := svc.Verify(ctx, sub.ID, StatusApproved, "Admin")
	require.NoError(t, err)
	assert.True(t, synced)
	assert.Equal(t, StatusApproved, updated.Status)

	entries, err := svc.Adapter().ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.com", entries[0].StudentID)
	assert.Equal(t, "Alice", entries[0].StudentName)
	assert.Equal(t, StatusPresent, entries[0].Status)
	assert.Equal(t, TypePhotoVerified, entries[0].Type)
	assert.Equal(t, "Photo Verification", entries[0].MarkedBy)
	assert.Equal(t, sub.ID, entries[0].AttendanceRecordID)
}

func TestVerifyNonApprovalDoesNotSync(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	for _, status := range []string{StatusRejected, StatusPresent, StatusAbsent} {
		sub := pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")

		updated, synced, err := svc.Verify(ctx, sub.ID, status, "Admin")
		require.NoError(t, err)
		assert.False(t, synced)
		assert.Equal(t, status, updated.Status)
	}

	entries, err := svc.Adapter().ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVerifyReapprovalIsIdempotent(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	sub := pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")

	_, _, err := svc.Verify(ctx, sub.ID, StatusApproved, "Admin")
	require.NoError(t, err)
	_, _, err = svc.Verify(ctx, sub.ID, StatusApproved, "Another Admin")
	require.NoError(t, err)

	entries, err := svc.Adapter().ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVerifyNotFound(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	_, synced, err := svc.Verify(ctx, "nonexistent-id", StatusApproved, "Admin")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, synced)

	all, err := svc.Adapter().ListAllDaily(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestVerifyInvalidStatus(t *testing.T) {
	svc := newFileService(t)

	_, _, err := svc.Verify(context.Background(), "1", "Maybe", "Admin")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = svc.Verify(context.Background(), "1", StatusPending, "Admin")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuickMark(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	entry, err := svc.QuickMark(ctx, QuickMarkInput{
		Date:      "2025-01-22T10:30:00Z",
		StudentID: "a@x.com",
		Status:    StatusPresent,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-22", entry.Date)
	assert.Equal(t, TypeManual, entry.Type)
	assert.Equal(t, "Admin", entry.MarkedBy)
	assert.Equal(t, "Unknown Student", entry.StudentName)
}

func TestQuickMarkValidation(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	_, err := svc.QuickMark(ctx, QuickMarkInput{StudentID: "a@x.com", Status: StatusPresent})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.QuickMark(ctx, QuickMarkInput{Date: "2025-01-22", StudentID: "a@x.com", Status: StatusApproved})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuickMarkRejectsUnparseableDate(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	_, err := svc.QuickMark(ctx, QuickMarkInput{Date: "garbage", StudentID: "a@x.com", Status: StatusPresent})
	assert.ErrorIs(t, err, ErrValidation)

	all, err := svc.Adapter().ListAllDaily(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQuickMarkAndVerificationConvergeOnSameKey(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	_, err := svc.QuickMark(ctx, QuickMarkInput{Date: "2025-01-22", StudentID: "a@x.com", Status: StatusAbsent})
	require.NoError(t, err)

	sub := pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")
	_, _, err = svc.Verify(ctx, sub.ID, StatusApproved, "Admin")
	require.NoError(t, err)

	entries, err := svc.Adapter().ListDaily(ctx, "2025-01-22")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusPresent, entries[0].Status)
	assert.Equal(t, TypePhotoVerified, entries[0].Type)
}

func TestCheckInPublishesEvent(t *testing.T) {
	q := queue.NewInMemory(4)
	svc := NewService(newFileAdapter(t), nil, q)

	sub := pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")

	msgs, err := q.Consume(context.Background())
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		assert.Equal(t, "checkin", msg.Type)
		var evt queue.AttendanceEvent
		require.NoError(t, json.Unmarshal(msg.Body, &evt))
		assert.Equal(t, sub.ID, evt.ID)
		assert.Equal(t, "a@x.com", evt.Student)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestCheckInDoesNotBlockOnFullQueue(t *testing.T) {
	q := queue.NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), queue.Message{Type: "checkin"}))
	svc := NewService(newFileAdapter(t), nil, q)

	// Nothing drains the queue; the check-in must still return promptly.
	start := time.Now()
	sub := pendingSubmission(t, svc, "a@x.com", "Alice", "2025-01-22T09:00:00Z")
	assert.Equal(t, StatusPending, sub.Status)
	assert.Less(t, time.Since(start), time.Second)
}
