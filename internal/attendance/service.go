package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"attendance/internal/queue"
)

// PhotoStore offloads large photo payloads to an external image host.
// When nil, photos are stored inline with the submission.
type PhotoStore interface {
	UploadDataURL(data string) (url string, err error)
}

// Service owns the verification state machine and the quick-mark path.
// It is the only component that decides what gets written into the daily
// ledger; all storage goes through the adapter.
type Service struct {
	adapter *Adapter
	photos  PhotoStore
	events  queue.Queue
}

// NewService wires the verification engine. photos and events may be nil.
func NewService(adapter *Adapter, photos PhotoStore, events queue.Queue) *Service {
	return &Service{adapter: adapter, photos: photos, events: events}
}

// Adapter exposes the persistence layer for read-side handlers.
func (s *Service) Adapter() *Adapter { return s.adapter }

// CheckInInput is a student's photo check-in as received from the capture
// layer.
type CheckInInput struct {
	StudentEmail string
	StudentName  string
	Photo        string
	Lat          string
	Long         string
	Address      string
	Date         time.Time
}

// SubmitCheckIn validates and stores a new Pending submission. Duplicate
// same-day submissions for a student are deliberately not rejected:
// students may resubmit after a bad photo, and the ledger's composite-key
// upsert collapses them at approval time.
func (s *Service) SubmitCheckIn(ctx context.Context, in CheckInInput) (Submission, error) {
	in.StudentEmail = strings.ToLower(strings.TrimSpace(in.StudentEmail))
	if in.Lat == "" || in.Long == "" || in.Photo == "" || in.StudentEmail == "" {
		return Submission{}, fmt.Errorf("%w: location data, photo, and student ID are required", ErrValidation)
	}
	if in.StudentName == "" {
		in.StudentName = "Student User"
	}
	if in.Address == "" {
		in.Address = fmt.Sprintf("%s, %s", in.Lat, in.Long)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	photo := in.Photo
	if s.photos != nil && strings.HasPrefix(photo, "data:") {
		if url, err := s.photos.UploadDataURL(photo); err == nil {
			photo = url
		} else {
			// Keep the inline payload rather than failing the check-in.
			log.Printf("photo offload failed, storing inline: %v", err)
		}
	}

	sub := Submission{
		Student:     StudentRef{Name: in.StudentName, Email: in.StudentEmail},
		Photo:       photo,
		Location:    Location{Lat: in.Lat, Long: in.Long},
		Address:     in.Address,
		Date:        in.Date,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
		Type:        TypePhotoBased,
	}

	saved, err := s.adapter.AddSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}
	checkinsTotal.Inc()
	s.publish(ctx, "checkin", saved.ID, saved.Student.Email, saved.Status)
	return saved, nil
}

// Verify resolves a Pending submission to a terminal status. Only when
// the target status is Approved is the submission reconciled
// into the daily ledger as Present for the calendar day of its event date.
// Approved is the single canonical "counts as attended" signal; Present,
// Absent, and Rejected outcomes touch only the submission record.
//
// The returned bool reports whether a ledger sync happened. ErrNotFound
// propagates when the id resolves to nothing; no ledger write occurs then.
func (s *Service) Verify(ctx context.Context, id, status, verifiedBy string) (Submission, bool, error) {
	if !ValidSubmissionStatus(status) || status == StatusPending {
		return Submission{}, false, fmt.Errorf("%w: invalid verification status %q", ErrValidation, status)
	}
	if verifiedBy == "" {
		verifiedBy = "Admin"
	}

	sub, err := s.adapter.UpdateSubmissionStatus(ctx, id, status, verifiedBy)
	if err != nil {
		return Submission{}, false, err
	}
	verificationsTotal.WithLabelValues(status).Inc()

	synced := false
	if status == StatusApproved {
		entry := DailyEntry{
			Date:               DateKey(sub.Date),
			StudentID:          sub.Student.Email,
			StudentName:        sub.Student.Name,
			Status:             StatusPresent,
			MarkedBy:           "Photo Verification",
			MarkedAt:           time.Now().UTC(),
			Type:               TypePhotoVerified,
			AttendanceRecordID: sub.ID,
		}
		if _, err := s.adapter.UpsertDailyEntry(ctx, entry); err != nil {
			return sub, false, fmt.Errorf("ledger sync for submission %s: %w", id, err)
		}
		ledgerUpsertsTotal.WithLabelValues(TypePhotoVerified).Inc()
		synced = true
	}

	s.publish(ctx, "verification", sub.ID, sub.Student.Email, status)
	return sub, synced, nil
}

// QuickMarkInput is a direct admin ledger write bypassing submissions.
type QuickMarkInput struct {
	Date        string
	StudentID   string
	StudentName string
	Status      string
	MarkedBy    string
}

// QuickMark upserts a daily ledger entry with origin "manual". It
// converges on the same (date, studentId) uniqueness invariant as the
// verification path.
func (s *Service) QuickMark(ctx context.Context, in QuickMarkInput) (DailyEntry, error) {
	if in.Date == "" || in.StudentID == "" || in.Status == "" {
		return DailyEntry{}, fmt.Errorf("%w: date, student ID, and status are required", ErrValidation)
	}
	if !ValidDailyStatus(in.Status) {
		return DailyEntry{}, fmt.Errorf("%w: status must be %q or %q", ErrValidation, StatusPresent, StatusAbsent)
	}
	if in.MarkedBy == "" {
		in.MarkedBy = "Admin"
	}
	if in.StudentName == "" {
		in.StudentName = "Unknown Student"
	}
	date := strings.SplitN(in.Date, "T", 2)[0]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return DailyEntry{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	entry := DailyEntry{
		Date:        date,
		StudentID:   in.StudentID,
		StudentName: in.StudentName,
		Status:      in.Status,
		MarkedBy:    in.MarkedBy,
		MarkedAt:    time.Now().UTC(),
		Type:        TypeManual,
	}
	saved, err := s.adapter.UpsertDailyEntry(ctx, entry)
	if err != nil {
		return DailyEntry{}, err
	}
	ledgerUpsertsTotal.WithLabelValues(TypeManual).Inc()
	return saved, nil
}

// publish emits an attendance event to the audit queue, best effort.
func (s *Service) publish(ctx context.Context, kind, id, student, status string) {
	if s.events == nil {
		return
	}
	body, _ := json.Marshal(queue.AttendanceEvent{
		ID:      id,
		Student: student,
		Status:  status,
		At:      time.Now().UTC(),
	})
	if err := s.events.Publish(ctx, queue.Message{Type: kind, Body: body}); err != nil {
		log.Printf("event publish failed: %v", err)
	}
}
