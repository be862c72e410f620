// Package leave holds student leave requests. They live in process memory
// only, as in the original system; the attendance store is not involved.
package leave

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request statuses.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// ErrNotFound is returned when a request id resolves to nothing.
var ErrNotFound = errors.New("leave request not found")

// Request is a student's leave application.
type Request struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Reason      string    `json:"reason"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
	ReviewedBy  string    `json:"reviewedBy,omitempty"`
	ReviewedAt  time.Time `json:"reviewedAt,omitempty"`
}

// Service is a mutex-guarded in-memory request list.
type Service struct {
	mu       sync.Mutex
	requests []Request
}

// NewService creates an empty service.
func NewService() *Service {
	return &Service{}
}

// Submit files a new Pending request.
func (s *Service) Submit(studentID, studentName, reason, startDate, endDate string) (Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || startDate == "" || endDate == "" {
		return Request{}, errors.New("reason, start date, and end date are required")
	}
	if studentName == "" {
		studentName = "Student User"
	}

	req := Request{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		StudentName: studentName,
		Reason:      reason,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return req, nil
}

// List returns requests, filtered to one student unless admin is true.
func (s *Service) List(studentID string, admin bool) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if admin || studentID == "" {
		out := make([]Request, len(s.requests))
		copy(out, s.requests)
		return out
	}
	var out []Request
	for _, r := range s.requests {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out
}

// Review resolves a request to Approved or Rejected.
func (s *Service) Review(id, status, reviewedBy string) (Request, error) {
	if status != StatusApproved && status != StatusRejected {
		return Request{}, errors.New("status must be Approved or Rejected")
	}
	if reviewedBy == "" {
		reviewedBy = "Admin User"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID != id {
			continue
		}
		s.requests[i].Status = status
		s.requests[i].ReviewedBy = reviewedBy
		s.requests[i].ReviewedAt = time.Now().UTC()
		return s.requests[i], nil
	}
	return Request{}, ErrNotFound
}

// PendingCount feeds the dashboard payload.
func (s *Service) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Status == StatusPending {
			n++
		}
	}
	return n
}
