package attendance

import "time"

// Submission verification statuses. Pending is the initial state; the
// remaining four are terminal. Only StatusApproved triggers a ledger sync.
const (
	StatusPending  = "Pending"
	StatusPresent  = "Present"
	StatusAbsent   = "Absent"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Daily ledger entry origins.
const (
	TypeManual        = "manual"
	TypePhotoVerified = "photo-verified"
)

// TypePhotoBased tags the only submission source currently supported.
const TypePhotoBased = "photo-based"

// Student is an identity record managed by admins. Email and StudentID are
// unique; uniqueness is enforced by the adapter at write time since the
// file backend has no native index.
type Student struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	StudentID  string    `json:"studentId" bson:"studentId"`
	Department string    `json:"department" bson:"department"`
	Year       string    `json:"year" bson:"year"`
	Phone      string    `json:"phone" bson:"phone"`
	Status     string    `json:"status" bson:"status"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// StudentRef is the value snapshot embedded in a submission. It is a copy,
// not a reference: submissions stay historically accurate even if the
// roster record changes later.
type StudentRef struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}

// Location is a geotag captured at check-in time, kept as the decimal
// strings the capture layer sends.
type Location struct {
	Lat  string `json:"lat" bson:"lat"`
	Long string `json:"long" bson:"long"`
}

// Submission is a single photographic check-in awaiting admin decision.
type Submission struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	Student     StudentRef `json:"studentId" bson:"studentId"`
	Photo       string     `json:"photo" bson:"photo"`
	Location    Location   `json:"location" bson:"location"`
	Address     string     `json:"address" bson:"address"`
	Date        time.Time  `json:"date" bson:"date"`
	Status      string     `json:"status" bson:"status"`
	SubmittedAt time.Time  `json:"submittedAt" bson:"submittedAt"`
	Type        string     `json:"type" bson:"type"`
	VerifiedBy  string     `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
}

// DailyEntry is the canonical per-day attendance fact used for reporting.
// At most one entry exists per (Date, StudentID) pair; every write is an
// upsert on that composite key.
type DailyEntry struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Date        string    `json:"date" bson:"date"`
	StudentID   string    `json:"studentId" bson:"studentId"`
	StudentName string    `json:"studentName" bson:"studentName"`
	Status      string    `json:"status" bson:"status"`
	MarkedBy    string    `json:"markedBy" bson:"markedBy"`
	MarkedAt    time.Time `json:"markedAt" bson:"markedAt"`
	Type        string    `json:"type" bson:"type"`
	// AttendanceRecordID back-references the submission that produced a
	// photo-verified entry.
	AttendanceRecordID string `json:"attendanceRecordId,omitempty" bson:"attendanceRecordId,omitempty"`
}

// ValidSubmissionStatus reports whether s is a recognized verification
// target for a submission.
func ValidSubmissionStatus(s string) bool {
	switch s {
	case StatusPending, StatusPresent, StatusAbsent, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ValidDailyStatus reports whether s is allowed in the daily ledger.
func ValidDailyStatus(s string) bool {
	return s == StatusPresent || s == StatusAbsent
}

// DateKey reduces a timestamp to the calendar-day key used by the ledger.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
