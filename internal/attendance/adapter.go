package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"attendance/internal/store"
)

// ErrNotFound is returned when an id resolves to no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write would violate a uniqueness
// constraint the adapter enforces.
var ErrDuplicate = errors.New("already exists")

// ErrValidation marks rejected input. Handlers map it to a 400 with the
// full message; anything else from the storage layer surfaces generically.
var ErrValidation = errors.New("invalid request")

// Adapter is the single read/write path to the three collections. The
// storage mode is injected at construction and every operation branches on
// it internally; callers never see which backend served them.
type Adapter struct {
	mode store.Mode

	// document mode
	students    *mongo.Collection
	submissions *mongo.Collection
	daily       *mongo.Collection

	// file mode
	fsStudents    *store.FileCollection
	fsSubmissions *store.FileCollection
	fsDaily       *store.FileCollection

	mongo *store.Mongo
}

// NewAdapter builds an adapter for the given mode. db may be nil in
// ModeFile; fs is always required so tests can force file mode.
func NewAdapter(mode store.Mode, m *store.Mongo, fs *store.FileStore) *Adapter {
	a := &Adapter{
		mode:          mode,
		mongo:         m,
		fsStudents:    fs.Collection("students"),
		fsSubmissions: fs.Collection("attendance"),
		fsDaily:       fs.Collection("daily-attendance"),
	}
	if m != nil {
		a.students = m.DB.Collection("students")
		a.submissions = m.DB.Collection("attendances")
		a.daily = m.DB.Collection("dailyattendances")
	}
	return a
}

// Mode reports the active storage mode.
func (a *Adapter) Mode() store.Mode { return a.mode }

// ListStudents returns every roster record.
func (a *Adapter) ListStudents(ctx context.Context) ([]Student, error) {
	if a.mode == store.ModeDocument {
		cur, err := a.students.Find(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
		var out []Student
		if err := cur.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
		return out, nil
	}

	a.fsStudents.Lock()
	defer a.fsStudents.Unlock()
	var out []Student
	a.fsStudents.Load(&out)
	return out, nil
}

// AddStudent validates and stores a new roster record. Email is
// case-normalized; email and student code uniqueness are checked here, at
// write time, because the file backend has no native unique index. When no
// student code is supplied a sequential STUnnn code is generated.
func (a *Adapter) AddStudent(ctx context.Context, s Student) (Student, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if s.Name == "" || s.Email == "" {
		return Student{}, fmt.Errorf("%w: name and email are required", ErrValidation)
	}

	existing, err := a.ListStudents(ctx)
	if err != nil {
		return Student{}, err
	}
	for _, e := range existing {
		if e.Email == s.Email {
			return Student{}, fmt.Errorf("student with email %s %w", s.Email, ErrDuplicate)
		}
		if s.StudentID != "" && e.StudentID == s.StudentID {
			return Student{}, fmt.Errorf("student code %s %w", s.StudentID, ErrDuplicate)
		}
	}

	if s.StudentID == "" {
		s.StudentID = nextStudentCode(existing)
	}
	if s.Department == "" {
		s.Department = "Not Specified"
	}
	if s.Year == "" {
		s.Year = "Not Specified"
	}
	if s.Status == "" {
		s.Status = "active"
	}
	s.CreatedAt = time.Now().UTC()

	if a.mode == store.ModeDocument {
		s.ID = primitive.NewObjectID().Hex()
		if _, err := a.students.InsertOne(ctx, s); err != nil {
			return Student{}, fmt.Errorf("add student: %w", err)
		}
		return s, nil
	}

	a.fsStudents.Lock()
	defer a.fsStudents.Unlock()
	var all []Student
	a.fsStudents.Load(&all)
	s.ID = strconv.Itoa(len(all) + 1)
	all = append(all, s)
	if err := a.fsStudents.Replace(all); err != nil {
		return Student{}, err
	}
	return s, nil
}

// nextStudentCode picks the lowest free sequential STUnnn code. Explicitly
// supplied codes can occupy slots at or past the roster count, so the
// candidate is checked against every existing code before it is handed out.
func nextStudentCode(existing []Student) string {
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.StudentID] = struct{}{}
	}
	for n := len(existing) + 1; ; n++ {
		code := fmt.Sprintf("STU%03d", n)
		if _, ok := taken[code]; !ok {
			return code
		}
	}
}

// ListSubmissions returns every check-in, newest event date first.
func (a *Adapter) ListSubmissions(ctx context.Context) ([]Submission, error) {
	if a.mode == store.ModeDocument {
		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
		cur, err := a.submissions.Find(ctx, bson.M{}, opts)
		if err != nil {
			return nil, fmt.Errorf("list submissions: %w", err)
		}
		var out []Submission
		if err := cur.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("list submissions: %w", err)
		}
		return out, nil
	}

	a.fsSubmissions.Lock()
	defer a.fsSubmissions.Unlock()
	var out []Submission
	a.fsSubmissions.Load(&out)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// AddSubmission stores a new check-in. Document mode assigns an ObjectID
// hex id; file mode assigns sequential string ids, monotonic only within
// an unbroken file history.
func (a *Adapter) AddSubmission(ctx context.Context, sub Submission) (Submission, error) {
	if a.mode == store.ModeDocument {
		sub.ID = primitive.NewObjectID().Hex()
		if _, err := a.submissions.InsertOne(ctx, sub); err != nil {
			return Submission{}, fmt.Errorf("add submission: %w", err)
		}
		return sub, nil
	}

	a.fsSubmissions.Lock()
	defer a.fsSubmissions.Unlock()
	var all []Submission
	a.fsSubmissions.Load(&all)
	sub.ID = strconv.Itoa(len(all) + 1)
	all = append(all, sub)
	if err := a.fsSubmissions.Replace(all); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// UpdateSubmissionStatus resolves a pending check-in. It returns the
// updated record, or ErrNotFound when the id matches nothing.
func (a *Adapter) UpdateSubmissionStatus(ctx context.Context, id, status, verifiedBy string) (Submission, error) {
	now := time.Now().UTC()

	if a.mode == store.ModeDocument {
		update := bson.M{"$set": bson.M{
			"status":     status,
			"verifiedBy": verifiedBy,
			"verifiedAt": now,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var out Submission
		err := a.submissions.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Submission{}, ErrNotFound
		}
		if err != nil {
			return Submission{}, fmt.Errorf("update submission %s: %w", id, err)
		}
		return out, nil
	}

	a.fsSubmissions.Lock()
	defer a.fsSubmissions.Unlock()
	var all []Submission
	a.fsSubmissions.Load(&all)
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Status = status
		all[i].VerifiedBy = verifiedBy
		all[i].VerifiedAt = &now
		if err := a.fsSubmissions.Replace(all); err != nil {
			return Submission{}, err
		}
		return all[i], nil
	}
	return Submission{}, ErrNotFound
}

// UpsertDailyEntry writes the canonical per-day attendance fact, keyed on
// (date, studentId). Document mode relies on an atomic
// find-and-modify-or-insert; file mode scans and merges in place. Both
// modes guarantee at most one entry per key.
func (a *Adapter) UpsertDailyEntry(ctx context.Context, entry DailyEntry) (DailyEntry, error) {
	if entry.MarkedAt.IsZero() {
		entry.MarkedAt = time.Now().UTC()
	}

	if a.mode == store.ModeDocument {
		filter := bson.M{"date": entry.Date, "studentId": entry.StudentID}
		set := bson.M{
			"date":        entry.Date,
			"studentId":   entry.StudentID,
			"studentName": entry.StudentName,
			"status":      entry.Status,
			"markedBy":    entry.MarkedBy,
			"markedAt":    entry.MarkedAt,
			"type":        entry.Type,
		}
		if entry.AttendanceRecordID != "" {
			set["attendanceRecordId"] = entry.AttendanceRecordID
		}
		update := bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID().Hex()},
		}
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
		var out DailyEntry
		if err := a.daily.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
			return DailyEntry{}, fmt.Errorf("upsert daily entry: %w", err)
		}
		return out, nil
	}

	a.fsDaily.Lock()
	defer a.fsDaily.Unlock()
	var all []DailyEntry
	a.fsDaily.Load(&all)
	idx := -1
	for i := range all {
		if all[i].Date == entry.Date && all[i].StudentID == entry.StudentID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		// Shallow merge over the existing record, keeping its id and any
		// back-reference the new entry does not carry.
		entry.ID = all[idx].ID
		if entry.AttendanceRecordID == "" {
			entry.AttendanceRecordID = all[idx].AttendanceRecordID
		}
		all[idx] = entry
	} else {
		entry.ID = strconv.Itoa(len(all) + 1)
		all = append(all, entry)
	}
	if err := a.fsDaily.Replace(all); err != nil {
		return DailyEntry{}, err
	}
	return entry, nil
}

// ListDaily returns ledger entries for an exact date key (YYYY-MM-DD).
func (a *Adapter) ListDaily(ctx context.Context, date string) ([]DailyEntry, error) {
	if a.mode == store.ModeDocument {
		cur, err := a.daily.Find(ctx, bson.M{"date": date})
		if err != nil {
			return nil, fmt.Errorf("list daily %s: %w", date, err)
		}
		var out []DailyEntry
		if err := cur.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("list daily %s: %w", date, err)
		}
		return out, nil
	}

	a.fsDaily.Lock()
	defer a.fsDaily.Unlock()
	var all []DailyEntry
	a.fsDaily.Load(&all)
	var out []DailyEntry
	for _, e := range all {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAllDaily returns the whole ledger, newest date first.
func (a *Adapter) ListAllDaily(ctx context.Context) ([]DailyEntry, error) {
	if a.mode == store.ModeDocument {
		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
		cur, err := a.daily.Find(ctx, bson.M{}, opts)
		if err != nil {
			return nil, fmt.Errorf("list daily: %w", err)
		}
		var out []DailyEntry
		if err := cur.All(ctx, &out); err != nil {
			return nil, fmt.Errorf("list daily: %w", err)
		}
		return out, nil
	}

	a.fsDaily.Lock()
	defer a.fsDaily.Unlock()
	var all []DailyEntry
	a.fsDaily.Load(&all)
	// Date keys are YYYY-MM-DD so lexical order is chronological.
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	return all, nil
}

// Health describes the storage layer state for the ops surface.
type Health struct {
	Mode   string `json:"mode"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthCheck reports the active mode. Document mode additionally pings
// the store; a failed ping is reported as degraded, never propagated.
func (a *Adapter) HealthCheck(ctx context.Context) Health {
	if a.mode == store.ModeDocument {
		if err := a.mongo.Ping(ctx); err != nil {
			return Health{Mode: a.mode.String(), Status: "degraded", Detail: err.Error()}
		}
		return Health{Mode: a.mode.String(), Status: "connected"}
	}
	return Health{Mode: a.mode.String(), Status: "file_storage", Detail: "using file-based storage"}
}
