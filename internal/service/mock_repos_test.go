package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"paceclass/backend/internal/model"
	pkgerrors "paceclass/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Name
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByClass(_ context.Context, classID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.ClassID != nil && *u.ClassID == classID {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes map[string]*model.Class
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.Class)}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		class.ClassID = "class-" + class.Name
	}
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		result = append(result, *c)
	}
	return result, nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
	seq      int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		m.seq++
		subject.SubjectID = fmt.Sprintf("subj-%d", m.seq)
	}
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) GetByName(_ context.Context, name string) (*model.Subject, error) {
	for _, s := range m.subjects {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		result = append(result, *s)
	}
	return result, nil
}

// ── Mock TopicRepository ──

// topics 用切片保持插入顺序，对应真实仓储的 created_at ASC 排序
type mockTopicRepo struct {
	topics []*model.Topic
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{}
}

func (m *mockTopicRepo) Create(_ context.Context, topic *model.Topic) error {
	if topic.TopicID == "" {
		topic.TopicID = fmt.Sprintf("topic-%d", len(m.topics)+1)
	}
	m.topics = append(m.topics, topic)
	return nil
}

func (m *mockTopicRepo) GetByID(_ context.Context, id string) (*model.Topic, error) {
	for _, t := range m.topics {
		if t.TopicID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTopicRepo) ListBySubjectAndWeek(_ context.Context, subjectID string, weekNumber int) ([]model.Topic, error) {
	var result []model.Topic
	for _, t := range m.topics {
		if t.SubjectID == subjectID && t.WeekNumber == weekNumber {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTopicRepo) ListBySubject(_ context.Context, subjectID string) ([]model.Topic, error) {
	var result []model.Topic
	for _, t := range m.topics {
		if t.SubjectID == subjectID {
			result = append(result, *t)
		}
	}
	return result, nil
}

// ── Mock TermRepository ──

type mockTermRepo struct {
	terms map[string]*model.Term
}

func newMockTermRepo() *mockTermRepo {
	return &mockTermRepo{terms: make(map[string]*model.Term)}
}

func (m *mockTermRepo) Create(_ context.Context, term *model.Term) error {
	if term.TermID == "" {
		term.TermID = "term-" + term.Name
	}
	m.terms[term.TermID] = term
	return nil
}

func (m *mockTermRepo) GetByID(_ context.Context, id string) (*model.Term, error) {
	if t, ok := m.terms[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) GetActive(_ context.Context) (*model.Term, error) {
	for _, t := range m.terms {
		if t.IsActive {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) List(_ context.Context) ([]model.Term, error) {
	var result []model.Term
	for _, t := range m.terms {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockTermRepo) Update(_ context.Context, term *model.Term) error {
	m.terms[term.TermID] = term
	return nil
}

func (m *mockTermRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.terms, id)
	return nil
}

func (m *mockTermRepo) ClearActive(_ context.Context) error {
	for _, t := range m.terms {
		t.IsActive = false
	}
	return nil
}

func (m *mockTermRepo) SetActive(_ context.Context, id string) error {
	t, ok := m.terms[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.IsActive = true
	return nil
}

// ── Mock TimetableEntryRepository ──

type mockTimetableEntryRepo struct {
	entries map[string]*model.TimetableEntry
	seq     int
}

func newMockTimetableEntryRepo() *mockTimetableEntryRepo {
	return &mockTimetableEntryRepo{entries: make(map[string]*model.TimetableEntry)}
}

func (m *mockTimetableEntryRepo) Create(_ context.Context, entry *model.TimetableEntry) error {
	if entry.EntryID == "" {
		m.seq++
		entry.EntryID = fmt.Sprintf("gen-entry-%d", m.seq)
	}
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockTimetableEntryRepo) BatchCreate(ctx context.Context, entries []model.TimetableEntry) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockTimetableEntryRepo) GetByID(_ context.Context, id string) (*model.TimetableEntry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableEntryRepo) ListByStudent(_ context.Context, studentID string) ([]model.TimetableEntry, error) {
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.StudentID == studentID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryID < result[j].EntryID })
	return result, nil
}

func (m *mockTimetableEntryRepo) Update(_ context.Context, entry *model.TimetableEntry) error {
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockTimetableEntryRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockTimetableEntryRepo) DeleteByStudent(_ context.Context, studentID string, _ string) error {
	for id, e := range m.entries {
		if e.StudentID == studentID {
			delete(m.entries, id)
		}
	}
	return nil
}

// ── Mock ScheduleSlotRepository ──

type mockScheduleSlotRepo struct {
	slots map[string]*model.ScheduleSlot
	// 非空时校验 progress_records.slot_id 外键：仍被引用的时段拒绝删除
	records  *mockProgressRecordRepo
	archived int
	seq      int
}

func newMockScheduleSlotRepo() *mockScheduleSlotRepo {
	return &mockScheduleSlotRepo{slots: make(map[string]*model.ScheduleSlot)}
}

func (m *mockScheduleSlotRepo) Create(_ context.Context, slot *model.ScheduleSlot) error {
	if slot.SlotID == "" {
		m.seq++
		slot.SlotID = fmt.Sprintf("slot-%d", m.seq)
	}
	m.slots[slot.SlotID] = slot
	return nil
}

func (m *mockScheduleSlotRepo) BatchCreate(ctx context.Context, slots []model.ScheduleSlot) error {
	for i := range slots {
		if err := m.Create(ctx, &slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockScheduleSlotRepo) GetByID(_ context.Context, id string) (*model.ScheduleSlot, error) {
	if s, ok := m.slots[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func sortSlots(slots []model.ScheduleSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].LessonDate.Equal(slots[j].LessonDate) {
			return slots[i].LessonDate.Before(slots[j].LessonDate)
		}
		return slots[i].PeriodNumber < slots[j].PeriodNumber
	})
}

func (m *mockScheduleSlotRepo) ListByStudentWeek(_ context.Context, studentID, termID string, weekNumber int) ([]model.ScheduleSlot, error) {
	var result []model.ScheduleSlot
	for _, s := range m.slots {
		if s.StudentID == studentID && s.TermID == termID && s.WeekNumber == weekNumber {
			result = append(result, *s)
		}
	}
	sortSlots(result)
	return result, nil
}

func (m *mockScheduleSlotRepo) ListByStudentDateRange(_ context.Context, studentID string, from, to time.Time) ([]model.ScheduleSlot, error) {
	var result []model.ScheduleSlot
	for _, s := range m.slots {
		if s.StudentID == studentID && !s.LessonDate.Before(from) && !s.LessonDate.After(to) {
			result = append(result, *s)
		}
	}
	sortSlots(result)
	return result, nil
}

func (m *mockScheduleSlotRepo) Update(_ context.Context, slot *model.ScheduleSlot) error {
	m.slots[slot.SlotID] = slot
	return nil
}

func (m *mockScheduleSlotRepo) MarkCompleted(_ context.Context, id string, completedAt time.Time) error {
	s, ok := m.slots[id]
	if !ok || s.Completed || s.MarkedIncompleteReason != nil {
		return pkgerrors.ErrStaleState
	}
	s.Completed = true
	s.CompletedAt = &completedAt
	s.Status = model.SlotStatusCompleted
	return nil
}

func (m *mockScheduleSlotRepo) MarkIncomplete(_ context.Context, id string, reason string) error {
	s, ok := m.slots[id]
	if !ok || s.Completed || s.MarkedIncompleteReason != nil {
		return pkgerrors.ErrStaleState
	}
	s.MarkedIncompleteReason = &reason
	return nil
}

func (m *mockScheduleSlotRepo) ClearIncomplete(_ context.Context, id string, _ string) error {
	s, ok := m.slots[id]
	if !ok || s.MarkedIncompleteReason == nil {
		return pkgerrors.ErrStaleState
	}
	s.MarkedIncompleteReason = nil
	return nil
}

func (m *mockScheduleSlotRepo) AttachTopic(_ context.Context, id string, topicID string, _ string) error {
	s, ok := m.slots[id]
	if !ok || !s.MissingTopic {
		return pkgerrors.ErrStaleState
	}
	s.TopicID = &topicID
	s.MissingTopic = false
	s.Status = model.SlotStatusReady
	s.LessonAssignmentMethod = model.AssignmentMethodAuto
	return nil
}

func (m *mockScheduleSlotRepo) SetCustomAssessmentReady(_ context.Context, id string, assessmentID string) error {
	s, ok := m.slots[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.CustomAssessmentReady = true
	s.AssessmentID = &assessmentID
	return nil
}

func (m *mockScheduleSlotRepo) ArchiveAndDeleteByStudentWeek(_ context.Context, studentID, termID string, weekNumber int) (int, error) {
	count := 0
	for id, s := range m.slots {
		if s.StudentID == studentID && s.TermID == termID && s.WeekNumber == weekNumber {
			if m.records != nil {
				for _, r := range m.records.records {
					if r.SlotID == id {
						return 0, fmt.Errorf("违反外键约束: progress_records.slot_id 仍引用 %s", id)
					}
				}
			}
			delete(m.slots, id)
			count++
		}
	}
	m.archived += count
	return count, nil
}

// ── Mock ProgressRecordRepository ──

type mockProgressRecordRepo struct {
	records  map[string]*model.ProgressRecord
	archived int
	seq      int
}

func newMockProgressRecordRepo() *mockProgressRecordRepo {
	return &mockProgressRecordRepo{records: make(map[string]*model.ProgressRecord)}
}

func (m *mockProgressRecordRepo) Create(_ context.Context, record *model.ProgressRecord) error {
	if record.RecordID == "" {
		m.seq++
		record.RecordID = fmt.Sprintf("rec-%d", m.seq)
	}
	m.records[record.RecordID] = record
	return nil
}

func (m *mockProgressRecordRepo) BatchCreate(ctx context.Context, records []model.ProgressRecord) error {
	for i := range records {
		if err := m.Create(ctx, &records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockProgressRecordRepo) GetByID(_ context.Context, id string) (*model.ProgressRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRecordRepo) GetBySlot(_ context.Context, slotID string) (*model.ProgressRecord, error) {
	for _, r := range m.records {
		if r.SlotID == slotID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func sortRecords(records []model.ProgressRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].LessonDate.Equal(records[j].LessonDate) {
			return records[i].LessonDate.Before(records[j].LessonDate)
		}
		return records[i].PeriodNumber < records[j].PeriodNumber
	})
}

func (m *mockProgressRecordRepo) ListByStudentDateRange(_ context.Context, studentID string, from, to time.Time) ([]model.ProgressRecord, error) {
	var result []model.ProgressRecord
	for _, r := range m.records {
		if r.StudentID == studentID && !r.LessonDate.Before(from) && !r.LessonDate.After(to) {
			result = append(result, *r)
		}
	}
	sortRecords(result)
	return result, nil
}

func (m *mockProgressRecordRepo) ListByStudentTerm(_ context.Context, studentID, termID string) ([]model.ProgressRecord, error) {
	var result []model.ProgressRecord
	for _, r := range m.records {
		if r.StudentID == studentID && r.TermID == termID {
			result = append(result, *r)
		}
	}
	sortRecords(result)
	return result, nil
}

func (m *mockProgressRecordRepo) ListByTerm(_ context.Context, termID string) ([]model.ProgressRecord, error) {
	var result []model.ProgressRecord
	for _, r := range m.records {
		if r.TermID == termID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StudentID != result[j].StudentID {
			return result[i].StudentID < result[j].StudentID
		}
		if !result[i].LessonDate.Equal(result[j].LessonDate) {
			return result[i].LessonDate.Before(result[j].LessonDate)
		}
		return result[i].PeriodNumber < result[j].PeriodNumber
	})
	return result, nil
}

func (m *mockProgressRecordRepo) ListExpiredUnmarked(_ context.Context, now time.Time, limit int) ([]model.ProgressRecord, error) {
	var result []model.ProgressRecord
	for _, r := range m.records {
		if r.Completed || r.IncompleteReason != nil {
			continue
		}
		if r.WindowDeadline().Before(now) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WindowEnd.Before(result[j].WindowEnd) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockProgressRecordRepo) MarkCompleted(_ context.Context, id string, completedAt time.Time) error {
	r, ok := m.records[id]
	if !ok || r.Completed || r.IncompleteReason != nil {
		return pkgerrors.ErrStaleState
	}
	r.Completed = true
	r.CompletedAt = &completedAt
	return nil
}

func (m *mockProgressRecordRepo) MarkIncomplete(_ context.Context, id string, reason string, markedAt time.Time) error {
	r, ok := m.records[id]
	if !ok || r.Completed || r.IncompleteReason != nil {
		return pkgerrors.ErrStaleState
	}
	r.IncompleteReason = &reason
	if reason == model.IncompleteReasonMissedGrace {
		r.AutoMarkedIncompleteAt = &markedAt
	}
	return nil
}

func (m *mockProgressRecordRepo) ClearIncomplete(_ context.Context, id string, _ string) error {
	r, ok := m.records[id]
	if !ok || r.IncompleteReason == nil {
		return pkgerrors.ErrStaleState
	}
	r.IncompleteReason = nil
	r.AutoMarkedIncompleteAt = nil
	return nil
}

func (m *mockProgressRecordRepo) AttachTopic(_ context.Context, id string, topicID string, _ string) error {
	r, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.TopicID = &topicID
	return nil
}

func (m *mockProgressRecordRepo) SetCustomAssessmentReady(_ context.Context, id string, assessmentID string) error {
	r, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.CustomAssessmentReady = true
	r.AssessmentID = &assessmentID
	return nil
}

func (m *mockProgressRecordRepo) ArchiveAndDeleteByStudentWeek(_ context.Context, studentID, termID string, from, to time.Time) (int, error) {
	count := 0
	for id, r := range m.records {
		if r.StudentID == studentID && r.TermID == termID &&
			!r.LessonDate.Before(from) && !r.LessonDate.After(to) {
			delete(m.records, id)
			count++
		}
	}
	m.archived += count
	return count, nil
}

// ── Mock CustomAssessmentRepository ──

type mockCustomAssessmentRepo struct {
	assessments map[string]*model.CustomAssessment
	seq         int
}

func newMockCustomAssessmentRepo() *mockCustomAssessmentRepo {
	return &mockCustomAssessmentRepo{assessments: make(map[string]*model.CustomAssessment)}
}

func (m *mockCustomAssessmentRepo) Create(_ context.Context, assessment *model.CustomAssessment) error {
	if assessment.AssessmentID == "" {
		m.seq++
		assessment.AssessmentID = fmt.Sprintf("assess-%d", m.seq)
	}
	m.assessments[assessment.AssessmentID] = assessment
	return nil
}

func (m *mockCustomAssessmentRepo) GetByID(_ context.Context, id string) (*model.CustomAssessment, error) {
	if a, ok := m.assessments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomAssessmentRepo) GetByRecord(_ context.Context, recordID string) (*model.CustomAssessment, error) {
	for _, a := range m.assessments {
		if a.RecordID == recordID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomAssessmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.CustomAssessment, error) {
	var result []model.CustomAssessment
	for _, a := range m.assessments {
		if a.StudentID == studentID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssessmentID < result[j].AssessmentID })
	return result, nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	submissions []*model.AssessmentSubmission
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{}
}

func (m *mockSubmissionRepo) Create(_ context.Context, submission *model.AssessmentSubmission) error {
	if submission.SubmissionID == "" {
		submission.SubmissionID = fmt.Sprintf("sub-%d", len(m.submissions)+1)
	}
	m.submissions = append(m.submissions, submission)
	return nil
}

func (m *mockSubmissionRepo) HasQualifying(_ context.Context, studentID, assessmentID string) (bool, error) {
	for _, s := range m.submissions {
		if s.StudentID == studentID && s.AssessmentID == assessmentID && s.Qualifying {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) ListByStudent(_ context.Context, studentID string) ([]model.AssessmentSubmission, error) {
	var result []model.AssessmentSubmission
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			result = append(result, *s)
		}
	}
	return result, nil
}
