package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"paceclass/backend/config"
	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 测试辅助 ──

type statsMocks struct {
	users   *mockUserRepo
	classes *mockClassRepo
	terms   *mockTermRepo
	records *mockProgressRecordRepo
}

func setupTestStatisticsService() (StatisticsService, *statsMocks) {
	m := &statsMocks{
		users:   newMockUserRepo(),
		classes: newMockClassRepo(),
		terms:   newMockTermRepo(),
		records: newMockProgressRecordRepo(),
	}
	repo := &repository.Repository{
		User:             m.users,
		Class:            m.classes,
		Subject:          newMockSubjectRepo(),
		Topic:            newMockTopicRepo(),
		Term:             m.terms,
		TimetableEntry:   newMockTimetableEntryRepo(),
		ScheduleSlot:     newMockScheduleSlotRepo(),
		ProgressRecord:   m.records,
		CustomAssessment: newMockCustomAssessmentRepo(),
		Submission:       newMockSubmissionRepo(),
	}
	cfg := &config.ScheduleConfig{StatsCacheTTL: 3 * time.Minute}
	// 缓存传 nil：统计直查不缓存
	svc := NewStatisticsService(cfg, repo, nil, zap.NewNop())
	return svc, m
}

// seedStatRecord state 取 completed | missed | pending
func seedStatRecord(m *statsMocks, studentID, subjectID, state string, day int) {
	loc := institutionLocation()
	date := time.Date(2026, 3, day, 0, 0, 0, 0, loc)
	rec := &model.ProgressRecord{
		RecordID:     fmt.Sprintf("rec-%s-%s-%d", studentID, subjectID, day),
		StudentID:    studentID,
		LessonDate:   date,
		PeriodNumber: 1,
		SlotID:       fmt.Sprintf("slot-%s-%d", studentID, day),
		TermID:       "term-001",
		SubjectID:    subjectID,
		WindowStart:  date.Add(10 * time.Hour),
		WindowEnd:    date.Add(11 * time.Hour),
	}
	switch state {
	case "completed":
		now := date.Add(10*time.Hour + 30*time.Minute)
		rec.Completed = true
		rec.CompletedAt = &now
	case "missed":
		reason := model.IncompleteReasonMissedGrace
		rec.IncompleteReason = &reason
	}
	m.records.records[rec.RecordID] = rec
}

// ── computeStudentStats 测试 ──

func TestComputeStudentStats_Empty(t *testing.T) {
	stat := computeStudentStats("stu-001", "term-001", nil)
	if stat.TotalRecords != 0 || stat.CompletionRate != 0 {
		t.Errorf("空台账统计应全零: %+v", stat)
	}
	if stat.OnTrack {
		t.Error("无记录不应判达标")
	}
	if stat.AtRisk {
		t.Error("无记录不应判风险")
	}
}

func TestComputeStudentStats_Rates(t *testing.T) {
	records := []model.ProgressRecord{}
	// 3 完成 / 1 缺课 / 2 待完成，共 6 条
	reason := model.IncompleteReasonMissedGrace
	for i := 0; i < 3; i++ {
		records = append(records, model.ProgressRecord{SubjectID: "subj-math", Completed: true})
	}
	records = append(records, model.ProgressRecord{SubjectID: "subj-math", IncompleteReason: &reason})
	records = append(records, model.ProgressRecord{SubjectID: "subj-chinese"})
	records = append(records, model.ProgressRecord{SubjectID: "subj-chinese"})

	stat := computeStudentStats("stu-001", "term-001", records)
	if stat.CompletedCount != 3 || stat.MissedCount != 1 || stat.PendingCount != 2 {
		t.Errorf("期望 3/1/2，实际 %d/%d/%d", stat.CompletedCount, stat.MissedCount, stat.PendingCount)
	}
	if stat.CompletionRate != 0.5 {
		t.Errorf("期望完成率 0.5，实际 %v", stat.CompletionRate)
	}
	if stat.MissRate != 0.17 {
		t.Errorf("期望缺课率四舍五入为 0.17，实际 %v", stat.MissRate)
	}
	if stat.OnTrack {
		t.Error("完成率 0.5 不应判达标")
	}
	if stat.AtRisk {
		t.Error("缺课率 0.17 不应判风险")
	}
}

// 达标线：完成率恰好 0.75 判达标
func TestComputeStudentStats_OnTrackBoundary(t *testing.T) {
	records := []model.ProgressRecord{}
	for i := 0; i < 3; i++ {
		records = append(records, model.ProgressRecord{SubjectID: "subj-math", Completed: true})
	}
	records = append(records, model.ProgressRecord{SubjectID: "subj-math"})

	stat := computeStudentStats("stu-001", "term-001", records)
	if stat.CompletionRate != 0.75 {
		t.Fatalf("期望完成率 0.75，实际 %v", stat.CompletionRate)
	}
	if !stat.OnTrack {
		t.Error("完成率 0.75 应判达标")
	}
}

// 风险线：缺课率恰好 0.20 不判风险，须严格大于
func TestComputeStudentStats_AtRiskBoundary(t *testing.T) {
	reason := model.IncompleteReasonStudentMarked
	records := []model.ProgressRecord{
		{SubjectID: "subj-math", IncompleteReason: &reason},
		{SubjectID: "subj-math", Completed: true},
		{SubjectID: "subj-math", Completed: true},
		{SubjectID: "subj-math", Completed: true},
		{SubjectID: "subj-math"},
	}

	stat := computeStudentStats("stu-001", "term-001", records)
	if stat.MissRate != 0.2 {
		t.Fatalf("期望缺课率 0.2，实际 %v", stat.MissRate)
	}
	if stat.AtRisk {
		t.Error("缺课率恰好 0.2 不应判风险")
	}

	// 再加一条缺课越线
	records = append(records, model.ProgressRecord{SubjectID: "subj-math", IncompleteReason: &reason})
	stat = computeStudentStats("stu-001", "term-001", records)
	if !stat.AtRisk {
		t.Errorf("缺课率 %v 应判风险", stat.MissRate)
	}
}

// 未盖章的过期记录计入 pending 而非 missed
func TestComputeStudentStats_UnstampedNotMissed(t *testing.T) {
	records := []model.ProgressRecord{
		{SubjectID: "subj-math"}, // 窗口状态与统计无关，按盖章判定
	}

	stat := computeStudentStats("stu-001", "term-001", records)
	if stat.MissedCount != 0 || stat.PendingCount != 1 {
		t.Errorf("未盖章记录应计入 pending: %+v", stat)
	}
}

func TestComputeStudentStats_PerSubject(t *testing.T) {
	reason := model.IncompleteReasonMissedGrace
	records := []model.ProgressRecord{
		{SubjectID: "subj-math", Completed: true},
		{SubjectID: "subj-math", Completed: true},
		{SubjectID: "subj-chinese", IncompleteReason: &reason},
		{SubjectID: "subj-chinese", Completed: true},
	}

	stat := computeStudentStats("stu-001", "term-001", records)
	if len(stat.Subjects) != 2 {
		t.Fatalf("期望 2 个科目分组，实际 %d", len(stat.Subjects))
	}
	math := stat.Subjects[0]
	if math.Subject.ID != "subj-math" || math.CompletedCount != 2 || math.CompletionRate != 1.0 {
		t.Errorf("数学分组不正确: %+v", math)
	}
	chinese := stat.Subjects[1]
	if chinese.MissedCount != 1 || chinese.CompletionRate != 0.5 {
		t.Errorf("语文分组不正确: %+v", chinese)
	}
}

// ── StudentStats 测试 ──

func TestStatisticsService_StudentStats_Success(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)
	seedStatRecord(m, "stu-001", "subj-math", "completed", 2)
	seedStatRecord(m, "stu-001", "subj-math", "missed", 3)

	stat, err := svc.StudentStats(context.Background(), "stu-001", &dto.StatisticsRequest{TermID: "term-001"})
	if err != nil {
		t.Fatalf("StudentStats 应成功: %v", err)
	}
	if stat.TotalRecords != 2 || stat.CompletedCount != 1 || stat.MissedCount != 1 {
		t.Errorf("统计不正确: %+v", stat)
	}
	if stat.CompletionRate != 0.5 {
		t.Errorf("期望完成率 0.5，实际 %v", stat.CompletionRate)
	}
}

func TestStatisticsService_StudentStats_TermNotFound(t *testing.T) {
	svc, _ := setupTestStatisticsService()

	_, err := svc.StudentStats(context.Background(), "stu-001", &dto.StatisticsRequest{TermID: "nonexistent"})
	if !errors.Is(err, ErrStatsTermNotFound) {
		t.Errorf("期望 ErrStatsTermNotFound，实际: %v", err)
	}
}

// ── ClassStats 测试 ──

func TestStatisticsService_ClassStats_Success(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)
	m.classes.classes["class-001"] = &model.Class{ClassID: "class-001", Name: "初二(3)班"}
	classID := "class-001"
	m.users.users["stu-001"] = &model.User{UserID: "stu-001", Name: "张三", Role: model.RoleStudent, ClassID: &classID}
	m.users.users["stu-002"] = &model.User{UserID: "stu-002", Name: "李四", Role: model.RoleStudent, ClassID: &classID}

	// stu-001 全完成，stu-002 全缺课
	seedStatRecord(m, "stu-001", "subj-math", "completed", 2)
	seedStatRecord(m, "stu-001", "subj-math", "completed", 3)
	seedStatRecord(m, "stu-002", "subj-math", "missed", 2)
	seedStatRecord(m, "stu-002", "subj-math", "missed", 3)

	stat, err := svc.ClassStats(context.Background(), "class-001", &dto.StatisticsRequest{TermID: "term-001"})
	if err != nil {
		t.Fatalf("ClassStats 应成功: %v", err)
	}
	if stat.StudentCount != 2 {
		t.Fatalf("期望 2 名学生，实际 %d", stat.StudentCount)
	}
	if stat.OnTrackCount != 1 {
		t.Errorf("期望达标 1 人，实际 %d", stat.OnTrackCount)
	}
	if stat.AtRiskCount != 1 {
		t.Errorf("期望风险 1 人，实际 %d", stat.AtRiskCount)
	}
	// 全班平均完成率 (1.0 + 0.0) / 2
	if stat.CompletionRate != 0.5 {
		t.Errorf("期望平均完成率 0.5，实际 %v", stat.CompletionRate)
	}
	if len(stat.Students) != 2 {
		t.Errorf("期望 2 条学生明细，实际 %d", len(stat.Students))
	}
}

func TestStatisticsService_ClassStats_ClassNotFound(t *testing.T) {
	svc, _ := setupTestStatisticsService()

	_, err := svc.ClassStats(context.Background(), "nonexistent", &dto.StatisticsRequest{TermID: "term-001"})
	if !errors.Is(err, ErrStatsClassNotFound) {
		t.Errorf("期望 ErrStatsClassNotFound，实际: %v", err)
	}
}

func TestStatisticsService_ClassStats_EmptyClass(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.classes.classes["class-001"] = &model.Class{ClassID: "class-001", Name: "空班级"}

	stat, err := svc.ClassStats(context.Background(), "class-001", &dto.StatisticsRequest{TermID: "term-001"})
	if err != nil {
		t.Fatalf("ClassStats 应成功: %v", err)
	}
	if stat.StudentCount != 0 || stat.CompletionRate != 0 {
		t.Errorf("空班级统计应为零值: %+v", stat)
	}
}

// ── SystemStats 测试 ──

func TestStatisticsService_SystemStats_Success(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)

	// stu-001 全完成，stu-002 全缺课，stu-003 待完成
	seedStatRecord(m, "stu-001", "subj-math", "completed", 2)
	seedStatRecord(m, "stu-001", "subj-math", "completed", 3)
	seedStatRecord(m, "stu-002", "subj-math", "missed", 2)
	seedStatRecord(m, "stu-002", "subj-chinese", "missed", 3)
	seedStatRecord(m, "stu-003", "subj-chinese", "pending", 2)

	stat, err := svc.SystemStats(context.Background(), &dto.StatisticsRequest{TermID: "term-001"})
	if err != nil {
		t.Fatalf("SystemStats 应成功: %v", err)
	}
	if stat.StudentCount != 3 {
		t.Errorf("期望 3 名学生，实际 %d", stat.StudentCount)
	}
	if stat.TotalRecords != 5 || stat.CompletedCount != 2 || stat.MissedCount != 2 || stat.PendingCount != 1 {
		t.Errorf("全校计数不正确: %+v", stat)
	}
	if stat.CompletionRate != 0.4 {
		t.Errorf("期望完成率 0.4，实际 %v", stat.CompletionRate)
	}
	if stat.OnTrackCount != 1 {
		t.Errorf("期望达标 1 人，实际 %d", stat.OnTrackCount)
	}
	if stat.AtRiskCount != 1 {
		t.Errorf("期望风险 1 人，实际 %d", stat.AtRiskCount)
	}
	if len(stat.Subjects) != 2 {
		t.Errorf("期望 2 个科目分组，实际 %d", len(stat.Subjects))
	}
}

func TestStatisticsService_SystemStats_TermNotFound(t *testing.T) {
	svc, _ := setupTestStatisticsService()

	_, err := svc.SystemStats(context.Background(), &dto.StatisticsRequest{TermID: "nonexistent"})
	if !errors.Is(err, ErrStatsTermNotFound) {
		t.Errorf("期望 ErrStatsTermNotFound，实际: %v", err)
	}
}

func TestStatisticsService_SystemStats_Empty(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)

	stat, err := svc.SystemStats(context.Background(), &dto.StatisticsRequest{TermID: "term-001"})
	if err != nil {
		t.Fatalf("SystemStats 应成功: %v", err)
	}
	if stat.StudentCount != 0 || stat.TotalRecords != 0 || stat.CompletionRate != 0 {
		t.Errorf("空学期统计应为零值: %+v", stat)
	}
}

// ── 日期范围过滤测试 ──

func TestStatisticsService_StudentStats_DateRange(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)
	seedStatRecord(m, "stu-001", "subj-math", "completed", 2)
	seedStatRecord(m, "stu-001", "subj-math", "missed", 3)
	seedStatRecord(m, "stu-001", "subj-math", "completed", 4)

	// 闭区间 03-03..03-04，排除 03-02
	stat, err := svc.StudentStats(context.Background(), "stu-001", &dto.StatisticsRequest{
		TermID:   "term-001",
		DateFrom: "2026-03-03",
		DateTo:   "2026-03-04",
	})
	if err != nil {
		t.Fatalf("StudentStats 应成功: %v", err)
	}
	if stat.TotalRecords != 2 {
		t.Fatalf("期望范围内 2 条，实际 %d", stat.TotalRecords)
	}
	if stat.CompletedCount != 1 || stat.MissedCount != 1 {
		t.Errorf("范围统计不正确: %+v", stat)
	}
}

func TestStatisticsService_SystemStats_DateRange(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)
	seedStatRecord(m, "stu-001", "subj-math", "completed", 2)
	seedStatRecord(m, "stu-002", "subj-math", "missed", 5)

	stat, err := svc.SystemStats(context.Background(), &dto.StatisticsRequest{
		TermID: "term-001",
		DateTo: "2026-03-03",
	})
	if err != nil {
		t.Fatalf("SystemStats 应成功: %v", err)
	}
	if stat.StudentCount != 1 || stat.TotalRecords != 1 {
		t.Errorf("范围外学生不应计入: %+v", stat)
	}
}

func TestStatisticsService_InvalidDateRange(t *testing.T) {
	svc, m := setupTestStatisticsService()
	m.terms.terms["term-001"] = testTerm(t)

	// 起止倒置
	_, err := svc.StudentStats(context.Background(), "stu-001", &dto.StatisticsRequest{
		TermID:   "term-001",
		DateFrom: "2026-03-10",
		DateTo:   "2026-03-02",
	})
	if !errors.Is(err, ErrStatsInvalidDateRange) {
		t.Errorf("期望 ErrStatsInvalidDateRange，实际: %v", err)
	}

	_, err = svc.SystemStats(context.Background(), &dto.StatisticsRequest{
		TermID:   "term-001",
		DateFrom: "不是日期",
	})
	if !errors.Is(err, ErrStatsInvalidDateRange) {
		t.Errorf("期望 ErrStatsInvalidDateRange，实际: %v", err)
	}
}
