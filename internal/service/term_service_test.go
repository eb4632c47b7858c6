package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestTermService() (TermService, *mockTermRepo) {
	termRepo := newMockTermRepo()
	repo := &repository.Repository{
		User:             newMockUserRepo(),
		Class:            newMockClassRepo(),
		Subject:          newMockSubjectRepo(),
		Topic:            newMockTopicRepo(),
		Term:             termRepo,
		TimetableEntry:   newMockTimetableEntryRepo(),
		ScheduleSlot:     newMockScheduleSlotRepo(),
		ProgressRecord:   newMockProgressRecordRepo(),
		CustomAssessment: newMockCustomAssessmentRepo(),
		Submission:       newMockSubmissionRepo(),
	}
	svc := NewTermService(repo, zap.NewNop())
	return svc, termRepo
}

// ── Create 测试 ──

func TestTermService_Create_Success(t *testing.T) {
	svc, _ := setupTestTermService()

	req := &dto.CreateTermRequest{
		Name:      "2025-2026学年第二学期",
		StartDate: "2026-03-02",
		EndDate:   "2026-07-05",
		WeekCount: 18,
	}

	result, err := svc.Create(context.Background(), req, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "2025-2026学年第二学期" {
		t.Errorf("期望Name=2025-2026学年第二学期，实际=%s", result.Name)
	}
	if result.IsActive {
		t.Error("新创建学期不应默认激活")
	}
	if result.WeekCount != 18 {
		t.Errorf("期望WeekCount=18，实际=%d", result.WeekCount)
	}
}

func TestTermService_Create_InvalidDate(t *testing.T) {
	svc, _ := setupTestTermService()

	// 结束日期早于开始日期
	req := &dto.CreateTermRequest{
		Name:      "测试学期",
		StartDate: "2026-07-05",
		EndDate:   "2026-03-02",
		WeekCount: 18,
	}

	_, err := svc.Create(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrTermDateInvalid) {
		t.Errorf("期望 ErrTermDateInvalid，实际: %v", err)
	}
}

func TestTermService_Create_BadDateFormat(t *testing.T) {
	svc, _ := setupTestTermService()

	req := &dto.CreateTermRequest{
		Name:      "测试学期",
		StartDate: "invalid-date",
		EndDate:   "2026-07-05",
		WeekCount: 18,
	}

	_, err := svc.Create(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrTermDateInvalid) {
		t.Errorf("期望 ErrTermDateInvalid，实际: %v", err)
	}
}

func TestTermService_Create_WeekCountMismatch(t *testing.T) {
	svc, _ := setupTestTermService()

	// 日期范围仅容纳 18 周，却声明 30 周
	req := &dto.CreateTermRequest{
		Name:      "测试学期",
		StartDate: "2026-03-02",
		EndDate:   "2026-07-05",
		WeekCount: 30,
	}

	_, err := svc.Create(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrTermWeekCountMismatch) {
		t.Errorf("期望 ErrTermWeekCountMismatch，实际: %v", err)
	}
}

// ── GetByID / GetActive 测试 ──

func TestTermService_GetByID_Success(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termRepo.terms["term-001"] = testTerm(t)

	result, err := svc.GetByID(context.Background(), "term-001")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if result.ID != "term-001" {
		t.Errorf("期望ID=term-001，实际=%s", result.ID)
	}
}

func TestTermService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestTermService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrTermNotFound) {
		t.Errorf("期望 ErrTermNotFound，实际: %v", err)
	}
}

func TestTermService_GetActive_Success(t *testing.T) {
	svc, termRepo := setupTestTermService()
	term := testTerm(t)
	term.IsActive = true
	termRepo.terms[term.TermID] = term

	result, err := svc.GetActive(context.Background())
	if err != nil {
		t.Fatalf("GetActive 应成功: %v", err)
	}
	if !result.IsActive {
		t.Error("期望返回激活学期")
	}
}

func TestTermService_GetActive_NotFound(t *testing.T) {
	svc, _ := setupTestTermService()

	_, err := svc.GetActive(context.Background())
	if !errors.Is(err, ErrTermNotFound) {
		t.Errorf("期望 ErrTermNotFound，实际: %v", err)
	}
}

// ── Activate 测试 ──

func TestTermService_Activate_Success(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termA := testTerm(t)
	termA.IsActive = true
	termRepo.terms["term-001"] = termA
	termB := testTerm(t)
	termB.TermID = "term-002"
	termB.IsActive = false
	termRepo.terms["term-002"] = termB

	if err := svc.Activate(context.Background(), "term-002", "admin-001"); err != nil {
		t.Fatalf("Activate 应成功: %v", err)
	}
	if termRepo.terms["term-001"].IsActive {
		t.Error("term-001 应被取消激活")
	}
	if !termRepo.terms["term-002"].IsActive {
		t.Error("term-002 应被激活")
	}
}

func TestTermService_Activate_NotFound(t *testing.T) {
	svc, _ := setupTestTermService()

	err := svc.Activate(context.Background(), "nonexistent", "admin-001")
	if !errors.Is(err, ErrTermNotFound) {
		t.Errorf("期望 ErrTermNotFound，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestTermService_Update_Success(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termRepo.terms["term-001"] = testTerm(t)

	newName := "改名后的学期"
	req := &dto.UpdateTermRequest{Name: &newName}

	result, err := svc.Update(context.Background(), "term-001", req, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "改名后的学期" {
		t.Errorf("期望Name=改名后的学期，实际=%s", result.Name)
	}
}

func TestTermService_Update_InvalidDateOrder(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termRepo.terms["term-001"] = testTerm(t)

	// 把结束日期改到开始日期之前
	badEnd := "2026-01-01"
	req := &dto.UpdateTermRequest{EndDate: &badEnd}

	_, err := svc.Update(context.Background(), "term-001", req, "admin-001")
	if !errors.Is(err, ErrTermDateInvalid) {
		t.Errorf("期望 ErrTermDateInvalid，实际: %v", err)
	}
}

func TestTermService_Update_WeekCountMismatch(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termRepo.terms["term-001"] = testTerm(t)

	tooMany := 52
	req := &dto.UpdateTermRequest{WeekCount: &tooMany}

	_, err := svc.Update(context.Background(), "term-001", req, "admin-001")
	if !errors.Is(err, ErrTermWeekCountMismatch) {
		t.Errorf("期望 ErrTermWeekCountMismatch，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestTermService_Delete_Success(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termRepo.terms["term-001"] = testTerm(t)

	if err := svc.Delete(context.Background(), "term-001", "admin-001"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := termRepo.terms["term-001"]; ok {
		t.Error("学期应已删除")
	}
}

func TestTermService_Delete_NotFound(t *testing.T) {
	svc, _ := setupTestTermService()

	err := svc.Delete(context.Background(), "nonexistent", "admin-001")
	if !errors.Is(err, ErrTermNotFound) {
		t.Errorf("期望 ErrTermNotFound，实际: %v", err)
	}
}

// ── WeekRanges 测试 ──

func TestTermService_WeekRanges(t *testing.T) {
	svc, termRepo := setupTestTermService()
	termRepo.terms["term-001"] = testTerm(t)

	ranges, err := svc.WeekRanges(context.Background(), "term-001")
	if err != nil {
		t.Fatalf("WeekRanges 应成功: %v", err)
	}
	if len(ranges) != 18 {
		t.Fatalf("期望 18 周，实际 %d 周", len(ranges))
	}
	if ranges[0].StartDate != "2026-03-02" || ranges[0].EndDate != "2026-03-08" {
		t.Errorf("第 1 周范围不正确: %+v", ranges[0])
	}
	if ranges[17].WeekNumber != 18 {
		t.Errorf("期望末周周次=18，实际=%d", ranges[17].WeekNumber)
	}
	if ranges[17].StartDate != "2026-06-29" {
		t.Errorf("第 18 周起始不正确: %s", ranges[17].StartDate)
	}
}
