package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"paceclass/backend/config"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestReconciler(batchSize int) (*Reconciler, *scheduleMocks, *mockSubmissionRepo) {
	m := &scheduleMocks{
		users:    newMockUserRepo(),
		subjects: newMockSubjectRepo(),
		topics:   newMockTopicRepo(),
		terms:    newMockTermRepo(),
		entries:  newMockTimetableEntryRepo(),
		slots:    newMockScheduleSlotRepo(),
		records:  newMockProgressRecordRepo(),
	}
	submissions := newMockSubmissionRepo()
	repo := &repository.Repository{
		User:             m.users,
		Class:            newMockClassRepo(),
		Subject:          m.subjects,
		Topic:            m.topics,
		Term:             m.terms,
		TimetableEntry:   m.entries,
		ScheduleSlot:     m.slots,
		ProgressRecord:   m.records,
		CustomAssessment: newMockCustomAssessmentRepo(),
		Submission:       submissions,
	}
	cfg := &config.ScheduleConfig{
		GracePeriodMinutes: 30,
		ReconcileInterval:  5 * time.Millisecond,
		ReconcileBatchSize: batchSize,
	}
	r := NewReconciler(cfg, repo, zap.NewNop())
	// 固定在宽限期结束之后
	r.now = func() time.Time {
		return time.Date(2026, 3, 2, 12, 0, 0, 0, institutionLocation())
	}
	return r, m, submissions
}

// ── RunOnce 测试 ──

func TestReconciler_RunOnce_MarksExpired(t *testing.T) {
	r, m, _ := setupTestReconciler(500)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)

	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if result.Scanned != 1 || result.Marked != 1 {
		t.Fatalf("期望 scanned=1 marked=1，实际 %+v", result)
	}

	rec := m.records.records["rec-001"]
	if rec.IncompleteReason == nil || *rec.IncompleteReason != model.IncompleteReasonMissedGrace {
		t.Error("记录应盖 MISSED_GRACE_PERIOD 章")
	}
	if rec.AutoMarkedIncompleteAt == nil {
		t.Error("自动盖章应落 auto_marked_incomplete_at 时间戳")
	}
	slot := m.slots.slots["slot-001"]
	if slot.MarkedIncompleteReason == nil || *slot.MarkedIncompleteReason != model.IncompleteReasonMissedGrace {
		t.Error("时段应镜像盖章")
	}
}

// 有合格测评提交的记录补记完成，不盖章
func TestReconciler_RunOnce_QualifyingSubmissionCompletes(t *testing.T) {
	r, m, submissions := setupTestReconciler(500)
	rec := seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)
	assessID := "assess-001"
	rec.AssessmentID = &assessID
	submissions.Create(context.Background(), &model.AssessmentSubmission{
		StudentID: "stu-001", AssessmentID: "assess-001", Qualifying: true,
	})

	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if result.Completed != 1 || result.Marked != 0 {
		t.Fatalf("期望 completed=1 marked=0，实际 %+v", result)
	}
	if !m.records.records["rec-001"].Completed {
		t.Error("记录应补记完成")
	}
	if !m.slots.slots["slot-001"].Completed {
		t.Error("时段应同步完成")
	}
}

// 提交不合格照常盖章
func TestReconciler_RunOnce_NonQualifyingSubmissionMarks(t *testing.T) {
	r, m, submissions := setupTestReconciler(500)
	rec := seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)
	assessID := "assess-001"
	rec.AssessmentID = &assessID
	submissions.Create(context.Background(), &model.AssessmentSubmission{
		StudentID: "stu-001", AssessmentID: "assess-001", Qualifying: false,
	})

	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if result.Marked != 1 {
		t.Fatalf("期望 marked=1，实际 %+v", result)
	}
}

// 截止时间未到的记录不在扫描范围
func TestReconciler_RunOnce_SkipsUnexpired(t *testing.T) {
	r, m, _ := setupTestReconciler(500)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)
	// 宽限期内
	r.now = func() time.Time {
		return time.Date(2026, 3, 2, 11, 0, 0, 0, institutionLocation())
	}

	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if result.Scanned != 0 {
		t.Errorf("宽限期内不应扫描到记录，实际 scanned=%d", result.Scanned)
	}
	if m.records.records["rec-001"].IncompleteReason != nil {
		t.Error("宽限期内不应盖章")
	}
}

// 已完成与已盖章的记录不重复处理
func TestReconciler_RunOnce_Idempotent(t *testing.T) {
	r, m, _ := setupTestReconciler(500)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("首轮应成功: %v", err)
	}
	second, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("第二轮应成功: %v", err)
	}
	if second.Scanned != 0 {
		t.Errorf("第二轮不应扫描到记录，实际 scanned=%d", second.Scanned)
	}
}

// 单轮处理量受批次上限约束，剩余记录留给下一轮
func TestReconciler_RunOnce_BatchLimit(t *testing.T) {
	r, m, _ := setupTestReconciler(2)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)
	seedProgressPair(t, m, "rec-002", "slot-002", "stu-001", 2)
	seedProgressPair(t, m, "rec-003", "slot-003", "stu-001", 3)

	first, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if first.Scanned != 2 || first.Marked != 2 {
		t.Fatalf("期望单轮处理 2 条，实际 %+v", first)
	}

	second, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if second.Scanned != 1 {
		t.Errorf("剩余 1 条应在下一轮处理，实际 scanned=%d", second.Scanned)
	}
}

// 同一时刻至多一轮在跑：重叠调用直接让行
func TestReconciler_RunOnce_SingleFlight(t *testing.T) {
	r, m, _ := setupTestReconciler(500)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)

	r.running.Store(true)
	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("让行不应报错: %v", err)
	}
	if result.Scanned != 0 {
		t.Errorf("让行轮次不应处理记录，实际 %+v", result)
	}
	if m.records.records["rec-001"].IncompleteReason != nil {
		t.Error("让行轮次不应盖章")
	}
	r.running.Store(false)
}

// 学生抢先完成的记录按竞争跳过，不覆盖
func TestReconciler_RunOnce_SkipsRaceWinner(t *testing.T) {
	r, m, _ := setupTestReconciler(500)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)

	// 模拟扫描谓词与条件更新之间的竞争：时段侧已被学生完成
	now := time.Date(2026, 3, 2, 11, 20, 0, 0, institutionLocation())
	m.slots.slots["slot-001"].Completed = true
	m.slots.slots["slot-001"].CompletedAt = &now

	result, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce 应成功: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("期望 skipped=1，实际 %+v", result)
	}
}

// ── Start/Stop 测试 ──

func TestReconciler_StartStop(t *testing.T) {
	r, m, _ := setupTestReconciler(500)
	seedProgressPair(t, m, "rec-001", "slot-001", "stu-001", 1)

	go r.Start()
	// 等待至少一个 tick
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	if m.records.records["rec-001"].IncompleteReason == nil {
		t.Error("定时循环应已处理过期记录")
	}
}
