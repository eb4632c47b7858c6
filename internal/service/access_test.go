package service

import (
	"testing"
	"time"

	"paceclass/backend/internal/model"
)

// ── 测试辅助 ──

// baseRecord 窗口 [10:00, 10:45]，宽限至 11:15
func baseRecord(t *testing.T) *model.ProgressRecord {
	t.Helper()
	loc := institutionLocation()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	end := time.Date(2026, 3, 2, 10, 45, 0, 0, loc)
	grace := end.Add(30 * time.Minute)
	return &model.ProgressRecord{
		RecordID:    "rec-001",
		StudentID:   "stu-001",
		WindowStart: start,
		WindowEnd:   end,
		GracePeriodEnd: &grace,
	}
}

func at(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, 3, 2, hour, minute, 0, 0, institutionLocation())
}

// ── EvaluateAccess 测试 ──

func TestEvaluateAccess_Completed(t *testing.T) {
	rec := baseRecord(t)
	rec.Completed = true

	if got := EvaluateAccess(at(t, 10, 30), rec, nil); got != AccessCompleted {
		t.Errorf("期望 COMPLETED，实际=%s", got)
	}
}

// 完成态优先于一切：即便前置未完成、评估未就绪、已盖章，也返回 COMPLETED
func TestEvaluateAccess_CompletedOverridesAll(t *testing.T) {
	rec := baseRecord(t)
	rec.Completed = true
	rec.RequiresCustomAssessment = true
	reason := model.IncompleteReasonMissedGrace
	rec.IncompleteReason = &reason
	previous := &model.ProgressRecord{RecordID: "rec-000", Completed: false}

	if got := EvaluateAccess(at(t, 10, 30), rec, previous); got != AccessCompleted {
		t.Errorf("期望 COMPLETED，实际=%s", got)
	}
}

func TestEvaluateAccess_BlockedPrerequisite(t *testing.T) {
	rec := baseRecord(t)
	previous := &model.ProgressRecord{RecordID: "rec-000", Completed: false}

	if got := EvaluateAccess(at(t, 10, 30), rec, previous); got != AccessBlockedPrerequisite {
		t.Errorf("期望 BLOCKED_PREREQUISITE，实际=%s", got)
	}
}

func TestEvaluateAccess_PreviousCompleted(t *testing.T) {
	rec := baseRecord(t)
	previous := &model.ProgressRecord{RecordID: "rec-000", Completed: true}

	if got := EvaluateAccess(at(t, 10, 30), rec, previous); got != AccessAvailableNow {
		t.Errorf("前置已完成时期望 AVAILABLE_NOW，实际=%s", got)
	}
}

// 前置阻塞优先于待评估阻塞
func TestEvaluateAccess_PrerequisiteBeforeAssessment(t *testing.T) {
	rec := baseRecord(t)
	rec.RequiresCustomAssessment = true
	previous := &model.ProgressRecord{RecordID: "rec-000", Completed: false}

	if got := EvaluateAccess(at(t, 10, 30), rec, previous); got != AccessBlockedPrerequisite {
		t.Errorf("期望 BLOCKED_PREREQUISITE，实际=%s", got)
	}
}

func TestEvaluateAccess_BlockedPendingAssessment(t *testing.T) {
	rec := baseRecord(t)
	rec.RequiresCustomAssessment = true
	previous := &model.ProgressRecord{RecordID: "rec-000", Completed: true}

	if got := EvaluateAccess(at(t, 10, 30), rec, previous); got != AccessBlockedPendingAssessment {
		t.Errorf("期望 BLOCKED_PENDING_ASSESSMENT，实际=%s", got)
	}
}

// 待评估阻塞与窗口无关：窗口早已过期仍报 BLOCKED_PENDING_ASSESSMENT 而非 MISSED
func TestEvaluateAccess_PendingAssessmentAfterWindow(t *testing.T) {
	rec := baseRecord(t)
	rec.RequiresCustomAssessment = true

	if got := EvaluateAccess(at(t, 23, 0), rec, nil); got != AccessBlockedPendingAssessment {
		t.Errorf("期望 BLOCKED_PENDING_ASSESSMENT，实际=%s", got)
	}
}

func TestEvaluateAccess_AssessmentReady(t *testing.T) {
	rec := baseRecord(t)
	rec.RequiresCustomAssessment = true
	rec.CustomAssessmentReady = true

	if got := EvaluateAccess(at(t, 10, 30), rec, nil); got != AccessAvailableNow {
		t.Errorf("评估就绪时期望 AVAILABLE_NOW，实际=%s", got)
	}
}

// 已盖章的记录即便窗口尚未开始也报 MISSED，不回到 UPCOMING
func TestEvaluateAccess_StampedBeforeWindow(t *testing.T) {
	rec := baseRecord(t)
	reason := model.IncompleteReasonStudentMarked
	rec.IncompleteReason = &reason

	if got := EvaluateAccess(at(t, 9, 0), rec, nil); got != AccessMissed {
		t.Errorf("期望 MISSED，实际=%s", got)
	}
}

func TestEvaluateAccess_Upcoming(t *testing.T) {
	rec := baseRecord(t)

	if got := EvaluateAccess(at(t, 9, 59), rec, nil); got != AccessUpcoming {
		t.Errorf("期望 UPCOMING，实际=%s", got)
	}
}

func TestEvaluateAccess_WindowBoundaries(t *testing.T) {
	rec := baseRecord(t)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"窗口开始瞬间", at(t, 10, 0), AccessAvailableNow},
		{"窗口结束瞬间", at(t, 10, 45), AccessAvailableNow},
		{"宽限期内", at(t, 11, 0), AccessAvailableNow},
		{"宽限期结束瞬间", at(t, 11, 15), AccessAvailableNow},
		{"宽限期过后", at(t, 11, 16), AccessMissed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateAccess(tt.now, rec, nil); got != tt.want {
				t.Errorf("期望 %s，实际=%s", tt.want, got)
			}
		})
	}
}

// 无宽限期时截止即窗口结束
func TestEvaluateAccess_NoGracePeriod(t *testing.T) {
	rec := baseRecord(t)
	rec.GracePeriodEnd = nil

	if got := EvaluateAccess(at(t, 10, 46), rec, nil); got != AccessMissed {
		t.Errorf("期望 MISSED，实际=%s", got)
	}
	if got := EvaluateAccess(at(t, 10, 45), rec, nil); got != AccessAvailableNow {
		t.Errorf("期望 AVAILABLE_NOW，实际=%s", got)
	}
}
