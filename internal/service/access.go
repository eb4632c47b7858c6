package service

import (
	"time"

	"paceclass/backend/internal/model"
)

// ── 访问状态求值 ──────────────────────────────────────────
//
// 客户端看到的状态不落库，每次读取时由时间戳 + 标志位推导，
// 避免持久化枚举与墙钟时间脱节。
// ─────────────────────────────────────────────────────────────

// 访问状态（按优先级从高到低判定）
const (
	AccessCompleted                = "COMPLETED"
	AccessBlockedPrerequisite      = "BLOCKED_PREREQUISITE"
	AccessBlockedPendingAssessment = "BLOCKED_PENDING_ASSESSMENT"
	AccessUpcoming                 = "UPCOMING"
	AccessAvailableNow             = "AVAILABLE_NOW"
	AccessMissed                   = "MISSED"
)

// EvaluateAccess 计算进度记录此刻的访问状态（纯函数）
//
// previous 为链上前一课时的记录，首课时传 nil。
// 判定顺序即优先级：完成态终结一切；前置未完成阻塞内容与测评；
// 待评估阻塞优先于窗口判定（窗口已开也不放行，见多课时课题规则）。
func EvaluateAccess(now time.Time, record *model.ProgressRecord, previous *model.ProgressRecord) string {
	if record.Completed {
		return AccessCompleted
	}
	if previous != nil && !previous.Completed {
		return AccessBlockedPrerequisite
	}
	if record.RequiresCustomAssessment && !record.CustomAssessmentReady {
		return AccessBlockedPendingAssessment
	}
	// 清扫任务已盖章的记录不再回到可用态
	if record.IncompleteReason != nil {
		return AccessMissed
	}
	if now.Before(record.WindowStart) {
		return AccessUpcoming
	}
	if !now.After(record.WindowDeadline()) {
		return AccessAvailableNow
	}
	return AccessMissed
}
