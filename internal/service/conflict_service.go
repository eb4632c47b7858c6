package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 冲突检测 ──────────────────────────────────────────────
//
// 对学生原始课表做只读检查，产出建议性冲突报告。
// 检测本身是输入条目的纯函数：不读库、不写库，服务层只负责
// 取数与包装。排课生成前调用，HIGH 级冲突由调用方决定是否拦截。
// ─────────────────────────────────────────────────────────────

// 冲突类型
const (
	ConflictTimeOverlap         = "TIME_OVERLAP"
	ConflictDuplicateSubject    = "DUPLICATE_SUBJECT"
	ConflictInvalidTimeRange    = "INVALID_TIME_RANGE"
	ConflictUnrealisticDuration = "UNREALISTIC_DURATION"
	ConflictTooManyPeriods      = "TOO_MANY_PERIODS"
)

// 冲突严重级别
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// 策略常量：阈值为硬编码策略值，非推导所得
const (
	// maxLessonMinutes 单节课时长上限，超出视为录入可疑
	maxLessonMinutes = 120
	// maxPeriodsPerDay 单日课节数上限，超出视为不现实的负荷
	maxPeriodsPerDay = 10
	// duplicateSubjectLimit 同科目单日允许出现次数，第 3 次起告警
	duplicateSubjectLimit = 2
)

// ── 冲突模块业务错误 ──

var (
	ErrConflictStudentNotFound = errors.New("学生不存在")
)

// parsedEntry 解析成功、参与重叠分析的条目
type parsedEntry struct {
	entry *model.TimetableEntry
	start ClockTime
	end   ClockTime
}

// ConflictService 冲突检测业务接口
type ConflictService interface {
	// ReportForStudent 对学生当前课表生成冲突报告
	ReportForStudent(ctx context.Context, studentID string) (*dto.ConflictReportResponse, error)
}

type conflictService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, logger: logger}
}

func (s *conflictService) ReportForStudent(ctx context.Context, studentID string) (*dto.ConflictReportResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflictStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	entries, err := s.repo.TimetableEntry.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	conflicts := DetectConflicts(entries)
	return &dto.ConflictReportResponse{
		StudentID:   studentID,
		HasBlocking: hasBlockingConflict(conflicts),
		Conflicts:   conflicts,
	}, nil
}

// hasBlockingConflict 报告中是否存在 HIGH 级冲突
func hasBlockingConflict(conflicts []dto.ConflictResponse) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════
// DetectConflicts — 课表冲突扫描（纯函数）
// ═══════════════════════════════════════════════════════════
//
// 解析失败的条目不参与重叠/重复分析，单独产出 INVALID_TIME_RANGE；
// 同一输入重复运行产出相同的冲突集合。

func DetectConflicts(entries []model.TimetableEntry) []dto.ConflictResponse {
	var conflicts []dto.ConflictResponse

	byDay := make(map[string][]parsedEntry)
	dayOrder := []string{}
	dayCount := make(map[string]int)
	countOrder := []string{}

	// 1. 逐条解析 + 单条校验
	for i := range entries {
		e := &entries[i]
		if _, seen := dayCount[e.DayOfWeek]; !seen {
			countOrder = append(countOrder, e.DayOfWeek)
		}
		dayCount[e.DayOfWeek]++

		start, errStart := ParseClockTime(e.StartTime)
		end, errEnd := ParseClockTime(e.EndTime)
		if errStart != nil || errEnd != nil {
			conflicts = append(conflicts, dto.ConflictResponse{
				Type:        ConflictInvalidTimeRange,
				Severity:    SeverityHigh,
				DayOfWeek:   e.DayOfWeek,
				Description: fmt.Sprintf("%s 时间无法解析: %s-%s", e.SubjectName, e.StartTime, e.EndTime),
				EntryIDs:    []string{e.EntryID},
			})
			continue
		}
		if end <= start {
			conflicts = append(conflicts, dto.ConflictResponse{
				Type:        ConflictInvalidTimeRange,
				Severity:    SeverityHigh,
				DayOfWeek:   e.DayOfWeek,
				Description: fmt.Sprintf("%s 结束时间不晚于开始时间: %s-%s", e.SubjectName, start, end),
				EntryIDs:    []string{e.EntryID},
			})
			continue
		}
		if end.Minutes()-start.Minutes() > maxLessonMinutes {
			conflicts = append(conflicts, dto.ConflictResponse{
				Type:        ConflictUnrealisticDuration,
				Severity:    SeverityMedium,
				DayOfWeek:   e.DayOfWeek,
				Description: fmt.Sprintf("%s 时长 %d 分钟，超过 %d 分钟上限", e.SubjectName, end.Minutes()-start.Minutes(), maxLessonMinutes),
				EntryIDs:    []string{e.EntryID},
			})
		}

		if _, seen := byDay[e.DayOfWeek]; !seen {
			dayOrder = append(dayOrder, e.DayOfWeek)
		}
		byDay[e.DayOfWeek] = append(byDay[e.DayOfWeek], parsedEntry{entry: e, start: start, end: end})
	}

	// 2. 按天扫描
	for _, day := range dayOrder {
		dayEntries := byDay[day]
		sort.SliceStable(dayEntries, func(i, j int) bool {
			return dayEntries[i].start < dayEntries[j].start
		})

		// 2a. 时间重叠：半开区间，边界相接不算冲突
		for i := 0; i < len(dayEntries); i++ {
			for j := i + 1; j < len(dayEntries); j++ {
				a, b := dayEntries[i], dayEntries[j]
				if a.start < b.end && b.start < a.end {
					conflicts = append(conflicts, dto.ConflictResponse{
						Type:      ConflictTimeOverlap,
						Severity:  SeverityHigh,
						DayOfWeek: day,
						Description: fmt.Sprintf("%s (%s-%s) 与 %s (%s-%s) 时间重叠",
							a.entry.SubjectName, a.start, a.end,
							b.entry.SubjectName, b.start, b.end),
						EntryIDs: []string{a.entry.EntryID, b.entry.EntryID},
					})
				}
			}
		}

		// 2b. 同科目重复：第 3 次出现起逐对告警（实验课等合法重复，故为建议级）
		bySubject := make(map[string][]parsedEntry)
		subjectOrder := []string{}
		for _, pe := range dayEntries {
			if _, seen := bySubject[pe.entry.SubjectName]; !seen {
				subjectOrder = append(subjectOrder, pe.entry.SubjectName)
			}
			bySubject[pe.entry.SubjectName] = append(bySubject[pe.entry.SubjectName], pe)
		}
		for _, subject := range subjectOrder {
			occurrences := bySubject[subject]
			for k := duplicateSubjectLimit; k < len(occurrences); k++ {
				prev, cur := occurrences[k-1], occurrences[k]
				conflicts = append(conflicts, dto.ConflictResponse{
					Type:      ConflictDuplicateSubject,
					Severity:  SeverityMedium,
					DayOfWeek: day,
					Description: fmt.Sprintf("%s 当日第 %d 次出现 (%s-%s，前一次 %s-%s)",
						subject, k+1, cur.start, cur.end, prev.start, prev.end),
					EntryIDs: []string{prev.entry.EntryID, cur.entry.EntryID},
				})
			}
		}
	}

	// 3. 单日课节数上限（含解析失败的条目，总量本身就是信号）
	for _, day := range countOrder {
		if count := dayCount[day]; count > maxPeriodsPerDay {
			conflicts = append(conflicts, dto.ConflictResponse{
				Type:        ConflictTooManyPeriods,
				Severity:    SeverityMedium,
				DayOfWeek:   day,
				Description: fmt.Sprintf("当日 %d 节课，超过 %d 节上限", count, maxPeriodsPerDay),
			})
		}
	}

	return conflicts
}
