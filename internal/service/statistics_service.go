package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/config"
	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
	"paceclass/backend/pkg/redis"
)

// ── 统计模块业务错误 ──

var (
	ErrStatsTermNotFound     = errors.New("学期不存在")
	ErrStatsClassNotFound    = errors.New("班级不存在")
	ErrStatsInvalidDateRange = errors.New("统计日期范围无效")
)

// 达标/风险阈值（读侧策略常量）
const (
	// onTrackThreshold 完成率达标线
	onTrackThreshold = 0.75
	// atRiskThreshold 缺课率风险线
	atRiskThreshold = 0.20
)

// StatisticsService 进度统计业务接口
//
// 纯读侧汇总，结果短 TTL 缓存；缓存不可用时降级为直查，不影响可用性
type StatisticsService interface {
	StudentStats(ctx context.Context, studentID string, req *dto.StatisticsRequest) (*dto.StudentStatResponse, error)
	ClassStats(ctx context.Context, classID string, req *dto.StatisticsRequest) (*dto.ClassStatResponse, error)
	SystemStats(ctx context.Context, req *dto.StatisticsRequest) (*dto.SystemStatResponse, error)
}

type statisticsService struct {
	cfg    *config.ScheduleConfig
	repo   *repository.Repository
	cache  *redis.Client
	logger *zap.Logger
}

// NewStatisticsService 创建 StatisticsService 实例
// cache 可为 nil（Redis 未配置时统计直查不缓存）
func NewStatisticsService(cfg *config.ScheduleConfig, repo *repository.Repository, cache *redis.Client, logger *zap.Logger) StatisticsService {
	return &statisticsService{cfg: cfg, repo: repo, cache: cache, logger: logger}
}

// ────────────────────── StudentStats ──────────────────────

func (s *statisticsService) StudentStats(ctx context.Context, studentID string, req *dto.StatisticsRequest) (*dto.StudentStatResponse, error) {
	from, to, err := parseStatsRange(req)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats:student:%s:%s:%s:%s", studentID, req.TermID, req.DateFrom, req.DateTo)
	if s.cache != nil {
		var cached dto.StudentStatResponse
		err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("统计缓存读取失败，降级直查", zap.Error(err))
		}
	}

	if _, err := s.repo.Term.GetByID(ctx, req.TermID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatsTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("term_id", req.TermID), zap.Error(err))
		return nil, err
	}

	records, err := s.repo.ProgressRecord.ListByStudentTerm(ctx, studentID, req.TermID)
	if err != nil {
		s.logger.Error("查询进度记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	stat := computeStudentStats(studentID, req.TermID, filterRecordsByDate(records, from, to))

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, stat, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("统计缓存写入失败", zap.Error(err))
		}
	}
	return stat, nil
}

// ────────────────────── ClassStats ──────────────────────

func (s *statisticsService) ClassStats(ctx context.Context, classID string, req *dto.StatisticsRequest) (*dto.ClassStatResponse, error) {
	from, to, err := parseStatsRange(req)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats:class:%s:%s:%s:%s", classID, req.TermID, req.DateFrom, req.DateTo)
	if s.cache != nil {
		var cached dto.ClassStatResponse
		err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("统计缓存读取失败，降级直查", zap.Error(err))
		}
	}

	if _, err := s.repo.Class.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatsClassNotFound
		}
		s.logger.Error("查询班级失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	students, err := s.repo.User.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询班级学生失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	result := &dto.ClassStatResponse{
		ClassID:      classID,
		TermID:       req.TermID,
		StudentCount: len(students),
		Students:     make([]dto.StudentStatResponse, 0, len(students)),
	}

	var rateSum float64
	for i := range students {
		records, err := s.repo.ProgressRecord.ListByStudentTerm(ctx, students[i].UserID, req.TermID)
		if err != nil {
			s.logger.Error("查询进度记录失败",
				zap.String("student_id", students[i].UserID), zap.Error(err))
			return nil, err
		}
		stat := computeStudentStats(students[i].UserID, req.TermID, filterRecordsByDate(records, from, to))
		if stat.OnTrack {
			result.OnTrackCount++
		}
		if stat.AtRisk {
			result.AtRiskCount++
		}
		rateSum += stat.CompletionRate
		result.Students = append(result.Students, *stat)
	}
	if len(students) > 0 {
		result.CompletionRate = round2(rateSum / float64(len(students)))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, result, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("统计缓存写入失败", zap.Error(err))
		}
	}
	return result, nil
}

// ────────────────────── SystemStats ──────────────────────

// SystemStats 全校维度汇总：某学期（可选日期范围内）全部学生的台账
func (s *statisticsService) SystemStats(ctx context.Context, req *dto.StatisticsRequest) (*dto.SystemStatResponse, error) {
	from, to, err := parseStatsRange(req)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats:system:%s:%s:%s", req.TermID, req.DateFrom, req.DateTo)
	if s.cache != nil {
		var cached dto.SystemStatResponse
		err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("统计缓存读取失败，降级直查", zap.Error(err))
		}
	}

	if _, err := s.repo.Term.GetByID(ctx, req.TermID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatsTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("term_id", req.TermID), zap.Error(err))
		return nil, err
	}

	records, err := s.repo.ProgressRecord.ListByTerm(ctx, req.TermID)
	if err != nil {
		s.logger.Error("查询进度记录失败", zap.String("term_id", req.TermID), zap.Error(err))
		return nil, err
	}
	records = filterRecordsByDate(records, from, to)

	// 全局比率与科目分组对全量记录计算一次
	overall := computeStudentStats("", req.TermID, records)
	result := &dto.SystemStatResponse{
		TermID:         req.TermID,
		TotalRecords:   overall.TotalRecords,
		CompletedCount: overall.CompletedCount,
		MissedCount:    overall.MissedCount,
		PendingCount:   overall.PendingCount,
		CompletionRate: overall.CompletionRate,
		MissRate:       overall.MissRate,
		Subjects:       overall.Subjects,
	}

	// 达标/风险按学生分组逐个判定
	byStudent := make(map[string][]model.ProgressRecord)
	for i := range records {
		byStudent[records[i].StudentID] = append(byStudent[records[i].StudentID], records[i])
	}
	result.StudentCount = len(byStudent)
	for studentID, recs := range byStudent {
		stat := computeStudentStats(studentID, req.TermID, recs)
		if stat.OnTrack {
			result.OnTrackCount++
		}
		if stat.AtRisk {
			result.AtRiskCount++
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, result, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("统计缓存写入失败", zap.Error(err))
		}
	}
	return result, nil
}

// ────────────────────── 日期范围 ──────────────────────

// parseStatsRange 解析可选日期范围；零值表示不限
func parseStatsRange(req *dto.StatisticsRequest) (from, to time.Time, err error) {
	loc := institutionLocation()
	if req.DateFrom != "" {
		from, err = time.ParseInLocation(dateLayout, req.DateFrom, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrStatsInvalidDateRange
		}
	}
	if req.DateTo != "" {
		to, err = time.ParseInLocation(dateLayout, req.DateTo, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrStatsInvalidDateRange
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, ErrStatsInvalidDateRange
	}
	return from, to, nil
}

// filterRecordsByDate 按课次日期裁剪记录，闭区间
func filterRecordsByDate(records []model.ProgressRecord, from, to time.Time) []model.ProgressRecord {
	if from.IsZero() && to.IsZero() {
		return records
	}
	filtered := make([]model.ProgressRecord, 0, len(records))
	for i := range records {
		if !from.IsZero() && records[i].LessonDate.Before(from) {
			continue
		}
		if !to.IsZero() && records[i].LessonDate.After(to) {
			continue
		}
		filtered = append(filtered, records[i])
	}
	return filtered
}

// ────────────────────── 汇总计算（纯函数） ──────────────────────

// computeStudentStats 对一组台账记录做学生维度汇总
// missed 按 incomplete_reason 已盖章判定；其余未完成记录计入 pending
func computeStudentStats(studentID, termID string, records []model.ProgressRecord) *dto.StudentStatResponse {
	stat := &dto.StudentStatResponse{
		StudentID:    studentID,
		TermID:       termID,
		TotalRecords: len(records),
		Subjects:     []dto.SubjectStatResponse{},
	}

	type subjectAgg struct {
		brief     dto.SubjectBrief
		total     int
		completed int
		missed    int
	}
	bySubject := make(map[string]*subjectAgg)
	subjectOrder := []string{}

	for i := range records {
		rec := &records[i]
		agg, ok := bySubject[rec.SubjectID]
		if !ok {
			brief := dto.SubjectBrief{ID: rec.SubjectID}
			if rec.Subject != nil {
				brief.Name = rec.Subject.Name
			}
			agg = &subjectAgg{brief: brief}
			bySubject[rec.SubjectID] = agg
			subjectOrder = append(subjectOrder, rec.SubjectID)
		}
		agg.total++
		switch {
		case rec.Completed:
			stat.CompletedCount++
			agg.completed++
		case rec.IncompleteReason != nil:
			stat.MissedCount++
			agg.missed++
		default:
			stat.PendingCount++
		}
	}

	if stat.TotalRecords > 0 {
		stat.CompletionRate = round2(float64(stat.CompletedCount) / float64(stat.TotalRecords))
		stat.MissRate = round2(float64(stat.MissedCount) / float64(stat.TotalRecords))
	}
	stat.OnTrack = stat.TotalRecords > 0 && stat.CompletionRate >= onTrackThreshold
	stat.AtRisk = stat.MissRate > atRiskThreshold

	for _, id := range subjectOrder {
		agg := bySubject[id]
		sub := dto.SubjectStatResponse{
			Subject:        agg.brief,
			TotalRecords:   agg.total,
			CompletedCount: agg.completed,
			MissedCount:    agg.missed,
		}
		if agg.total > 0 {
			sub.CompletionRate = round2(float64(agg.completed) / float64(agg.total))
		}
		stat.Subjects = append(stat.Subjects, sub)
	}
	return stat
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
