package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/config"
	"paceclass/backend/internal/repository"
	"paceclass/backend/pkg/redis"
)

// ── 事务辅助 ──
// Repository 未绑定真实连接时 BeginTx 返回 nil 事务，此处统一判空

func txRollback(tx *gorm.DB) {
	if tx != nil {
		tx.Rollback()
	}
}

func txCommit(tx *gorm.DB) error {
	if tx == nil {
		return nil
	}
	return tx.Commit().Error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Term       TermService
	Timetable  TimetableService
	Conflict   ConflictService
	Schedule   ScheduleService
	Progress   ProgressService
	Assessment AssessmentService
	Statistics StatisticsService
	Export     ExportService
}

// NewService 创建 Service 聚合
// cache 可为 nil（未配置 Redis 时统计不缓存）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Term:       NewTermService(repo, logger),
		Timetable:  NewTimetableService(repo, logger),
		Conflict:   NewConflictService(repo, logger),
		Schedule:   NewScheduleService(&cfg.Schedule, repo, logger),
		Progress:   NewProgressService(repo, logger),
		Assessment: NewAssessmentService(repo, logger),
		Statistics: NewStatisticsService(&cfg.Schedule, repo, cache, logger),
		Export:     NewExportService(repo, logger),
	}
}
