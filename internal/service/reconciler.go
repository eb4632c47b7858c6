package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"paceclass/backend/config"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
	pkgerrors "paceclass/backend/pkg/errors"
)

// ── 未完成清扫任务 ────────────────────────────────────────
//
// 定时扫描截止时间已过、未完成且未盖章的进度记录：有合格测评提交
// 的补记完成，否则盖 MISSED_GRACE_PERIOD 章并镜像到时段。
//
// 幂等性依赖扫描谓词（incomplete_reason IS NULL）与存储层条件更新：
// 学生在扫描读与写之间完成的记录，条件更新命中 0 行，按预期跳过。
// 单条失败只计数不中断整轮；同一时刻至多一轮在跑。
// ─────────────────────────────────────────────────────────────

// SweepResult 单轮清扫结果
type SweepResult struct {
	Scanned   int // 扫描到的过期记录数
	Marked    int // 盖未完成章的记录数
	Completed int // 凭合格提交补记完成的记录数
	Skipped   int // 条件更新未命中（与学生操作竞争）的记录数
	Failed    int // 处理出错的记录数
}

// Reconciler 未完成清扫任务
type Reconciler struct {
	cfg    *config.ScheduleConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewReconciler 创建清扫任务实例
func NewReconciler(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start 启动定时循环；阻塞直到 Stop 被调用，应在独立 goroutine 中运行
func (r *Reconciler) Start() {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()
	defer close(r.done)

	r.logger.Info("清扫任务启动", zap.Duration("interval", r.cfg.ReconcileInterval))

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.ReconcileInterval)
			result, err := r.RunOnce(ctx)
			cancel()
			if err != nil {
				// 单轮失败只记录，下一个 tick 重试
				r.logger.Error("清扫轮次失败", zap.Error(err))
				continue
			}
			if result.Scanned > 0 {
				r.logger.Info("清扫轮次完成",
					zap.Int("scanned", result.Scanned),
					zap.Int("marked", result.Marked),
					zap.Int("completed", result.Completed),
					zap.Int("skipped", result.Skipped),
					zap.Int("failed", result.Failed))
			}
		case <-r.stop:
			r.logger.Info("清扫任务停止")
			return
		}
	}
}

// Stop 停止定时循环并等待当前轮次结束
func (r *Reconciler) Stop() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

// RunOnce 执行一轮清扫；与定时循环共用，测试与手动触发也走这里
func (r *Reconciler) RunOnce(ctx context.Context) (*SweepResult, error) {
	// 同一时刻至多一轮：重叠的轮次是无谓功，直接让行
	if !r.running.CompareAndSwap(false, true) {
		return &SweepResult{}, nil
	}
	defer r.running.Store(false)

	now := r.now()
	records, err := r.repo.ProgressRecord.ListExpiredUnmarked(ctx, now, r.cfg.ReconcileBatchSize)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(records)}
	for i := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		r.reconcileRecord(ctx, &records[i], now, result)
	}
	return result, nil
}

// reconcileRecord 处理单条记录：失败记数，不向上传播
func (r *Reconciler) reconcileRecord(ctx context.Context, rec *model.ProgressRecord, now time.Time, result *SweepResult) {
	// 有合格测评提交的记录视为按时完成，补记而非盖章
	if rec.AssessmentID != nil {
		qualified, err := r.repo.Submission.HasQualifying(ctx, rec.StudentID, *rec.AssessmentID)
		if err != nil {
			r.logger.Error("查询测评提交失败",
				zap.String("record_id", rec.RecordID), zap.Error(err))
			result.Failed++
			return
		}
		if qualified {
			r.transition(ctx, rec, result, true, now)
			return
		}
	}
	r.transition(ctx, rec, result, false, now)
}

// transition 台账与时段在同一事务内转移，条件更新未命中按竞争跳过
func (r *Reconciler) transition(ctx context.Context, rec *model.ProgressRecord, result *SweepResult, complete bool, now time.Time) {
	tx, err := r.repo.BeginTx(ctx)
	if err != nil {
		r.logger.Error("开启清扫事务失败", zap.Error(err))
		result.Failed++
		return
	}
	txRepo := r.repo.WithTx(tx)

	if complete {
		err = txRepo.ProgressRecord.MarkCompleted(ctx, rec.RecordID, now)
	} else {
		err = txRepo.ProgressRecord.MarkIncomplete(ctx, rec.RecordID, model.IncompleteReasonMissedGrace, now)
	}
	if err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			result.Skipped++
			return
		}
		r.logger.Error("进度记录转移失败", zap.String("record_id", rec.RecordID), zap.Error(err))
		result.Failed++
		return
	}

	if complete {
		err = txRepo.ScheduleSlot.MarkCompleted(ctx, rec.SlotID, now)
	} else {
		err = txRepo.ScheduleSlot.MarkIncomplete(ctx, rec.SlotID, model.IncompleteReasonMissedGrace)
	}
	if err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			result.Skipped++
			return
		}
		r.logger.Error("课程安排转移失败", zap.String("slot_id", rec.SlotID), zap.Error(err))
		result.Failed++
		return
	}

	if err := txCommit(tx); err != nil {
		r.logger.Error("提交清扫事务失败", zap.String("record_id", rec.RecordID), zap.Error(err))
		result.Failed++
		return
	}
	if complete {
		result.Completed++
	} else {
		result.Marked++
	}
}
