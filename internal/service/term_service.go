package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 学期模块业务错误 ──

var (
	ErrTermDateInvalid = errors.New("学期结束日期必须晚于开始日期")
	ErrTermWeekCountMismatch = errors.New("周数与学期日期范围不符")
)

// TermService 学期业务接口
type TermService interface {
	Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TermResponse, error)
	GetActive(ctx context.Context) (*dto.TermResponse, error)
	List(ctx context.Context) ([]dto.TermResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTermRequest, callerID string) (*dto.TermResponse, error)
	Activate(ctx context.Context, id string, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
	// WeekRanges 列出学期每周的日期范围
	WeekRanges(ctx context.Context, id string) ([]dto.WeekRangeResponse, error)
}

type termService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTermService 创建 TermService 实例
func NewTermService(repo *repository.Repository, logger *zap.Logger) TermService {
	return &termService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *termService) Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error) {
	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, institutionLocation())
	if err != nil {
		return nil, ErrTermDateInvalid
	}
	endDate, err := time.ParseInLocation(dateLayout, req.EndDate, institutionLocation())
	if err != nil {
		return nil, ErrTermDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrTermDateInvalid
	}
	// 周数不得超过日期范围能容纳的周数
	days := int(endDate.Sub(startDate).Hours()/24) + 1
	if req.WeekCount > (days+6)/7 {
		return nil, ErrTermWeekCountMismatch
	}

	term := &model.Term{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		WeekCount: req.WeekCount,
		IsActive:  false,
		Status:    "active",
	}
	term.CreatedBy = &callerID
	term.UpdatedBy = &callerID

	if err := s.repo.Term.Create(ctx, term); err != nil {
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}
	return s.toTermResponse(term), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *termService) GetByID(ctx context.Context, id string) (*dto.TermResponse, error) {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toTermResponse(term), nil
}

// ────────────────────── GetActive ──────────────────────

func (s *termService) GetActive(ctx context.Context) (*dto.TermResponse, error) {
	term, err := s.repo.Term.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}
	return s.toTermResponse(term), nil
}

// ────────────────────── List ──────────────────────

func (s *termService) List(ctx context.Context) ([]dto.TermResponse, error) {
	terms, err := s.repo.Term.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TermResponse, 0, len(terms))
	for i := range terms {
		result = append(result, *s.toTermResponse(&terms[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *termService) Update(ctx context.Context, id string, req *dto.UpdateTermRequest, callerID string) (*dto.TermResponse, error) {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		term.Name = *req.Name
	}
	if req.StartDate != nil {
		startDate, err := time.ParseInLocation(dateLayout, *req.StartDate, institutionLocation())
		if err != nil {
			return nil, ErrTermDateInvalid
		}
		term.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := time.ParseInLocation(dateLayout, *req.EndDate, institutionLocation())
		if err != nil {
			return nil, ErrTermDateInvalid
		}
		term.EndDate = endDate
	}
	if !term.EndDate.After(term.StartDate) {
		return nil, ErrTermDateInvalid
	}
	if req.WeekCount != nil {
		term.WeekCount = *req.WeekCount
	}
	days := int(term.EndDate.Sub(term.StartDate).Hours()/24) + 1
	if term.WeekCount > (days+6)/7 {
		return nil, ErrTermWeekCountMismatch
	}
	term.UpdatedBy = &callerID

	if err := s.repo.Term.Update(ctx, term); err != nil {
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toTermResponse(term), nil
}

// ────────────────────── Activate ──────────────────────

// Activate 激活学期；ClearActive + SetActive 同一事务内完成
func (s *termService) Activate(ctx context.Context, id string, callerID string) error {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Term.ClearActive(ctx); err != nil {
		txRollback(tx)
		s.logger.Error("清除活动学期失败", zap.Error(err))
		return err
	}
	if err := txRepo.Term.SetActive(ctx, term.TermID); err != nil {
		txRollback(tx)
		s.logger.Error("激活学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return txCommit(tx)
}

// ────────────────────── Delete ──────────────────────

func (s *termService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getTerm(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Term.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── WeekRanges ──────────────────────

func (s *termService) WeekRanges(ctx context.Context, id string) ([]dto.WeekRangeResponse, error) {
	term, err := s.getTerm(ctx, id)
	if err != nil {
		return nil, err
	}
	result := make([]dto.WeekRangeResponse, 0, term.WeekCount)
	for week := 1; week <= term.WeekCount; week++ {
		first, last, err := WeekRange(term, week)
		if err != nil {
			return nil, err
		}
		result = append(result, dto.WeekRangeResponse{
			WeekNumber: week,
			StartDate:  first.Format(dateLayout),
			EndDate:    last.Format(dateLayout),
		})
	}
	return result, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *termService) getTerm(ctx context.Context, id string) (*model.Term, error) {
	term, err := s.repo.Term.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return term, nil
}

func (s *termService) toTermResponse(term *model.Term) *dto.TermResponse {
	return &dto.TermResponse{
		ID:        term.TermID,
		Name:      term.Name,
		StartDate: term.StartDate.Format(dateLayout),
		EndDate:   term.EndDate.Format(dateLayout),
		WeekCount: term.WeekCount,
		IsActive:  term.IsActive,
		Status:    term.Status,
		CreatedAt: fmtTime(term.CreatedAt),
		UpdatedAt: fmtTime(term.UpdatedAt),
	}
}
