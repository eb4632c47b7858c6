package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/config"
	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 排课模块业务错误 ──

var (
	ErrTermNotFound           = errors.New("学期不存在")
	ErrStudentNotFound        = errors.New("学生不存在")
	ErrTimetableEmpty         = errors.New("学生课表为空，无法生成课程安排")
	ErrClassSlotTopicRequired = errors.New("班级统一课必须同时指定科目与课题")
	ErrDateNotInWeek          = errors.New("日期不在指定周次范围内")
	ErrClassSlotTimeInvalid   = errors.New("班级统一课时间范围无效")
)

// ScheduleService 排课业务接口
type ScheduleService interface {
	// GenerateWeek 将学生周课表展开为某教学周的课程安排
	// 重复生成同一周时先归档旧数据再重建
	GenerateWeek(ctx context.Context, studentID string, req *dto.GenerateWeekRequest, callerID string) (*dto.GenerateWeekResponse, error)
	// GetWeek 查询学生某周的完整课程安排
	GetWeek(ctx context.Context, studentID, termID string, weekNumber int) (*dto.WeekScheduleResponse, error)
	// ListByDateRange 按日期范围查询课程安排
	ListByDateRange(ctx context.Context, studentID, dateFrom, dateTo string) ([]dto.ScheduleSlotResponse, error)
	// CreateClassSlot 为一批学生创建班级统一课
	CreateClassSlot(ctx context.Context, req *dto.CreateClassSlotRequest, callerID string) ([]dto.ScheduleSlotResponse, error)
}

type scheduleService struct {
	cfg    *config.ScheduleConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{cfg: cfg, repo: repo, logger: logger}
}

// plannedSlot 生成规划中间结构：一条课表条目展开成的一节课
type plannedSlot struct {
	entry       *model.TimetableEntry
	date        time.Time
	start       ClockTime
	end         ClockTime
	subjectID   string
	topicID     *string
	missing     bool
	seq         int // 链内序号，1 起
	total       int
	chainKey    string // 同一课题链的归组键
	needsAssess bool
}

// ═══════════════════════════════════════════════════════════
// GenerateWeek — 周课程安排生成
// ═══════════════════════════════════════════════════════════
//
// 流程：
//  1. 课表条目逐条解析，失败的单条跳过并记入 warnings，不中断整周
//  2. 按科目分组，课题按周次顺序消耗课时：需 N 课时的课题占用该科目
//     时间上连续的 N 节，链内 seq 1..N，第 2 节起要求教师自定义测评
//  3. 剩余无课题可派的课节降级创建（missing_topic，等待手工指派）
//  4. 事务内先归档旧周数据再删除重建；时段与台账一比一镜像

func (s *scheduleService) GenerateWeek(ctx context.Context, studentID string, req *dto.GenerateWeekRequest, callerID string) (*dto.GenerateWeekResponse, error) {
	student, err := s.repo.User.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	term, err := s.repo.Term.GetByID(ctx, req.TermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("term_id", req.TermID), zap.Error(err))
		return nil, err
	}

	weekStart, weekEnd, err := WeekRange(term, req.WeekNumber)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.TimetableEntry.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrTimetableEmpty
	}

	// 1. 逐条解析
	var warnings []string
	planned := make([]*plannedSlot, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		date, derr := DateOf(term, req.WeekNumber, e.DayOfWeek)
		if derr != nil {
			warnings = append(warnings, fmt.Sprintf("条目 %s 星期名无法识别: %q", e.SubjectName, e.DayOfWeek))
			s.logger.Warn("跳过星期名无法识别的课表条目",
				zap.String("entry_id", e.EntryID), zap.String("day_of_week", e.DayOfWeek))
			continue
		}
		start, serr := ParseClockTime(e.StartTime)
		end, eerr := ParseClockTime(e.EndTime)
		if serr != nil || eerr != nil || end <= start {
			warnings = append(warnings, fmt.Sprintf("条目 %s 时间无效: %s-%s", e.SubjectName, e.StartTime, e.EndTime))
			s.logger.Warn("跳过时间无效的课表条目",
				zap.String("entry_id", e.EntryID),
				zap.String("start", e.StartTime), zap.String("end", e.EndTime))
			continue
		}
		planned = append(planned, &plannedSlot{entry: e, date: date, start: start, end: end})
	}
	if len(planned) == 0 {
		return nil, ErrTimetableEmpty
	}

	// 时间序：先日期后开始时刻
	sort.SliceStable(planned, func(i, j int) bool {
		if !planned[i].date.Equal(planned[j].date) {
			return planned[i].date.Before(planned[j].date)
		}
		return planned[i].start < planned[j].start
	})

	// 2. 科目解析 + 课题指派
	if err := s.resolveSubjects(ctx, planned); err != nil {
		return nil, err
	}
	missingCount, err := s.assignTopics(ctx, planned, req.WeekNumber)
	if err != nil {
		return nil, err
	}

	// 3. 事务内归档重建
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	// 进度记录持有 slot_id 外键，必须先于时段归档删除
	if _, err := txRepo.ProgressRecord.ArchiveAndDeleteByStudentWeek(ctx, studentID, term.TermID, weekStart, weekEnd); err != nil {
		txRollback(tx)
		s.logger.Error("归档旧进度记录失败", zap.Error(err))
		return nil, err
	}
	archived, err := txRepo.ScheduleSlot.ArchiveAndDeleteByStudentWeek(ctx, studentID, term.TermID, req.WeekNumber)
	if err != nil {
		txRollback(tx)
		s.logger.Error("归档旧课程安排失败", zap.Error(err))
		return nil, err
	}

	slots, err := s.createSlots(ctx, txRepo, student, term, req.WeekNumber, planned, callerID)
	if err != nil {
		txRollback(tx)
		return nil, err
	}
	if err := txCommit(tx); err != nil {
		s.logger.Error("提交生成事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("周课程安排生成完成",
		zap.String("student_id", studentID),
		zap.String("term_id", term.TermID),
		zap.Int("week", req.WeekNumber),
		zap.Int("generated", len(slots)),
		zap.Int("archived", archived),
		zap.Int("missing_topics", missingCount))

	slotResponses := make([]dto.ScheduleSlotResponse, 0, len(slots))
	for i := range slots {
		slotResponses = append(slotResponses, *toSlotResponse(&slots[i]))
	}
	return &dto.GenerateWeekResponse{
		StudentID:      studentID,
		TermID:         term.TermID,
		WeekNumber:     req.WeekNumber,
		GeneratedSlots: len(slots),
		ArchivedSlots:  archived,
		MissingTopics:  missingCount,
		Warnings:       warnings,
		Slots:          slotResponses,
	}, nil
}

// resolveSubjects 按名称解析科目，未登记的科目自动建档
func (s *scheduleService) resolveSubjects(ctx context.Context, planned []*plannedSlot) error {
	byName := make(map[string]string)
	for _, p := range planned {
		if p.entry.SubjectID != nil {
			p.subjectID = *p.entry.SubjectID
			continue
		}
		if id, ok := byName[p.entry.SubjectName]; ok {
			p.subjectID = id
			continue
		}
		subject, err := s.repo.Subject.GetByName(ctx, p.entry.SubjectName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			subject = &model.Subject{Name: p.entry.SubjectName}
			if err := s.repo.Subject.Create(ctx, subject); err != nil {
				s.logger.Error("登记科目失败", zap.String("name", p.entry.SubjectName), zap.Error(err))
				return err
			}
		} else if err != nil {
			s.logger.Error("查询科目失败", zap.String("name", p.entry.SubjectName), zap.Error(err))
			return err
		}
		byName[p.entry.SubjectName] = subject.SubjectID
		p.subjectID = subject.SubjectID
	}
	return nil
}

// assignTopics 课题指派：每科目按时间序消耗课时，多课时课题成链
func (s *scheduleService) assignTopics(ctx context.Context, planned []*plannedSlot, weekNumber int) (int, error) {
	bySubject := make(map[string][]*plannedSlot)
	subjectOrder := []string{}
	for _, p := range planned {
		if _, seen := bySubject[p.subjectID]; !seen {
			subjectOrder = append(subjectOrder, p.subjectID)
		}
		bySubject[p.subjectID] = append(bySubject[p.subjectID], p)
	}

	missing := 0
	for _, subjectID := range subjectOrder {
		slots := bySubject[subjectID]
		topics, err := s.repo.Topic.ListBySubjectAndWeek(ctx, subjectID, weekNumber)
		if err != nil {
			s.logger.Error("查询课题失败", zap.String("subject_id", subjectID), zap.Error(err))
			return 0, err
		}

		cursor := 0
		for ti := range topics {
			topic := &topics[ti]
			need := topic.PeriodsRequired
			if need < 1 {
				need = 1
			}
			if cursor >= len(slots) {
				break
			}
			chainKey := fmt.Sprintf("%s:%s", subjectID, topic.TopicID)
			total := need
			if cursor+need > len(slots) {
				// 课时不足：能排多少排多少，链长取实际占用
				total = len(slots) - cursor
			}
			for k := 0; k < total; k++ {
				p := slots[cursor+k]
				p.topicID = &topic.TopicID
				p.seq = k + 1
				p.total = total
				p.chainKey = chainKey
				// 首课时不要求自定义测评
				p.needsAssess = k > 0
			}
			cursor += total
		}
		for ; cursor < len(slots); cursor++ {
			slots[cursor].missing = true
			slots[cursor].seq = 1
			slots[cursor].total = 1
			missing++
		}
	}
	return missing, nil
}

// createSlots 按时间序落库并维护链指针；时段与台账同序创建
func (s *scheduleService) createSlots(
	ctx context.Context,
	txRepo *repository.Repository,
	student *model.User,
	term *model.Term,
	weekNumber int,
	planned []*plannedSlot,
	callerID string,
) ([]model.ScheduleSlot, error) {
	loc := institutionLocation()
	grace := time.Duration(s.cfg.GracePeriodMinutes) * time.Minute

	// 节次号按日内时间序 1 起编号
	periodByDate := make(map[string]int)
	lastSlotInChain := make(map[string]string)
	lastRecordInChain := make(map[string]string)

	created := make([]model.ScheduleSlot, 0, len(planned))
	for _, p := range planned {
		dateKey := p.date.Format(dateLayout)
		periodByDate[dateKey]++
		period := periodByDate[dateKey]

		lessonStart := p.start.At(p.date, loc)
		lessonEnd := p.end.At(p.date, loc)
		graceEnd := lessonEnd.Add(grace)

		slot := model.ScheduleSlot{
			StudentID:                student.UserID,
			LessonDate:               p.date,
			PeriodNumber:             period,
			TermID:                   term.TermID,
			WeekNumber:               weekNumber,
			SubjectID:                p.subjectID,
			TopicID:                  p.topicID,
			LessonStart:              lessonStart,
			LessonEnd:                lessonEnd,
			AssessWindowStart:        lessonStart,
			AssessWindowEnd:          lessonEnd,
			GracePeriodEnd:           &graceEnd,
			Source:                   model.SlotSourceIndividual,
			Status:                   model.SlotStatusReady,
			MissingTopic:             p.missing,
			LessonAssignmentMethod:   model.AssignmentMethodAuto,
			RequiresCustomAssessment: p.needsAssess,
		}
		if p.missing {
			// 降级态：无课题可派，等待教师手工指派后才可完成
			slot.Status = model.SlotStatusInProgress
			slot.LessonAssignmentMethod = model.AssignmentMethodPendingManual
		}
		if p.chainKey != "" && p.seq > 1 {
			prevID := lastSlotInChain[p.chainKey]
			slot.PreviousSlotID = &prevID
		}
		slot.CreatedBy = &callerID
		slot.UpdatedBy = &callerID

		if err := txRepo.ScheduleSlot.Create(ctx, &slot); err != nil {
			s.logger.Error("创建课程安排失败",
				zap.String("student_id", student.UserID),
				zap.String("date", dateKey), zap.Int("period", period), zap.Error(err))
			return nil, err
		}

		record := model.ProgressRecord{
			StudentID:                student.UserID,
			LessonDate:               p.date,
			PeriodNumber:             period,
			SlotID:                   slot.SlotID,
			TermID:                   term.TermID,
			SubjectID:                p.subjectID,
			TopicID:                  p.topicID,
			WindowStart:              lessonStart,
			WindowEnd:                lessonEnd,
			GracePeriodEnd:           &graceEnd,
			PeriodSequence:           p.seq,
			TotalPeriodsInSequence:   p.total,
			RequiresCustomAssessment: p.needsAssess,
		}
		if p.chainKey != "" && p.seq > 1 {
			prevID := lastRecordInChain[p.chainKey]
			record.PreviousRecordID = &prevID
		}
		record.CreatedBy = &callerID
		record.UpdatedBy = &callerID

		if err := txRepo.ProgressRecord.Create(ctx, &record); err != nil {
			s.logger.Error("创建进度记录失败",
				zap.String("slot_id", slot.SlotID), zap.Error(err))
			return nil, err
		}

		if p.chainKey != "" {
			lastSlotInChain[p.chainKey] = slot.SlotID
			lastRecordInChain[p.chainKey] = record.RecordID
		}
		created = append(created, slot)
	}
	return created, nil
}

// ────────────────────── GetWeek ──────────────────────

func (s *scheduleService) GetWeek(ctx context.Context, studentID, termID string, weekNumber int) (*dto.WeekScheduleResponse, error) {
	term, err := s.repo.Term.GetByID(ctx, termID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("term_id", termID), zap.Error(err))
		return nil, err
	}
	if _, _, err := WeekRange(term, weekNumber); err != nil {
		return nil, err
	}

	slots, err := s.repo.ScheduleSlot.ListByStudentWeek(ctx, studentID, termID, weekNumber)
	if err != nil {
		s.logger.Error("查询课程安排失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ScheduleSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toSlotResponse(&slots[i]))
	}
	return &dto.WeekScheduleResponse{
		StudentID:  studentID,
		TermID:     termID,
		WeekNumber: weekNumber,
		Slots:      result,
	}, nil
}

// ────────────────────── ListByDateRange ──────────────────────

func (s *scheduleService) ListByDateRange(ctx context.Context, studentID, dateFrom, dateTo string) ([]dto.ScheduleSlotResponse, error) {
	loc := institutionLocation()
	from, err := time.ParseInLocation(dateLayout, dateFrom, loc)
	if err != nil {
		return nil, err
	}
	to, err := time.ParseInLocation(dateLayout, dateTo, loc)
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.ScheduleSlot.ListByStudentDateRange(ctx, studentID, from, to)
	if err != nil {
		s.logger.Error("查询课程安排失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ScheduleSlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toSlotResponse(&slots[i]))
	}
	return result, nil
}

// ────────────────────── CreateClassSlot ──────────────────────

// CreateClassSlot 班级统一课：科目与课题缺一不可（硬性不变量，违反即整体失败）
func (s *scheduleService) CreateClassSlot(ctx context.Context, req *dto.CreateClassSlotRequest, callerID string) ([]dto.ScheduleSlotResponse, error) {
	if req.TopicID == nil || *req.TopicID == "" {
		return nil, ErrClassSlotTopicRequired
	}

	term, err := s.repo.Term.GetByID(ctx, req.TermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("term_id", req.TermID), zap.Error(err))
		return nil, err
	}

	topic, err := s.repo.Topic.GetByID(ctx, *req.TopicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("topic_id", *req.TopicID), zap.Error(err))
		return nil, err
	}
	if topic.SubjectID != req.SubjectID {
		return nil, ErrTopicSubjectMismatch
	}

	loc := institutionLocation()
	date, err := time.ParseInLocation(dateLayout, req.LessonDate, loc)
	if err != nil {
		return nil, err
	}
	week, err := WeekOf(term, date)
	if err != nil {
		return nil, err
	}
	if week != req.WeekNumber {
		return nil, ErrDateNotInWeek
	}

	start, err := ParseClockTime(req.StartTime)
	if err != nil {
		return nil, ErrUnparseableTime
	}
	end, err := ParseClockTime(req.EndTime)
	if err != nil {
		return nil, ErrUnparseableTime
	}
	if end <= start {
		return nil, ErrClassSlotTimeInvalid
	}

	lessonStart := start.At(date, loc)
	lessonEnd := end.At(date, loc)
	graceEnd := lessonEnd.Add(time.Duration(s.cfg.GracePeriodMinutes) * time.Minute)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	created := make([]dto.ScheduleSlotResponse, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		slot := model.ScheduleSlot{
			StudentID:              studentID,
			LessonDate:             date,
			PeriodNumber:           req.PeriodNumber,
			TermID:                 term.TermID,
			WeekNumber:             req.WeekNumber,
			SubjectID:              req.SubjectID,
			TopicID:                &topic.TopicID,
			LessonStart:            lessonStart,
			LessonEnd:              lessonEnd,
			AssessWindowStart:      lessonStart,
			AssessWindowEnd:        lessonEnd,
			GracePeriodEnd:         &graceEnd,
			Source:                 model.SlotSourceClass,
			Status:                 model.SlotStatusReady,
			LessonAssignmentMethod: model.AssignmentMethodAuto,
		}
		slot.CreatedBy = &callerID
		slot.UpdatedBy = &callerID
		if err := txRepo.ScheduleSlot.Create(ctx, &slot); err != nil {
			txRollback(tx)
			s.logger.Error("创建班级统一课失败",
				zap.String("student_id", studentID), zap.Error(err))
			return nil, err
		}

		record := model.ProgressRecord{
			StudentID:              studentID,
			LessonDate:             date,
			PeriodNumber:           req.PeriodNumber,
			SlotID:                 slot.SlotID,
			TermID:                 term.TermID,
			SubjectID:              req.SubjectID,
			TopicID:                &topic.TopicID,
			WindowStart:            lessonStart,
			WindowEnd:              lessonEnd,
			GracePeriodEnd:         &graceEnd,
			PeriodSequence:         1,
			TotalPeriodsInSequence: 1,
		}
		record.CreatedBy = &callerID
		record.UpdatedBy = &callerID
		if err := txRepo.ProgressRecord.Create(ctx, &record); err != nil {
			txRollback(tx)
			s.logger.Error("创建班级统一课进度记录失败",
				zap.String("slot_id", slot.SlotID), zap.Error(err))
			return nil, err
		}
		created = append(created, *toSlotResponse(&slot))
	}
	if err := txCommit(tx); err != nil {
		return nil, err
	}
	return created, nil
}
