package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSlots      = errors.New("该周暂无课程安排")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 按天分列、节次分行呈现某学生某周的课程安排
//   - ICS 导出覆盖学生某周全部时段，学生可订阅到个人日历
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入
type ExportService interface {
	// ExportWeekXLSX 导出某学生某周课程安排为 Excel
	ExportWeekXLSX(ctx context.Context, studentID, termID string, weekNumber int) (*bytes.Buffer, string, error)
	// ExportWeekICS 导出某学生某周课程安排为 iCalendar
	ExportWeekICS(ctx context.Context, studentID, termID string, weekNumber int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// weekdayHeaders Excel 列头（周一起）
var weekdayHeaders = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// ═══════════════════════════════════════════════════════════
// ExportWeekXLSX — 周课程安排导出为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportWeekXLSX(ctx context.Context, studentID, termID string, weekNumber int) (*bytes.Buffer, string, error) {
	slots, term, err := s.loadWeek(ctx, studentID, termID, weekNumber)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("第%d周", weekNumber)
	f.SetSheetName("Sheet1", sheet)

	// 列头：节次 + 周一~周日
	_ = f.SetCellValue(sheet, "A1", "节次")
	for i, h := range weekdayHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	// 行：每个出现过的节次号一行；列按周内日偏移
	maxPeriod := 0
	weekStart, _, err := WeekRange(term, weekNumber)
	if err != nil {
		return nil, "", err
	}
	for i := range slots {
		if slots[i].PeriodNumber > maxPeriod {
			maxPeriod = slots[i].PeriodNumber
		}
	}
	for p := 1; p <= maxPeriod; p++ {
		cell, _ := excelize.CoordinatesToCellName(1, p+1)
		_ = f.SetCellValue(sheet, cell, fmt.Sprintf("第%d节", p))
	}
	loc := institutionLocation()
	for i := range slots {
		slot := &slots[i]
		dayOffset := int(slot.LessonDate.In(loc).Sub(weekStart).Hours() / 24)
		if dayOffset < 0 || dayOffset > 6 {
			continue
		}
		text := s.cellText(slot)
		cell, _ := excelize.CoordinatesToCellName(dayOffset+2, slot.PeriodNumber+1)
		_ = f.SetCellValue(sheet, cell, text)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	filename := fmt.Sprintf("%s_第%d周课程安排.xlsx", term.Name, weekNumber)
	return buf, filename, nil
}

// cellText 单元格文本：科目 + 课题 + 时间
func (s *exportService) cellText(slot *model.ScheduleSlot) string {
	loc := institutionLocation()
	text := ""
	if slot.Subject != nil {
		text = slot.Subject.Name
	}
	if slot.Topic != nil {
		text += "\n" + slot.Topic.Title
	} else if slot.MissingTopic {
		text += "\n(课题待指派)"
	}
	text += fmt.Sprintf("\n%s-%s",
		slot.LessonStart.In(loc).Format("15:04"),
		slot.LessonEnd.In(loc).Format("15:04"))
	return text
}

// ═══════════════════════════════════════════════════════════
// ExportWeekICS — 周课程安排导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportWeekICS(ctx context.Context, studentID, termID string, weekNumber int) (*bytes.Buffer, string, error) {
	slots, term, err := s.loadWeek(ctx, studentID, termID, weekNumber)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//paceclass//schedule//CN")

	for i := range slots {
		slot := &slots[i]
		evt := cal.AddEvent(slot.SlotID)
		evt.SetStartAt(slot.LessonStart)
		evt.SetEndAt(slot.LessonEnd)
		title := "课程"
		if slot.Subject != nil {
			title = slot.Subject.Name
		}
		if slot.Topic != nil {
			title += " · " + slot.Topic.Title
		}
		evt.SetSummary(title)
		if slot.MissingTopic {
			evt.SetDescription("课题待指派")
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("%s_第%d周课程安排.ics", term.Name, weekNumber)
	return buf, filename, nil
}

// loadWeek 取学生某周时段与学期，空周报业务错误
func (s *exportService) loadWeek(ctx context.Context, studentID, termID string, weekNumber int) ([]model.ScheduleSlot, *model.Term, error) {
	term, err := s.repo.Term.GetByID(ctx, termID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("term_id", termID), zap.Error(err))
		return nil, nil, err
	}
	slots, err := s.repo.ScheduleSlot.ListByStudentWeek(ctx, studentID, termID, weekNumber)
	if err != nil {
		s.logger.Error("查询课程安排失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, nil, err
	}
	if len(slots) == 0 {
		return nil, nil, ErrExportNoSlots
	}
	return slots, term, nil
}
