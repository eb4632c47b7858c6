package handler

import "paceclass/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Term       *TermHandler
	Timetable  *TimetableHandler
	Schedule   *ScheduleHandler
	Progress   *ProgressHandler
	Assessment *AssessmentHandler
	Statistics *StatisticsHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Term:       NewTermHandler(svc.Term),
		Timetable:  NewTimetableHandler(svc.Timetable, svc.Conflict),
		Schedule:   NewScheduleHandler(svc.Schedule),
		Progress:   NewProgressHandler(svc.Progress),
		Assessment: NewAssessmentHandler(svc.Assessment),
		Statistics: NewStatisticsHandler(svc.Statistics),
		Export:     NewExportHandler(svc.Export),
	}
}
