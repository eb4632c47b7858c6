package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paceclass/backend/config"
	"paceclass/backend/internal/api/handler"
	"paceclass/backend/internal/api/middleware"
	"paceclass/backend/internal/model"
	"paceclass/backend/pkg/jwt"
	"paceclass/backend/pkg/redis"
)

// maxBodyBytes 请求体上限；ICS 导入接口会携带整份日历文本
const maxBodyBytes = 6 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.RateLimit(rdb, 120, time.Minute))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// rdb 为 nil 时黑名单检查降级
	var blacklist middleware.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	staffOnly := middleware.RoleAuth(model.RoleTeacher, model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, blacklist))
	{
		// 学期模块
		terms := v1.Group("/terms")
		{
			terms.GET("", h.Term.ListTerms)
			terms.GET("/active", h.Term.GetActiveTerm)
			terms.GET("/:id", h.Term.GetTerm)
			terms.GET("/:id/weeks", h.Term.GetTermWeeks)
			terms.POST("", staffOnly, h.Term.CreateTerm)
			terms.PUT("/:id", staffOnly, h.Term.UpdateTerm)
			terms.PUT("/:id/activate", middleware.RoleAuth(model.RoleAdmin), h.Term.ActivateTerm)
			terms.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Term.DeleteTerm)
		}

		// 学生维度路由（课表 / 排课 / 进度 / 评估 / 导出）
		students := v1.Group("/students/:id")
		{
			students.GET("/timetable", h.Timetable.GetTimetable)
			students.PUT("/timetable", h.Timetable.ReplaceTimetable)
			students.POST("/timetable/entries", h.Timetable.CreateEntry)
			students.POST("/timetable/import-ics", h.Timetable.ImportICS)
			students.GET("/timetable/conflicts", h.Timetable.GetConflictReport)

			students.POST("/schedule/generate", h.Schedule.GenerateWeek)
			students.GET("/schedule", h.Schedule.GetWeek)
			students.GET("/schedule/range", h.Schedule.ListByDateRange)
			students.GET("/schedule/export/xlsx", h.Export.ExportWeekXLSX)
			students.GET("/schedule/export/ics", h.Export.ExportWeekICS)

			students.GET("/progress", h.Progress.ListProgress)
			students.GET("/assessments", h.Assessment.ListAssessments)
		}

		// 课表条目（按条目 ID 操作）
		entries := v1.Group("/timetable-entries")
		{
			entries.PUT("/:id", h.Timetable.UpdateEntry)
			entries.DELETE("/:id", h.Timetable.DeleteEntry)
		}

		// 进度台账
		progress := v1.Group("/progress")
		{
			progress.GET("/:id/access", h.Progress.GetAccessState)
			progress.POST("/:id/complete", h.Progress.MarkComplete)
			progress.POST("/:id/incomplete", h.Progress.MarkIncomplete)
			progress.POST("/:id/clear-incomplete", staffOnly, h.Progress.ClearIncomplete)
		}

		// 班级统一课与课题补挂（教师/管理员）
		v1.POST("/class-slots", staffOnly, h.Schedule.CreateClassSlot)
		v1.POST("/slots/attach-topic", staffOnly, h.Progress.AttachTopic)

		// 自定义评估
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", staffOnly, h.Assessment.CreateAssessment)
			assessments.POST("/submit", h.Assessment.SubmitAssessment)
		}

		// 统计
		statistics := v1.Group("/statistics")
		{
			statistics.GET("/students/:id", h.Statistics.GetStudentStats)
			statistics.GET("/classes/:id", staffOnly, h.Statistics.GetClassStats)
			statistics.GET("/system", staffOnly, h.Statistics.GetSystemStats)
		}
	}

	return r
}
