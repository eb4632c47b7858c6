package service

import (
	"errors"
	"strings"
	"time"

	"paceclass/backend/internal/model"
)

// ── 学期周历 ──────────────────────────────────────────────
//
// 周次为 1 起的索引：第 week 周覆盖
// [start + 7*(week-1), start + 7*(week-1) + 6]，与学期起始的
// 星期几无关（不做对齐到周一的修正）。
// ─────────────────────────────────────────────────────────────

// 单一机构时区（见 Non-goals：不支持多时区排课）
const institutionTimezone = "Asia/Shanghai"

var (
	// ErrWeekOutOfRange 周次超出学期范围
	ErrWeekOutOfRange = errors.New("周次超出学期范围")
	// ErrDateOutsideTerm 日期不在学期内
	ErrDateOutsideTerm = errors.New("日期不在学期范围内")
	// ErrUnknownWeekday 无法识别的星期名
	ErrUnknownWeekday = errors.New("无法识别的星期名")
)

// institutionLocation 加载机构时区，加载失败降级为 UTC
func institutionLocation() *time.Location {
	loc, err := time.LoadLocation(institutionTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// weekdayNames 课表星期名 → 周内偏移（0 = 该周首日）
var weekdayNames = map[string]int{
	"MONDAY":    0,
	"TUESDAY":   1,
	"WEDNESDAY": 2,
	"THURSDAY":  3,
	"FRIDAY":    4,
	"SATURDAY":  5,
	"SUNDAY":    6,
}

// ParseWeekday 解析 "MONDAY" 形式的星期名为周内偏移
func ParseWeekday(name string) (int, error) {
	offset, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, ErrUnknownWeekday
	}
	return offset, nil
}

// WeekRange 返回第 week 周的日期范围 [first, last]（零点，机构时区）
func WeekRange(term *model.Term, week int) (time.Time, time.Time, error) {
	if week < 1 || week > term.WeekCount {
		return time.Time{}, time.Time{}, ErrWeekOutOfRange
	}
	loc := institutionLocation()
	start := term.StartDate.In(loc)
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, 7*(week-1))
	last := first.AddDate(0, 0, 6)
	return first, last, nil
}

// DateOf 将 (周次, 星期名) 解析为具体日期
func DateOf(term *model.Term, week int, weekdayName string) (time.Time, error) {
	offset, err := ParseWeekday(weekdayName)
	if err != nil {
		return time.Time{}, err
	}
	first, _, err := WeekRange(term, week)
	if err != nil {
		return time.Time{}, err
	}
	return first.AddDate(0, 0, offset), nil
}

// WeekOf 反向映射：日期 → 周次
func WeekOf(term *model.Term, date time.Time) (int, error) {
	loc := institutionLocation()
	start := term.StartDate.In(loc)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	d := date.In(loc)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)

	days := int(day.Sub(startDay).Hours() / 24)
	if days < 0 {
		return 0, ErrDateOutsideTerm
	}
	week := days/7 + 1
	if week > term.WeekCount {
		return 0, ErrDateOutsideTerm
	}
	return week, nil
}
