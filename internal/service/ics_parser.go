package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"paceclass/backend/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将 iCalendar (RFC 5545) 内容解析为周课表条目。
// 个人周课表是"星期几 + 时刻"的模板，与具体周次无关，因此只取
// 每个 VEVENT 的 DTSTART/DTEND 推导星期与时间，忽略 RRULE 的周次
// 语义；同 (科目, 星期, 时间) 的重复事件合并为一条。
// 缺 SUMMARY 或时间无法解析的事件跳过并记入 warnings。
// ─────────────────────────────────────────────────────────────

const icsMaxFileSize = 5 * 1024 * 1024 // 5MB

// icsWeekdayNames Go time.Weekday → 课表星期名
var icsWeekdayNames = [7]string{
	"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY",
}

// ParseTimetableICS 解析 ICS 内容为课表条目（未入库，source 统一为 ics）
func ParseTimetableICS(reader io.Reader, studentID string) ([]model.TimetableEntry, []string, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	loc := institutionLocation()

	type entryKey struct {
		subject string
		day     string
		start   string
		end     string
	}
	seen := make(map[entryKey]bool)

	var entries []model.TimetableEntry
	var warnings []string

	for _, evt := range cal.Events() {
		summary := evt.GetProperty(ics.ComponentPropertySummary)
		if summary == nil || strings.TrimSpace(summary.Value) == "" {
			warnings = append(warnings, "跳过无标题事件")
			continue
		}
		name := strings.TrimSpace(summary.Value)

		dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("事件 %s 开始时间无法解析", name))
			continue
		}
		dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("事件 %s 结束时间无法解析", name))
			continue
		}

		key := entryKey{
			subject: name,
			day:     icsWeekdayNames[dtStart.Weekday()],
			start:   dtStart.Format("15:04"),
			end:     dtEnd.Format("15:04"),
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		entries = append(entries, model.TimetableEntry{
			StudentID:   studentID,
			DayOfWeek:   key.day,
			SubjectName: name,
			StartTime:   key.start,
			EndTime:     key.end,
			Source:      "ics",
		})
	}
	return entries, warnings, nil
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
