package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ── 时刻解析 ──────────────────────────────────────────────
//
// 职责：将课表中异构的时刻字符串解析为统一的 ClockTime。
// 来源数据既有 24 小时制（"09:00"、"9:00"）也有 12 小时制
// （"2:30 PM"、"2:30pm"），一律按格式列表顺序尝试，首个成功为准。
// 解析失败返回 ErrUnparseableTime，调用方跳过该条目而非中断。
// ─────────────────────────────────────────────────────────────

// ErrUnparseableTime 无法识别的时刻格式
var ErrUnparseableTime = errors.New("无法解析的时间格式")

// clockLayouts 按尝试顺序排列的时刻格式
var clockLayouts = []string{
	"15:04",
	"3:04 PM",
	"3:04PM",
	"15:04:05",
}

// ClockTime 一天内的时刻，以零点起的分钟数表示
// 区间比较直接用整数比较，避免 time.Time 的日期语义干扰
type ClockTime int

// ParseClockTime 解析时刻字符串
func ParseClockTime(raw string) (ClockTime, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrUnparseableTime
	}
	// 12 小时制的 am/pm 统一为大写以匹配 Go 布局
	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, upper)
		if err != nil {
			continue
		}
		return ClockTime(t.Hour()*60 + t.Minute()), nil
	}
	return 0, ErrUnparseableTime
}

// Minutes 零点起的分钟数
func (c ClockTime) Minutes() int { return int(c) }

// String 规范化为 24 小时制 "HH:MM"
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// At 将时刻落到指定日期，返回该时区下的完整时间戳
func (c ClockTime) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}
