package util

import (
	"context"
	"fmt"
	log "log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
)

// endOfDay 当天最后一微秒，MySQL DATETIME(6) 的最高精度
const endOfDay = 24*time.Hour - time.Microsecond

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Window 闭区间 [Start, End]，零值的一端表示不限
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) HasStart() bool { return !w.Start.IsZero() }
func (w Window) HasEnd() bool   { return !w.End.IsZero() }

// Contains 判断时间点是否落在窗口内（两端都包含）
func (w Window) Contains(t time.Time) bool {
	if w.HasStart() && t.Before(w.Start) {
		return false
	}
	if w.HasEnd() && t.After(w.End) {
		return false
	}
	return true
}

// DateParser 解析过滤条件里的日期，ISO 格式直接解析，其余交给自然语言日期解析
type DateParser struct {
	languages []string
	loc       *time.Location
	now       func() time.Time
}

func NewDateParser(languages []string, loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.Local
	}
	return &DateParser{
		languages: languages,
		loc:       loc,
		now:       time.Now,
	}
}

// ParseDay 返回该日 00:00:00
func (p *DateParser) ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if isoDate.MatchString(s) {
		t, err := time.ParseInLocation(time.DateOnly, s, p.loc)
		if err == nil {
			return t, nil
		}
	}

	cfg := &dps.Configuration{
		Languages:       p.languages,
		DefaultTimezone: p.loc,
		CurrentTime:     p.now().In(p.loc),
	}
	dt, err := dps.Parse(cfg, s)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, fmt.Errorf("%w: cannot parse date %q", apperrors.ErrValidation, s)
	}
	t := dt.Time.In(p.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc), nil
}

// ParseClock 解析 HH:MM 或 HH，返回距当天零点的时长
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return 0, fmt.Errorf("invalid clock %q", s)
	}

	limits := []int{23, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
		d += time.Duration(n) * units[i]
	}
	return d, nil
}

// DayWindow 单日窗口。给出 time_from/time_to 时收窄到该时段，结束早于开始视为跨零点；
// 时间格式不对时退回整天
func (p *DateParser) DayWindow(ctx context.Context, date, timeFrom, timeTo string) (Window, error) {
	day, err := p.ParseDay(date)
	if err != nil {
		return Window{}, err
	}
	whole := Window{Start: day, End: day.Add(endOfDay)}

	if timeFrom == "" && timeTo == "" {
		return whole, nil
	}

	w := whole
	if timeFrom != "" {
		from, err := ParseClock(timeFrom)
		if err != nil {
			log.WarnContext(ctx, "时间格式错误，按整天处理", "time_from", timeFrom, "err", err)
			return whole, nil
		}
		w.Start = day.Add(from)
	}
	if timeTo != "" {
		to, err := ParseClock(timeTo)
		if err != nil {
			log.WarnContext(ctx, "时间格式错误，按整天处理", "time_to", timeTo, "err", err)
			return whole, nil
		}
		w.End = day.Add(to)
	}
	if w.End.Before(w.Start) {
		w.End = w.End.AddDate(0, 0, 1)
	}
	return w, nil
}

// RangeWindow [from 00:00:00, to 23:59:59.999999]，缺少的一端不限
func (p *DateParser) RangeWindow(from, to string) (Window, error) {
	var w Window
	if from != "" {
		start, err := p.ParseDay(from)
		if err != nil {
			return Window{}, err
		}
		w.Start = start
	}
	if to != "" {
		end, err := p.ParseDay(to)
		if err != nil {
			return Window{}, err
		}
		w.End = end.Add(endOfDay)
	}
	return w, nil
}
