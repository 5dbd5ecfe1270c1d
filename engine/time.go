package engine

import (
	"fmt"

	"pandaquant/config"
	"pandaquant/event"
	"pandaquant/instrument"
)

// TimeManager 回测时间驱动
//
// 沿自然日推进，交易日依次发 NEW_DATE、DAY_START、K线驱动、
// END_DATE。日线模式每个交易日一根K线：开盘价撮合在 09:30 驱动，
// 收盘价撮合在 15:00 驱动。分钟模式按交易时段逐分钟驱动，期货
// 账户附带夜盘时段，夜盘结束发 NIGHT_END。
type TimeManager struct {
	bus      *event.Bus
	calendar *instrument.Calendar
	run      *config.RunConfig

	// OnDayDone 每个交易日结束后的进度回调
	OnDayDone func(tradeDate string, done, total int)
}

// NewTimeManager 创建时间驱动器
func NewTimeManager(bus *event.Bus, calendar *instrument.Calendar, run *config.RunConfig) *TimeManager {
	return &TimeManager{bus: bus, calendar: calendar, run: run}
}

// Run 推进整个回测区间
func (t *TimeManager) Run() error {
	if t.run.StartDate == "" || t.run.EndDate == "" || t.run.StartDate > t.run.EndDate {
		return fmt.Errorf("回测区间不合法: %s ~ %s", t.run.StartDate, t.run.EndDate)
	}
	if t.run.Frequency != "1d" && minuteStep(t.run.Frequency) == 0 {
		return fmt.Errorf("不支持的K线频率: %s", t.run.Frequency)
	}

	dates := instrument.NaturalDatesBetween(t.run.StartDate, t.run.EndDate)
	total := 0
	for _, d := range dates {
		if t.calendar.IsTradeDate(d) {
			total++
		}
	}

	done := 0
	for _, date := range dates {
		if !t.calendar.IsTradeDate(date) {
			// 自然日推进模式在非交易日也换日，策略时钟按自然日走
			if t.run.DateType == 1 {
				t.bus.Publish(event.New(event.SystemNewDate, "date", date))
			}
			continue
		}
		t.runTradeDate(date)
		done++
		if t.OnDayDone != nil {
			t.OnDayDone(date, done, total)
		}
	}
	return nil
}

// runTradeDate 推进单个交易日
func (t *TimeManager) runTradeDate(date string) {
	t.bus.Publish(event.New(event.SystemNewDate, "date", date))
	t.bus.Publish(event.New(event.SystemDayStart, "date", date))

	if step := minuteStep(t.run.Frequency); step > 0 {
		for _, hms := range t.minuteStamps(step) {
			t.bus.Publish(event.New(event.SystemHandleBar,
				"date", date, "hms", hms, "trigger", true))
		}
	} else {
		// 日线：开盘价撮合在开盘时点驱动，收盘价撮合在收盘时点驱动
		hms := "150000"
		if t.run.MatchingType == 1 {
			hms = "093000"
		}
		t.bus.Publish(event.New(event.SystemHandleBar,
			"date", date, "hms", hms, "trigger", true))
	}

	t.bus.Publish(event.New(event.SystemEndDate, "date", date))

	if minuteStep(t.run.Frequency) > 0 && t.run.AccountType != config.AccountTypeStock {
		t.bus.Publish(event.New(event.SystemNightEnd, "date", date))
	}
}

// minuteStep 分钟级频率的驱动间隔，非分钟级频率返回 0
func minuteStep(freq string) int {
	switch freq {
	case "1m":
		return 1
	case "5m":
		return 5
	case "15m":
		return 15
	case "30m":
		return 30
	case "1h":
		return 60
	}
	return 0
}

// minuteStamps 分钟驱动时刻表，按频率间隔在K线收线时点驱动
//
// 期货账户含夜盘 21:01~23:59 与 00:00~02:30，日盘自 09:01 起；
// 股票账户仅 09:31~11:30 与 13:01~15:00。
func (t *TimeManager) minuteStamps(step int) []string {
	var out []string
	if t.run.AccountType != config.AccountTypeStock {
		out = appendStamps(out, 21, 1, 23, 59, step)
		out = appendStamps(out, 0, 0, 2, 30, step)
		out = appendStamps(out, 9, 1, 11, 30, step)
	} else {
		out = appendStamps(out, 9, 31, 11, 30, step)
	}
	return appendStamps(out, 13, 1, 15, 0, step)
}

// appendStamps 追加 [h1:m1, h2:m2] 闭区间内按 step 分钟取样的时刻，
// 自时段起点计数，取每段第 step、2×step … 分钟
func appendStamps(out []string, h1, m1, h2, m2, step int) []string {
	n := 0
	for h := h1; h <= h2; h++ {
		start, end := 0, 59
		if h == h1 {
			start = m1
		}
		if h == h2 {
			end = m2
		}
		for m := start; m <= end; m++ {
			n++
			if n%step == 0 {
				out = append(out, fmt.Sprintf("%02d%02d00", h, m))
			}
		}
	}
	return out
}
