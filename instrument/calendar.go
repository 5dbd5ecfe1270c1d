package instrument

import (
	"sort"
	"time"
)

const dateLayout = "20060102"

// Calendar 交易日历
type Calendar struct {
	dates []string        // 升序交易日列表
	index map[string]int  // 交易日 → 下标
}

// NewCalendar 创建交易日历，dates 无需预先排序
func NewCalendar(dates []string) *Calendar {
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, d := range sorted {
		index[d] = i
	}
	return &Calendar{dates: sorted, index: index}
}

// IsTradeDate 判断是否交易日
func (c *Calendar) IsTradeDate(date string) bool {
	_, ok := c.index[date]
	return ok
}

// NextTradeDate 取 date 之后第 n 个交易日（date 本身可为自然日），
// 超出日历范围返回空串
func (c *Calendar) NextTradeDate(date string, n int) string {
	// 第一个大于 date 的交易日下标
	i := sort.SearchStrings(c.dates, date)
	if i < len(c.dates) && c.dates[i] == date {
		i++
	}
	i += n - 1
	if i < 0 || i >= len(c.dates) {
		return ""
	}
	return c.dates[i]
}

// PrevTradeDate 取 date 之前第 n 个交易日，超出范围返回空串
func (c *Calendar) PrevTradeDate(date string, n int) string {
	i := sort.SearchStrings(c.dates, date) - n
	if i < 0 || i >= len(c.dates) {
		return ""
	}
	return c.dates[i]
}

// NextNaturalDate 自然日加 n 天
func NextNaturalDate(date string, n int) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(dateLayout)
}

// NaturalDatesBetween 返回 [start, end] 闭区间内的全部自然日
func NaturalDatesBetween(start, end string) []string {
	st, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil
	}
	et, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil
	}

	var out []string
	for !st.After(et) {
		out = append(out, st.Format(dateLayout))
		st = st.AddDate(0, 0, 1)
	}
	return out
}

// Weekday 返回自然日的星期（周一=1 ... 周日=7）
func Weekday(date string) int {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0
	}
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
