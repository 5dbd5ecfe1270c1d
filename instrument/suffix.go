package instrument

import (
	"strconv"
	"strings"
)

// 引擎后缀与交易所代码的映射
var (
	suffixToExchange = map[string]string{
		"CFE": "CFFEX",
		"CZC": "CZCE",
		"SHF": "SHFE",
		"DCE": "DCE",
		"INE": "INE",
		"GFE": "GFEX",
	}
	exchangeToSuffix = map[string]string{
		"CFFEX": "CFE",
		"CZCE":  "CZC",
		"SHFE":  "SHF",
		"DCE":   "DCE",
		"INE":   "INE",
		"GFEX":  "GFE",
	}
)

// SplitSymbol 拆分合约代码为本体与后缀，如 "IF2001.CFE" → ("IF2001", "CFE")
func SplitSymbol(symbol string) (code, suffix string) {
	idx := strings.LastIndex(symbol, ".")
	if idx < 0 {
		return symbol, ""
	}
	return symbol[:idx], symbol[idx+1:]
}

// ExchangeOfSuffix 引擎后缀转交易所代码，未知后缀原样返回
func ExchangeOfSuffix(suffix string) string {
	if ex, ok := suffixToExchange[suffix]; ok {
		return ex
	}
	return suffix
}

// SuffixOfExchange 交易所代码转引擎后缀，未知交易所原样返回
func SuffixOfExchange(exchange string) string {
	if sf, ok := exchangeToSuffix[exchange]; ok {
		return sf
	}
	return exchange
}

// ToBrokerCode 引擎合约代码转柜台报单代码
//
// 上期所、大商所、能源中心使用小写本体；郑商所去掉年份首位
// （AP2001 → AP001）；中金所原样。返回报单代码与交易所代码。
func ToBrokerCode(symbol string) (code, exchange string) {
	body, suffix := SplitSymbol(symbol)
	exchange = ExchangeOfSuffix(suffix)

	switch suffix {
	case "SHF", "DCE", "INE":
		code = strings.ToLower(body)
	case "CZC":
		code = stripCzcYear(body)
	default:
		code = body
	}
	return code, exchange
}

// stripCzcYear 去掉郑商所四位年月中的年份首位
func stripCzcYear(body string) string {
	// 找到第一个数字位置
	i := 0
	for i < len(body) && (body[i] < '0' || body[i] > '9') {
		i++
	}
	// 四位年月去掉首位
	if len(body)-i == 4 {
		return body[:i] + body[i+1:]
	}
	return body
}

// FromBrokerCode 柜台报单代码还原为引擎合约代码
//
// tradeDate 为当前交易日 yyyyMMdd，郑商所三位年月需要借助当前
// 年份补回缺失的年份十位：AP001 在 20200103 还原为 AP2001.CZC，
// AP912 还原为 AP1912.CZC（取与当前年份最接近的候选）。
func FromBrokerCode(code, exchange, tradeDate string) string {
	suffix := SuffixOfExchange(exchange)
	body := code

	switch suffix {
	case "SHF", "DCE", "INE":
		body = strings.ToUpper(code)
	case "CZC":
		body = restoreCzcYear(code, tradeDate)
	}
	return body + "." + suffix
}

// restoreCzcYear 还原郑商所年份首位
func restoreCzcYear(code, tradeDate string) string {
	i := 0
	for i < len(code) && (code[i] < '0' || code[i] > '9') {
		i++
	}
	if len(code)-i != 3 || len(tradeDate) < 4 {
		return code
	}

	yyNow, err := strconv.Atoi(tradeDate[2:4])
	if err != nil {
		return code
	}
	d := int(code[i] - '0')
	tens := yyNow / 10

	// 候选年份取本十年与相邻十年，选距当前年份最近者（平手取靠后）
	best := tens*10 + d
	for _, cand := range []int{(tens-1)*10 + d, (tens+1)*10 + d} {
		if cand < 0 || cand > 99 {
			continue
		}
		db, dc := abs(best-yyNow), abs(cand-yyNow)
		if dc < db || (dc == db && cand > best) {
			best = cand
		}
	}

	return code[:i] + strconv.Itoa(best/10) + code[i:]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
