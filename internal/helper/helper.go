package helper

import (
	"strconv"
	"strings"
	"time"
)

// NormTF приводит таймфрейм к каноническому виду "{n}m"/"{n}h"/"{n}d"/"{n}w".
// Принимает числовые минуты ("5", 15 -> "5m", "15m"), сокращения ("15min",
// "1hr") и словесные формы ("2 hours", "1 day"). Рендер буквальный, единицы не
// повышаются: "60" и "60m" остаются "60m", а не "1h". Пустой вход возвращает "".
func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	if s == "" {
		return ""
	}

	// голые цифры — минуты
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return ""
		}
		s = strconv.Itoa(n) + "m"
	}

	s = strings.ReplaceAll(s, " ", "")

	for _, u := range []struct {
		suffixes []string
		unit     string
	}{
		{[]string{"minutes", "minute", "mins", "min", "m"}, "m"},
		{[]string{"hours", "hour", "hrs", "hr", "h"}, "h"},
		{[]string{"days", "day", "d"}, "d"},
		{[]string{"weeks", "week", "w"}, "w"},
	} {
		for _, suf := range u.suffixes {
			if !strings.HasSuffix(s, suf) {
				continue
			}
			num := strings.TrimSuffix(s, suf)
			if num == "" {
				num = "1"
			}
			n, err := strconv.Atoi(num)
			if err != nil || n <= 0 {
				continue
			}
			return strconv.Itoa(n) + u.unit
		}
	}

	return ""
}

// NormTFMinutes — числовые минуты в канонический таймфрейм.
func NormTFMinutes(n int) string {
	if n <= 0 {
		return ""
	}
	return NormTF(strconv.Itoa(n))
}

// DedupKey — ключ партиции дедупликации.
func DedupKey(symbol, direction, timeframe string, isTest bool) string {
	k := symbol + ":" + direction + ":" + timeframe
	if isTest {
		k += ":test"
	}
	return k
}

// EpochToTime — epoch seconds либо millis; граница 1e12 (миллисекунды с 2001 года
// всегда больше, секунды до 33658 года всегда меньше).
func EpochToTime(v float64) time.Time {
	if v >= 1e12 {
		return time.UnixMilli(int64(v))
	}
	return time.Unix(int64(v), 0)
}
