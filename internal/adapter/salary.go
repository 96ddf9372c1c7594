package adapter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amishk599/jobfeed/internal/model"
)

// FormatSalary renders a compensation range as "$<min>k - $<max>k", rounding
// each bound to the nearest thousand (halves round up). Only the leading
// integer of each input is read, so "70000.99" and "70000 USD" both count as
// 70000. If either bound has no leading integer the result is "N/A".
func FormatSalary(minPay, maxPay string) string {
	lo, ok := parseLeadingInt(minPay)
	if !ok {
		return model.NotAvailable
	}
	hi, ok := parseLeadingInt(maxPay)
	if !ok {
		return model.NotAvailable
	}
	return fmt.Sprintf("$%dk - $%dk", roundThousands(lo), roundThousands(hi))
}

func roundThousands(v int64) int64 {
	return int64(math.Floor(float64(v)/1000 + 0.5))
}

// parseLeadingInt reads an optional sign and the run of decimal digits at the
// start of s, after leading whitespace.
func parseLeadingInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
