package memory

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	invoicePrefix = "INV"
	driverPrefix  = "DRIVER"
	stockPrefix   = "STK"
)

func formatID(prefix string, n int64) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

func parseSequence(prefix string, id string) (int64, bool) {
	digits, ok := strings.CutPrefix(id, prefix)
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// highestSequence returns the largest numeric suffix among ids carrying prefix.
func highestSequence(prefix string, ids ...[]string) int64 {
	var highest int64
	for _, group := range ids {
		for _, id := range group {
			if n, ok := parseSequence(prefix, id); ok && n > highest {
				highest = n
			}
		}
	}
	return highest
}
