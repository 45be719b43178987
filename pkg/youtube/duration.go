package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

var isoDurationRX = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts a YouTube content duration such as "PT1H2M3S" to
// seconds. Unparseable input is 0.
func ParseISODuration(s string) int {
	m := isoDurationRX.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n := func(i int) int {
		v, _ := strconv.Atoi(m[i])
		return v
	}
	return n(1)*86400 + n(2)*3600 + n(3)*60 + n(4)
}

// FormatDuration renders seconds as MM:SS, or HH:MM:SS from one hour up.
func FormatDuration(seconds int) string {
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
