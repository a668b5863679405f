package tracking

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Fingerprint hashes the visitor signals used for deduplication.
// It is a coarse 32-bit rolling hash (h*31 + c over UTF-16 code units),
// rendered as the base-36 absolute value. Not a security boundary.
func Fingerprint(ip string, device DeviceInfo, acceptLanguage, acceptEncoding string) string {
	s := strings.Join([]string{ip, device.Device, device.OS, device.Browser, acceptLanguage, acceptEncoding}, "|")
	return rollingHash(s)
}

func rollingHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
