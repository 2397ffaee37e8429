package media

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatFileSize renders bytes in decimal (1000-based) units rounded to
// decimals places, without trailing zeros: 2048 -> "2.05 KB".
func FormatFileSize(bytes int64, decimals int) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	if decimals <= 0 {
		decimals = 2
	}

	value := float64(bytes)
	index := 0
	for value >= 1000 && index < len(sizeUnits)-1 {
		value /= 1000
		index++
	}

	scale := math.Pow(10, float64(decimals))
	value = math.Round(value*scale) / scale

	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[index]
}
