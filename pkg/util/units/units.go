// Package units formats and parses human-readable quantities.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
)

const humanSizeBase = 1000.0

var (
	siUnit = []string{"", "k", "M", "G", "T", "P", "E", "Z", "Y"}
)

// ToHumanSizeStringWithoutUnit formats size with SI prefixes, for instance
// 1500 as "1.5k".
func ToHumanSizeStringWithoutUnit(size float64, precision int) string {
	fmt := "%." + strconv.Itoa(precision) + "g%s"
	return units.CustomSize(fmt, size, humanSizeBase, siUnit)
}

// ToRateString formats n events over d as a per-second rate such as
// "1.5k/s".
func ToRateString(n int64, d time.Duration, precision int) string {
	if d <= 0 {
		return "0/s"
	}
	return ToHumanSizeStringWithoutUnit(float64(n)/d.Seconds(), precision) + "/s"
}

// FromByteSizeString parses sizeString, either in SI ("32MB") or IEC
// ("32MiB") form, and returns the number of bytes. It fails if the size is
// out of [min, max] given by minMax, [0, MaxInt64] by default.
func FromByteSizeString(sizeString string, minMax ...int64) (size int64, err error) {
	sep := strings.LastIndexAny(sizeString, "01234567890. ")
	if sep == -1 {
		return -1, fmt.Errorf("invalid size: '%s'", sizeString)
	}

	sfx := sizeString[sep+1:]
	if strings.ContainsAny(sfx, "i") {
		size, err = units.RAMInBytes(sizeString)
	} else {
		size, err = units.FromHumanSize(sizeString)
	}
	if err != nil {
		return -1, err
	}

	min, max := int64(0), int64(math.MaxInt64)
	if len(minMax) > 0 {
		min = minMax[0]
	}
	if len(minMax) > 1 {
		max = minMax[1]
	}
	if size < min || size > max {
		return -1, fmt.Errorf("invalid size %s", sizeString)
	}
	return size, nil
}
