package services

import (
	"strconv"
	"time"

	"github.com/gosimple/slug"
)

// Slugify turns name into a lowercase ASCII slug. Turkish letters get their
// Turkish transliteration, every other letter is transliterated generically.
func Slugify(name string) string {
	return slug.MakeLang(name, "tr")
}

// uniqueSlug appends a base36 timestamp so renamed products never collide.
func uniqueSlug(name string, now time.Time) string {
	suffix := strconv.FormatInt(now.UnixMilli(), 36)
	if base := Slugify(name); base != "" {
		return base + "-" + suffix
	}
	return suffix
}
