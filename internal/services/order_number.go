package services

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultOrderNumberPrefix = "MLZ"
	orderNumberSuffixLen     = 4
	base36Digits             = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// OrderNumberGenerator produces human-readable order numbers of the form
// PREFIX-<base36 unix millis>-<4 base36 random chars>, all upper case.
// Numbers are practically unique; the database enforces uniqueness.
type OrderNumberGenerator struct {
	Prefix string
	Now    func() time.Time
}

// NewOrderNumberGenerator returns a generator using prefix, or MLZ if prefix is empty.
func NewOrderNumberGenerator(prefix string) *OrderNumberGenerator {
	if prefix == "" {
		prefix = DefaultOrderNumberPrefix
	}
	return &OrderNumberGenerator{Prefix: prefix, Now: time.Now}
}

// Next returns a fresh order number.
func (g *OrderNumberGenerator) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	stamp := strings.ToUpper(strconv.FormatInt(now().UnixMilli(), 36))
	return g.Prefix + "-" + stamp + "-" + randomBase36(orderNumberSuffixLen)
}

// randomBase36 takes n upper-case base36 digits from a single random draw.
func randomBase36(n int) string {
	var b [8]byte
	rand.Read(b[:]) // never fails as of Go 1.24
	v := binary.BigEndian.Uint64(b[:])

	out := make([]byte, n)
	for i := range out {
		out[i] = base36Digits[v%36]
		v /= 36
	}
	return string(out)
}
