package submission

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Format describes a reference code: PREFIX-<unix ms>[-<9 chars>] or, with
// Base36, PREFIX-<unix ms in upper base36>.
type Format struct {
	Prefix string `json:"prefix"`
	Suffix bool   `json:"suffix"`
	Base36 bool   `json:"base36"`
}

// ReferenceGenerator issues human-readable confirmation codes. Codes from one
// generator never repeat: the millisecond component strictly increases.
type ReferenceGenerator struct {
	mu     sync.Mutex
	lastMS int64
	clock  func() time.Time
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{clock: time.Now}
}

func (g *ReferenceGenerator) Generate(f Format) string {
	g.mu.Lock()
	ms := g.clock().UnixMilli()
	if ms <= g.lastMS {
		ms = g.lastMS + 1
	}
	g.lastMS = ms
	g.mu.Unlock()

	return render(f, ms)
}

func render(f Format, ms int64) string {
	var b strings.Builder
	b.WriteString(f.Prefix)
	b.WriteByte('-')
	if f.Base36 {
		b.WriteString(strings.ToUpper(strconv.FormatInt(ms, 36)))
	} else {
		b.WriteString(strconv.FormatInt(ms, 10))
	}
	if f.Suffix {
		b.WriteByte('-')
		b.WriteString(RandomString(9))
	}
	return b.String()
}

// RandomString returns n characters from [A-Z0-9].
func RandomString(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = suffixAlphabet[time.Now().UnixNano()%int64(len(suffixAlphabet))]
			continue
		}
		out[i] = suffixAlphabet[idx.Int64()]
	}
	return string(out)
}
