package dice

import (
	"crypto/rand"
	"math/big"
	"sync"
)

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand. It is the default
// for live worlds.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn panics when n <= 0 or crypto/rand fails.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// FixedSource replays Values in order, wrapping around, each reduced modulo
// n. Tests use it to script resets and damage rolls.
type FixedSource struct {
	Values []int

	mu   sync.Mutex
	next int
}

// Intn returns the next queued value modulo n.
//
// Precondition: n > 0 and len(Values) > 0.
func (f *FixedSource) Intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return ((v % n) + n) % n
}
