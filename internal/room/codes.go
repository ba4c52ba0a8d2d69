package room

import (
	"fmt"
	"math/rand"
	"regexp"
)

const (
	minRoomCode     = 1000
	maxRoomCode     = 9999
	maxCodeAttempts = 100
)

var roomCodePattern = regexp.MustCompile(`^\d{4}$`)

// CodeAllocator draws candidate room codes uniformly from 1000-9999.
// Collision checks are the caller's job.
type CodeAllocator struct {
	intN func(n int) int
}

// NewCodeAllocator uses intN as the random source; nil selects math/rand.
func NewCodeAllocator(intN func(n int) int) *CodeAllocator {
	if intN == nil {
		intN = rand.Intn
	}
	return &CodeAllocator{intN: intN}
}

func (a *CodeAllocator) Next() string {
	return fmt.Sprintf("%04d", minRoomCode+a.intN(maxRoomCode-minRoomCode+1))
}

// ValidCode reports whether code is a four-digit decimal string.
func ValidCode(code string) bool {
	return roomCodePattern.MatchString(code)
}

func validateCode(code string) error {
	if !ValidCode(code) {
		return fmt.Errorf("%w: room code must be 4 digits", ErrValidation)
	}
	return nil
}
