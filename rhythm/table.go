package rhythm

import (
	"math/bits"
	"strings"

	"github.com/robmorgan/euclid/utils"
)

const (
	// StepCount is the fixed resolution of every pattern.
	StepCount = 16

	// MaxHits is the highest rhythm index; the table holds MaxHits+1 patterns.
	MaxHits = StepCount
)

// Pattern is a StepCount-bit mask; bit i set means the channel fires at step i.
type Pattern uint16

// euclid16 holds the maximally even distribution of k hits over 16 steps at index k,
// with step 0 in the least significant bit.
var euclid16 = [MaxHits + 1]Pattern{
	0x0000, // ................
	0x0001, // x...............
	0x0101, // x.......x.......
	0x0421, // x....x....x.....
	0x1111, // x...x...x...x...
	0x1249, // x..x..x..x..x...
	0x2929, // x..x.x..x..x.x..
	0x54A9, // x..x.x.x..x.x.x.
	0x5555, // x.x.x.x.x.x.x.x.
	0x56AD, // x.xx.x.x.xx.x.x.
	0xADAD, // x.xx.x.xx.xx.x.x
	0xDB6D, // x.xx.xx.xx.xx.xx
	0xDDDD, // x.xxx.xxx.xxx.xx
	0xF7BD, // x.xxxx.xxxx.xxxx
	0xFDFD, // x.xxxxxxx.xxxxxx
	0x7FFF, // xxxxxxxxxxxxxxx.
	0xFFFF, // xxxxxxxxxxxxxxxx
}

// Euclid returns the canonical pattern with k hits. k is clamped into [0, MaxHits].
func Euclid(k int) Pattern {
	return euclid16[utils.Clamp(k, 0, MaxHits)]
}

// Shrink masks p to its lowest length steps. Steps at or beyond length never fire.
func Shrink(p Pattern, length int) Pattern {
	length = utils.Clamp(length, 0, StepCount)
	if length == StepCount {
		return p
	}
	return p & Pattern(1<<uint(length)-1)
}

// Rotate circularly shifts p left by n steps; the hit at step 15 moves to step 0 when n is 1.
func Rotate(p Pattern, n int) Pattern {
	return Pattern(bits.RotateLeft16(uint16(p), utils.Mod(n, StepCount)))
}

// Hit reports whether the pattern fires at step. Steps wrap modulo StepCount.
func (p Pattern) Hit(step int) bool {
	return p&(1<<uint(utils.Mod(step, StepCount))) != 0
}

// Hits returns the number of firing steps.
func (p Pattern) Hits() int {
	return bits.OnesCount16(uint16(p))
}

func (p Pattern) String() string {
	var sb strings.Builder
	for i := 0; i < StepCount; i++ {
		if p.Hit(i) {
			sb.WriteByte('x')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
