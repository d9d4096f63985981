package repository

import "crypto/rand"

// codeAlphabet drops glyphs that are easy to confuse when handwritten
// or read aloud (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength           = 6
	maxAttemptsPerLength = 50
)

// generateCode returns a join code that does not collide with any code
// in the active set. Collisions are vanishingly rare (32^6 combinations)
// but the loop still terminates: after maxAttemptsPerLength misses the
// code grows a character.
func generateCode(active map[string]bool) string {
	return generateCodeFrom(active, randomCode)
}

func generateCodeFrom(active map[string]bool, candidate func(length int) string) string {
	length := codeLength
	for {
		for attempt := 0; attempt < maxAttemptsPerLength; attempt++ {
			code := candidate(length)
			if !active[code] {
				return code
			}
		}
		length++
	}
}

func randomCode(length int) string {
	buf := make([]byte, length)
	rand.Read(buf)

	out := make([]byte, length)
	for i, b := range buf {
		// len(codeAlphabet) is 32, which divides 256 evenly, so the
		// modulo introduces no bias.
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}
