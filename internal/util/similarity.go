package util

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio is the indel similarity of a and b scaled to 0-100:
// 2*LCS / (len(a)+len(b)), rounded half to even.
func Ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	return int(math.RoundToEven(200 * float64(edlib.LCS(a, b)) / float64(la+lb)))
}

// PartialRatio slides the shorter string over the longer one and returns the
// best Ratio of any equally long window.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) == 0 || len(long) == 0 {
		return 0
	}
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return Ratio(string(short), string(long))
	}

	needle := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		score := Ratio(needle, string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares a and b after tokenizing and sorting their words, so
// word order and punctuation do not count.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := Tokenize(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
