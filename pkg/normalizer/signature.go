package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Signature hashes the canonicalized semantic content of a strategy:
// indicator set, entry/exit rule strings and universe, each sorted first so
// the signature is stable under reordering of semantically-equivalent
// inputs. Name, description and sources deliberately do not participate;
// two documents describing the same rules sign identically.
func Signature(indicators, entryRules, exitRules, universe []string) string {
	sortedCopy := func(in []string) []string {
		out := append([]string(nil), in...)
		sort.Strings(out)
		return out
	}

	payload := strings.Join([]string{
		"indicators=" + strings.Join(sortedCopy(indicators), ","),
		"entry=" + strings.Join(sortedCopy(entryRules), ";"),
		"exit=" + strings.Join(sortedCopy(exitRules), ";"),
		"universe=" + strings.Join(sortedCopy(universe), ","),
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
