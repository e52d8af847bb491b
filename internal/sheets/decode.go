package sheets

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeCandidates are tried in order; the first one that yields valid
// UTF-8 wins. The exports come out of a mix of Windows tooling and
// Google exports, so none of these is a safe single assumption.
var decodeCandidates = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", encoding.Nop},
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// DecodeText converts raw CSV bytes to a UTF-8 string, walking the
// candidate encodings and finally replacing undecodable bytes rather
// than failing. Decoding is never a fatal condition here.
func DecodeText(data []byte) string {
	for _, cand := range decodeCandidates {
		if cand.enc == encoding.Nop {
			if utf8.Valid(data) {
				return string(data)
			}
			continue
		}
		decoded, _, err := transform.Bytes(cand.enc.NewDecoder(), data)
		if err != nil || !utf8.Valid(decoded) {
			continue
		}
		return string(decoded)
	}

	// Best effort: keep what we can, replace the rest.
	return string([]rune(string(data)))
}
