package crawler

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// mojibakeMarkers are characters that show up when Latin-1 text is read as UTF-8.
const mojibakeMarkers = "ÃÂ�"

// Decode returns b as text. Bulletins are served as UTF-8 but are sometimes
// Latin-1 on disk, so when the UTF-8 reading contains a mis-decoding marker the
// original bytes are decoded as Latin-1 instead. Decode never fails.
func Decode(b []byte) string {
	text := decodeUTF8(b)
	if !strings.ContainsAny(text, mojibakeMarkers) {
		return text
	}

	latin, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return text
	}

	return string(latin)
}

func decodeUTF8(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}

	return string(out)
}
