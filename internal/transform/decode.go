package transform

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	textransform "golang.org/x/text/transform"
)

// decodeToUTF8 normalizes file content to UTF-8 so line-oriented
// transforms handle BOM-prefixed and UTF-16 input. When detection is
// uncertain and the content is already valid UTF-8, it is passed through
// untouched rather than run through a guessed single-byte decoder.
func decodeToUTF8(content []byte) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(content, "")
	if !certain && utf8.Valid(content) {
		return content, nil
	}
	if enc == nil {
		return content, nil
	}
	decoded, err := io.ReadAll(textransform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode from %s: %w", name, err)
	}
	return decoded, nil
}
