package grf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// decodeName converts a stored entry name to UTF-8. Names that are already
// valid UTF-8 are kept; anything else is read as EUC-KR.
func decodeName(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(result)
}

// encodeName converts a UTF-8 entry name to its stored form: backslash
// separated, EUC-KR for anything outside ASCII.
func encodeName(name string) ([]byte, error) {
	name = strings.ReplaceAll(name, "/", "\\")
	if isASCII(name) {
		return []byte(name), nil
	}
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(name))
	if err != nil {
		return nil, fmt.Errorf("name %q not representable in EUC-KR: %w", name, err)
	}
	return result, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func normalizePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(name)
}
