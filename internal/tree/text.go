package tree

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const probeSize = 8192

type Encoding int

const (
	EncUnknown Encoding = iota
	EncUTF8
	EncUTF16LE
	EncUTF16BE
	EncLatin1
	EncBinary
)

func (e Encoding) String() string {
	switch e {
	case EncUTF8:
		return "utf-8"
	case EncUTF16LE:
		return "utf-16le"
	case EncUTF16BE:
		return "utf-16be"
	case EncLatin1:
		return "latin-1"
	case EncBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// DetectEncoding classifies a byte sample. The engine only ever rewrites
// UTF-8 (or plain ASCII) files in place; everything else is reported so
// callers can skip it instead of corrupting it.
func DetectEncoding(data []byte) Encoding {
	if len(data) == 0 {
		return EncUTF8
	}

	if len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}) {
		return EncUTF8
	}
	if len(data) >= 2 {
		if bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
			return EncUTF16LE
		}
		if bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
			return EncUTF16BE
		}
	}

	if bytes.IndexByte(data, 0x00) >= 0 {
		return EncBinary
	}

	if utf8.Valid(data) {
		return EncUTF8
	}

	if decodable(data, charmap.Windows1252.NewDecoder()) {
		return EncLatin1
	}

	return EncBinary
}

func decodable(data []byte, decoder *encoding.Decoder) bool {
	reader := transform.NewReader(bytes.NewReader(data), decoder)
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return false
	}

	control := 0
	for _, r := range string(decoded) {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
	}
	return control*20 < len(decoded)
}

// DecodeUTF16 converts a UTF-16 payload to a UTF-8 string, for read-only
// inspection of files the engine will not rewrite.
func DecodeUTF16(data []byte, enc Encoding) (string, error) {
	var dec *encoding.Decoder
	if enc == EncUTF16BE {
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	} else {
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	}

	reader := transform.NewReader(bytes.NewReader(data), dec)
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// IsEditable probes a file and reports whether the engine may safely rewrite
// it as text. Unreadable files and directories report false with no error;
// the caller treats them as skippable, not fatal.
func IsEditable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	probe := make([]byte, probeSize)
	n, err := file.Read(probe)
	if err != nil && err != io.EOF {
		return false
	}

	return DetectEncoding(probe[:n]) == EncUTF8
}
