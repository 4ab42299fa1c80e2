package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ReadInput loads a whole document. The file extension selects a
// decompressor (.zst, .gz, .lz4). A leading byte order mark switches the
// text to UTF-8 and is dropped; input without one is passed through
// untouched so invalid UTF-8 still reaches the tokenizer.
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	var r io.Reader = stdin
	if path != Stdin {
		f, err := os.Open(path)
		if err != nil {
			return nil, stageErr(StageInput, err, "open %s", path)
		}
		defer f.Close()
		r = f
	}

	r, closer, err := decompress(path, r)
	if err != nil {
		return nil, stageErr(StageInput, err, "read %s", path)
	}
	defer closer()

	r = transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, stageErr(StageInput, err, "read %s", path)
	}
	return data, nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	}
	return r, func() {}, nil
}
