package card

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"io"
	"os"

	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNoMetadata means the image carries no text chunk that decodes
	// to JSON. Callers treat this as a skip, not a failure.
	ErrNoMetadata = errors.Base("no embedded metadata found")

	// ErrCodec means the image itself could not be parsed
	ErrCodec = errors.Base("malformed png")
)

// DefaultKey is the text-chunk keyword used when embedding metadata
// that never had a key of its own
const DefaultKey = "chara"

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Metadata is the JSON payload embedded in a character card plus the
// text-chunk keyword it was stored under. The key round-trips exactly.
type Metadata struct {
	Key     string
	Payload any
}

// chunk is one raw PNG chunk. Pixel data passes through untouched; the
// codec only ever rewrites text chunks.
type chunk struct {
	typ  string
	data []byte
}

func (c chunk) isText() bool {
	return c.typ == "tEXt" || c.typ == "zTXt" || c.typ == "iTXt"
}

// readChunks parses a PNG byte stream into its chunk sequence
func readChunks(data []byte) ([]chunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.Errorf("%w: bad signature", ErrCodec)
	}

	var chunks []chunk
	rest := data[len(pngSignature):]
	for len(rest) > 0 {
		if len(rest) < 12 {
			return nil, errors.Errorf("%w: truncated chunk header", ErrCodec)
		}
		length := binary.BigEndian.Uint32(rest[:4])
		if uint32(len(rest)-12) < length {
			return nil, errors.Errorf("%w: truncated chunk data", ErrCodec)
		}
		typ := string(rest[4:8])
		body := rest[8 : 8+length]
		want := binary.BigEndian.Uint32(rest[8+length : 12+length])
		if got := crc32.ChecksumIEEE(rest[4 : 8+length]); got != want {
			return nil, errors.Errorf("%w: crc mismatch in %s chunk", ErrCodec, typ)
		}
		chunks = append(chunks, chunk{typ: typ, data: append([]byte(nil), body...)})
		rest = rest[12+length:]
		if typ == "IEND" {
			break
		}
	}
	if len(chunks) == 0 || chunks[len(chunks)-1].typ != "IEND" {
		return nil, errors.Errorf("%w: missing IEND", ErrCodec)
	}
	return chunks, nil
}

// writeChunks serializes chunks back into a PNG byte stream
func writeChunks(chunks []chunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, c := range chunks {
		var header [8]byte
		binary.BigEndian.PutUint32(header[:4], uint32(len(c.data)))
		copy(header[4:], c.typ)
		buf.Write(header[:])
		buf.Write(c.data)

		crc := crc32.NewIEEE()
		crc.Write([]byte(c.typ))
		crc.Write(c.data)
		var tail [4]byte
		binary.BigEndian.PutUint32(tail[:], crc.Sum32())
		buf.Write(tail[:])
	}
	return buf.Bytes()
}

// textValue pulls the keyword and raw text out of a tEXt or zTXt chunk
func textValue(c chunk) (key string, value []byte, err error) {
	sep := bytes.IndexByte(c.data, 0)
	if sep < 0 {
		return "", nil, errors.Errorf("%w: %s chunk without keyword terminator", ErrCodec, c.typ)
	}
	key = string(c.data[:sep])

	switch c.typ {
	case "tEXt":
		return key, c.data[sep+1:], nil
	case "zTXt":
		if len(c.data) < sep+2 {
			return "", nil, errors.Errorf("%w: zTXt chunk too short", ErrCodec)
		}
		// one compression-method byte, then a zlib stream
		r, zerr := zlib.NewReader(bytes.NewReader(c.data[sep+2:]))
		if zerr != nil {
			return "", nil, errors.Errorf("%w: inflating zTXt: %w", ErrCodec, zerr)
		}
		defer r.Close()
		value, zerr = io.ReadAll(r)
		if zerr != nil {
			return "", nil, errors.Errorf("%w: inflating zTXt: %w", ErrCodec, zerr)
		}
		return key, value, nil
	default:
		return "", nil, errors.Errorf("%w: %s is not a text chunk", ErrCodec, c.typ)
	}
}

// decodeMetadata tries to interpret a text chunk as base64-encoded
// JSON. Text chunks that hold anything else are not an error, just not
// metadata.
func decodeMetadata(c chunk) (*Metadata, bool) {
	if c.typ != "tEXt" && c.typ != "zTXt" {
		return nil, false
	}
	key, value, err := textValue(c)
	if err != nil {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(string(value))
	if err != nil {
		return nil, false
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	return &Metadata{Key: key, Payload: payload}, true
}

// ExtractBytes scans a PNG for the first text chunk whose value
// base64-decodes to valid JSON. Returns ErrNoMetadata when none does.
func ExtractBytes(data []byte) (*Metadata, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if meta, ok := decodeMetadata(c); ok {
			return meta, nil
		}
	}
	return nil, errors.WithStack(ErrNoMetadata)
}

// Extract reads a PNG file and pulls out its embedded metadata
func Extract(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	meta, err := ExtractBytes(data)
	if err != nil {
		return nil, errors.Errorf("extracting metadata from %s: %w", path, err)
	}
	return meta, nil
}

// EmbedBytes writes metadata into a copy of the source image. Pixel
// data is carried over byte for byte. In clean mode every pre-existing
// text chunk is dropped first, so no stale metadata survives; outside
// clean mode only chunks holding old metadata (or sharing the new key)
// are replaced.
func EmbedBytes(src []byte, meta *Metadata, clean bool) ([]byte, error) {
	chunks, err := readChunks(src)
	if err != nil {
		return nil, err
	}

	key := meta.Key
	if key == "" {
		key = DefaultKey
	}

	raw, err := json.Marshal(meta.Payload)
	if err != nil {
		return nil, errors.Errorf("encoding metadata payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	text := chunk{typ: "tEXt"}
	text.data = append(text.data, key...)
	text.data = append(text.data, 0)
	text.data = append(text.data, encoded...)

	out := make([]chunk, 0, len(chunks)+1)
	for _, c := range chunks {
		if c.isText() {
			if clean {
				continue
			}
			if old, ok := decodeMetadata(c); ok && old.Key == key {
				continue
			}
		}
		if c.typ == "IEND" {
			out = append(out, text)
		}
		out = append(out, c)
	}
	return writeChunks(out), nil
}

// Embed writes metadata into a copy of the source image at outPath
func Embed(srcPath string, meta *Metadata, outPath string, clean bool) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return errors.Errorf("reading %s: %w", srcPath, err)
	}
	data, err := EmbedBytes(src, meta, clean)
	if err != nil {
		return errors.Errorf("embedding metadata into %s: %w", srcPath, err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return errors.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// HasTargetScript reports whether the embedded metadata contains
// source-script text for the given direction. A card with no metadata
// at all reports false rather than an error.
func HasTargetScript(path string, direction dict.Direction, detector *variant.Detector) (bool, error) {
	meta, err := Extract(path)
	if err != nil {
		if errors.Is(err, ErrNoMetadata) {
			return false, nil
		}
		return false, err
	}
	return detector.ValueContainsSource(meta.Payload, direction), nil
}
