package card_test

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/minazuki-dev/zhconv/pkg/card"
	"github.com/minazuki-dev/zhconv/pkg/dict"
	"github.com/minazuki-dev/zhconv/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// pixelFixture renders a tiny valid PNG with no text chunks
func pixelFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// rawChunk assembles one PNG chunk by hand
func rawChunk(typ string, data []byte) []byte {
	out := make([]byte, 0, len(data)+12)
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, typ...)
	out = append(out, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

// withChunk splices a chunk in just before IEND (always the trailing
// 12 bytes of a well-formed PNG)
func withChunk(src, chunk []byte) []byte {
	out := make([]byte, 0, len(src)+len(chunk))
	out = append(out, src[:len(src)-12]...)
	out = append(out, chunk...)
	return append(out, src[len(src)-12:]...)
}

func TestExtractNoMetadata(t *testing.T) {
	_, err := card.ExtractBytes(pixelFixture(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, card.ErrNoMetadata))
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := card.ExtractBytes([]byte("definitely not a png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, card.ErrCodec))
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	payload := map[string]any{
		"name":        "这是角色",
		"description": "服务器管理员",
		"tags":        []any{"测试", 1.0},
		"extensions":  map[string]any{"depth": 2.0},
	}

	out, err := card.EmbedBytes(pixelFixture(t), &card.Metadata{Key: "chara", Payload: payload}, false)
	require.NoError(t, err)

	meta, err := card.ExtractBytes(out)
	require.NoError(t, err)
	assert.Equal(t, "chara", meta.Key)
	assert.Equal(t, payload, meta.Payload)

	// pixel data survives untouched
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
}

func TestEmbedDefaultKey(t *testing.T) {
	out, err := card.EmbedBytes(pixelFixture(t), &card.Metadata{Payload: "x"}, false)
	require.NoError(t, err)

	meta, err := card.ExtractBytes(out)
	require.NoError(t, err)
	assert.Equal(t, card.DefaultKey, meta.Key)
}

func TestEmbedReplacesSameKey(t *testing.T) {
	first, err := card.EmbedBytes(pixelFixture(t), &card.Metadata{Key: "chara", Payload: "old"}, false)
	require.NoError(t, err)

	second, err := card.EmbedBytes(first, &card.Metadata{Key: "chara", Payload: "new"}, false)
	require.NoError(t, err)

	meta, err := card.ExtractBytes(second)
	require.NoError(t, err)
	assert.Equal(t, "new", meta.Payload)
}

func TestEmbedCleanStripsAllTextChunks(t *testing.T) {
	// a stale comment chunk that is not metadata
	comment := rawChunk("tEXt", append([]byte("Comment\x00"), "made with gimp!"...))
	src := withChunk(pixelFixture(t), comment)

	out, err := card.EmbedBytes(src, &card.Metadata{Key: "chara", Payload: "fresh"}, true)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "made with gimp!")

	meta, err := card.ExtractBytes(out)
	require.NoError(t, err)
	assert.Equal(t, "fresh", meta.Payload)
}

func TestEmbedKeepsForeignTextChunksWithoutClean(t *testing.T) {
	comment := rawChunk("tEXt", append([]byte("Comment\x00"), "made with gimp!"...))
	src := withChunk(pixelFixture(t), comment)

	out, err := card.EmbedBytes(src, &card.Metadata{Key: "chara", Payload: "fresh"}, false)
	require.NoError(t, err)
	assert.Contains(t, string(out), "made with gimp!")
}

func TestExtractReadsZTXt(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"name":"角色"}`))

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write([]byte(encoded))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	body := append([]byte("chara\x00\x00"), compressed.Bytes()...)
	src := withChunk(pixelFixture(t), rawChunk("zTXt", body))

	meta, err := card.ExtractBytes(src)
	require.NoError(t, err)
	assert.Equal(t, "chara", meta.Key)
	assert.Equal(t, map[string]any{"name": "角色"}, meta.Payload)
}

func TestExtractRejectsCorruptCRC(t *testing.T) {
	src := pixelFixture(t)
	bad := rawChunk("tEXt", []byte("k\x00v"))
	bad[len(bad)-1] ^= 0xff
	_, err := card.ExtractBytes(withChunk(src, bad))
	require.Error(t, err)
	assert.True(t, errors.Is(err, card.ErrCodec))
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "card.png")
	out := filepath.Join(dir, "card-out.png")
	require.NoError(t, os.WriteFile(src, pixelFixture(t), 0644))

	err := card.Embed(src, &card.Metadata{Key: "chara", Payload: map[string]any{"name": "这是"}}, out, true)
	require.NoError(t, err)

	meta, err := card.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "这是"}, meta.Payload)
}

func TestHasTargetScript(t *testing.T) {
	dir := t.TempDir()
	det := variant.NewDetector()

	plain := filepath.Join(dir, "plain.png")
	require.NoError(t, os.WriteFile(plain, pixelFixture(t), 0644))

	// no metadata at all is false, not an error
	has, err := card.HasTargetScript(plain, dict.Forward, det)
	require.NoError(t, err)
	assert.False(t, has)

	carded := filepath.Join(dir, "card.png")
	err = card.Embed(plain, &card.Metadata{Key: "chara", Payload: map[string]any{"name": "这是"}}, carded, false)
	require.NoError(t, err)

	has, err = card.HasTargetScript(carded, dict.Forward, det)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = card.HasTargetScript(carded, dict.Reverse, det)
	require.NoError(t, err)
	assert.False(t, has)
}
