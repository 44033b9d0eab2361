package store

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() hclog.Logger {
	return hclog.NewNullLogger()
}

// makeJPEG returns an encoded solid-color JPEG of the given dimensions.
func makeJPEG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func newTestStore(t *testing.T, maxFiles uint32) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := Create(path, maxFiles, DefaultThumbRes, DefaultSmallRes, testLogger())
	require.NoError(t, err)
	return s, path
}

func TestCreateOpenRoundTrip(t *testing.T) {
	s, path := newTestStore(t, 5)
	require.NoError(t, s.Close())

	reopened, err := Open(path, OpenReadOnly, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	h := reopened.Header()
	assert.EqualValues(t, 5, h.MaxFiles)
	assert.EqualValues(t, 0, h.NumFiles)
}

func TestCreateRejectsBadMaxFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	_, err := Create(path, 0, DefaultThumbRes, DefaultSmallRes, testLogger())
	assert.ErrorIs(t, err, ErrMaxFiles)
}

func TestInsertAndRead(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	payload := makeJPEG(t, 512, 512, color.RGBA{255, 0, 0, 255})
	require.NoError(t, s.Insert("red.jpg", payload))

	orig, err := s.Read("red.jpg", ResOrig)
	require.NoError(t, err)
	assert.Equal(t, payload, orig)

	thumb, err := s.Read("red.jpg", ResThumb)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	b := img.Bounds()
	assert.LessOrEqual(t, b.Dx(), int(DefaultThumbRes[0]))
	assert.LessOrEqual(t, b.Dy(), int(DefaultThumbRes[1]))
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	payload := makeJPEG(t, 64, 64, color.RGBA{0, 255, 0, 255})
	require.NoError(t, s.Insert("img.jpg", payload))

	err := s.Insert("img.jpg", makeJPEG(t, 32, 32, color.RGBA{0, 0, 255, 255}))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestInsertDedupsIdenticalContent(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	payload := makeJPEG(t, 64, 64, color.RGBA{10, 20, 30, 255})
	require.NoError(t, s.Insert("one.jpg", payload))
	require.NoError(t, s.Insert("two.jpg", payload))

	first := s.slots[s.findByID("one.jpg")]
	second := s.slots[s.findByID("two.jpg")]
	assert.Equal(t, first.Offset[ResOrig], second.Offset[ResOrig])
}

func TestInsertFailsWhenFull(t *testing.T) {
	s, _ := newTestStore(t, 1)
	defer s.Close()

	require.NoError(t, s.Insert("one.jpg", makeJPEG(t, 16, 16, color.White)))
	err := s.Insert("two.jpg", makeJPEG(t, 16, 16, color.Black))
	assert.ErrorIs(t, err, ErrFullImgStore)
}

func TestInsertTruncatesOversizedID(t *testing.T) {
	s, _ := newTestStore(t, 1)
	defer s.Close()

	long := make([]byte, MaxImgIDLen+40)
	for i := range long {
		long[i] = 'a'
	}
	longID := string(long)
	want := longID[:MaxImgIDLen]

	require.NoError(t, s.Insert(longID, makeJPEG(t, 16, 16, color.White)))

	images := s.List()
	require.Len(t, images, 1)
	assert.Equal(t, want, images[0].ImgID)

	data, err := s.Read(want, ResOrig)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, s.Delete(longID))
	assert.Empty(t, s.List())
}

func TestInsertRejectsEmptyID(t *testing.T) {
	s, _ := newTestStore(t, 1)
	defer s.Close()

	err := s.Insert("", makeJPEG(t, 16, 16, color.White))
	assert.ErrorIs(t, err, ErrInvalidImgID)
}

func TestReadUnknownIDFails(t *testing.T) {
	s, _ := newTestStore(t, 1)
	defer s.Close()

	_, err := s.Read("ghost.jpg", ResOrig)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteThenReadFails(t *testing.T) {
	s, _ := newTestStore(t, 2)
	defer s.Close()

	require.NoError(t, s.Insert("a.jpg", makeJPEG(t, 16, 16, color.White)))
	require.NoError(t, s.Delete("a.jpg"))

	_, err := s.Read("a.jpg", ResOrig)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteUnknownFails(t *testing.T) {
	s, _ := newTestStore(t, 1)
	defer s.Close()

	err := s.Delete("ghost.jpg")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestListOrdersByID(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	require.NoError(t, s.Insert("zebra.jpg", makeJPEG(t, 16, 16, color.White)))
	require.NoError(t, s.Insert("apple.jpg", makeJPEG(t, 16, 16, color.Black)))

	images := s.List()
	want := []ImageInfo{
		{ImgID: "apple.jpg", Width: 16, Height: 16, SizeOrig: images[0].SizeOrig},
		{ImgID: "zebra.jpg", Width: 16, Height: 16, SizeOrig: images[1].SizeOrig},
	}
	if diff := cmp.Diff(want, images); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenReadWriteFailsWhileLocked(t *testing.T) {
	s, path := newTestStore(t, 1)
	defer s.Close()

	_, err := Open(path, OpenReadWrite, testLogger())
	assert.ErrorIs(t, err, ErrLocked)
}

func TestOpenReadOnlyIgnoresLock(t *testing.T) {
	s, path := newTestStore(t, 1)
	defer s.Close()

	ro, err := Open(path, OpenReadOnly, testLogger())
	require.NoError(t, err)
	defer ro.Close()
}
