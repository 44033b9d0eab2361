package store

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactIsNoopWithoutHoles(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	require.NoError(t, s.Insert("a.jpg", makeJPEG(t, 16, 16, color.White)))

	need, err := s.needsCompaction()
	require.NoError(t, err)
	assert.False(t, need)

	require.NoError(t, s.Compact(CompactOptions{}))
}

func TestCompactReclaimsDeletedSpace(t *testing.T) {
	s, path := newTestStore(t, 4)
	defer s.Close()

	require.NoError(t, s.Insert("a.jpg", makeJPEG(t, 32, 32, color.RGBA{255, 0, 0, 255})))
	require.NoError(t, s.Insert("b.jpg", makeJPEG(t, 32, 32, color.RGBA{0, 255, 0, 255})))
	require.NoError(t, s.Delete("a.jpg"))

	need, err := s.needsCompaction()
	require.NoError(t, err)
	assert.True(t, need)

	require.NoError(t, s.Compact(CompactOptions{}))

	images := s.List()
	require.Len(t, images, 1)
	assert.Equal(t, "b.jpg", images[0].ImgID)

	reopened, err := Open(path, OpenReadOnly, testLogger())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Len(t, reopened.List(), 1)
}

func TestCompactPreservesMaterialisedResolutions(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	require.NoError(t, s.Insert("a.jpg", makeJPEG(t, 512, 512, color.RGBA{10, 20, 30, 255})))
	_, err := s.Read("a.jpg", ResThumb)
	require.NoError(t, err)

	require.NoError(t, s.Insert("b.jpg", makeJPEG(t, 32, 32, color.White)))
	require.NoError(t, s.Delete("b.jpg"))

	require.NoError(t, s.Compact(CompactOptions{}))

	idx := s.findByID("a.jpg")
	require.GreaterOrEqual(t, idx, 0)
	assert.NotZero(t, s.slots[idx].Size[ResThumb])
}

func TestCompactWritesAuditTrail(t *testing.T) {
	s, _ := newTestStore(t, 3)
	defer s.Close()

	require.NoError(t, s.Insert("a.jpg", makeJPEG(t, 16, 16, color.White)))
	require.NoError(t, s.Insert("b.jpg", makeJPEG(t, 16, 16, color.Black)))
	require.NoError(t, s.Delete("a.jpg"))

	auditPath := s.path + ".audit.tar.bz2"
	require.NoError(t, s.Compact(CompactOptions{AuditTrailPath: auditPath}))

	assert.FileExists(t, auditPath)
}
