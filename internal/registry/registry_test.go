package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nea-sg/rain-radar-camera/internal/radar"
)

type fakeEntity struct {
	id string
}

func (f *fakeEntity) EntityID() string                        { return f.id }
func (f *fakeEntity) UniqueID() string                        { return f.id }
func (f *fakeEntity) Name() string                            { return f.id }
func (f *fakeEntity) SupportedFeatures() int                  { return 0 }
func (f *fakeEntity) ContentType() string                     { return "image/png" }
func (f *fakeEntity) StreamSource() string                    { return "" }
func (f *fakeEntity) Image(_ context.Context) []byte          { return nil }
func (f *fakeEntity) ExtraStateAttributes() map[string]string { return nil }
func (f *fakeEntity) DeviceInfo() radar.DeviceInfo            { return radar.DeviceInfo{} }

func TestAddAndGet(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Add(&fakeEntity{id: "camera.a"}))

	got, ok := reg.Get("camera.a")
	assert.True(t, ok)
	assert.Equal(t, "camera.a", got.EntityID())

	_, ok = reg.Get("camera.b")
	assert.False(t, ok)
}

func TestAddRejectsDuplicates(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Add(&fakeEntity{id: "camera.a"}))
	assert.ErrorIs(t, reg.Add(&fakeEntity{id: "camera.a"}), ErrDuplicateEntity)
}

func TestListOrdering(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Add(&fakeEntity{id: "camera.b"}))
	require.NoError(t, reg.Add(&fakeEntity{id: "camera.a"}))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "camera.a", list[0].EntityID())
	assert.Equal(t, "camera.b", list[1].EntityID())
}
