package pool

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node is a minimal persistent entity with a shared reference and a
// potential cycle, standing in for the model types.
type node struct {
	Name  string
	Next  *node
	Other *node
}

func (n *node) Store(w *Writer) {
	w.WriteString(n.Name)
	StoreObject(w, n.Next)
	StoreObject(w, n.Other)
}

func (n *node) Load(r *Reader) {
	n.Name = r.ReadString()
	n.Next = LoadObject[node](r)
	n.Other = LoadObject[node](r)
}

func roundTrip(t *testing.T, store func(*Writer), load func(*Reader)) {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	store(w)
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	load(r)
	require.NoError(t, r.Err())
}

func TestPrimitivesRoundTrip(t *testing.T) {
	when := time.Date(2024, 5, 17, 10, 30, 0, 12345, time.UTC)
	roundTrip(t,
		func(w *Writer) {
			w.WriteInt(42)
			w.WriteInt64(-1 << 40)
			w.WriteBool(true)
			w.WriteFloat(3.5)
			w.WriteString("hello")
			w.WriteStringList([]string{"a", "b", "a"})
			w.WriteStringMap(map[string]string{"k": "v", "j": "u"})
			w.WriteBoolMap(map[string]bool{"x": true, "y": false})
			w.WriteTime(when)
			w.WriteTime(time.Time{})
		},
		func(r *Reader) {
			assert.Equal(t, 42, r.ReadInt())
			assert.Equal(t, int64(-1<<40), r.ReadInt64())
			assert.True(t, r.ReadBool())
			assert.Equal(t, 3.5, r.ReadFloat())
			assert.Equal(t, "hello", r.ReadString())
			assert.Equal(t, []string{"a", "b", "a"}, r.ReadStringList())
			assert.Equal(t, map[string]string{"k": "v", "j": "u"}, r.ReadStringMap())
			assert.Equal(t, map[string]bool{"x": true, "y": false}, r.ReadBoolMap())
			assert.True(t, when.Equal(r.ReadTime()))
			assert.True(t, r.ReadTime().IsZero())
		})
}

func TestStringInterning(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteString("repeated")
	w.WriteString("repeated")
	require.NoError(t, w.Flush())

	// id + len + bytes, then id only.
	require.Equal(t, 4+4+len("repeated")+4, buf.Len())

	r := NewReader(&buf)
	assert.Equal(t, "repeated", r.ReadString())
	assert.Equal(t, "repeated", r.ReadString())
	require.NoError(t, r.Err())
}

func TestSharedObjectIdentity(t *testing.T) {
	shared := &node{Name: "shared"}
	a := &node{Name: "a", Next: shared}
	b := &node{Name: "b", Next: shared}

	var loadedA, loadedB *node
	roundTrip(t,
		func(w *Writer) {
			StoreObject(w, a)
			StoreObject(w, b)
		},
		func(r *Reader) {
			loadedA = LoadObject[node](r)
			loadedB = LoadObject[node](r)
		})

	require.NotNil(t, loadedA.Next)
	assert.Same(t, loadedA.Next, loadedB.Next, "shared entity must load as one instance")
	assert.Equal(t, "shared", loadedA.Next.Name)
}

func TestReferenceCycle(t *testing.T) {
	a := &node{Name: "a"}
	b := &node{Name: "b", Other: a}
	a.Other = b

	var loaded *node
	roundTrip(t,
		func(w *Writer) { StoreObject(w, a) },
		func(r *Reader) { loaded = LoadObject[node](r) })

	require.NotNil(t, loaded.Other)
	assert.Same(t, loaded, loaded.Other.Other)
}

func TestNilObject(t *testing.T) {
	var loaded *node
	roundTrip(t,
		func(w *Writer) { StoreObject[node](w, nil) },
		func(r *Reader) { loaded = LoadObject[node](r) })
	assert.Nil(t, loaded)
}

func TestObjectList(t *testing.T) {
	nodes := []*node{{Name: "x"}, nil, {Name: "y"}}

	var loaded []*node
	roundTrip(t,
		func(w *Writer) { StoreObjects(w, nodes) },
		func(r *Reader) { loaded = LoadObjects[node](r) })

	require.Len(t, loaded, 3)
	assert.Equal(t, "x", loaded[0].Name)
	assert.Nil(t, loaded[1])
	assert.Equal(t, "y", loaded[2].Name)
}

func TestHeadRoundTrip(t *testing.T) {
	config := map[string]any{
		"profile": "debug",
		"strata":  map[string]any{"buildVariant": "debug"},
		"jobs":    4,
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteHead(HeadData{ProjectConfig: config})
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	head, err := r.ReadHead()
	require.NoError(t, err)
	assert.Equal(t, NormalizeVariant(config), any(head.ProjectConfig))
}

func TestReadHead_RejectsBadMagic(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("NOTABUILDGRAPH__")))
	_, err := r.ReadHead()
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestReadHead_RejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], 999)
	buf.Write(version[:])

	r := NewReader(&buf)
	_, err := r.ReadHead()
	var verr *VersionError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, uint32(999), verr.Got)
}

func TestVariantRoundTrip(t *testing.T) {
	value := map[string]any{
		"s":    "str",
		"i":    7,
		"f":    1.25,
		"b":    true,
		"nil":  nil,
		"list": []any{"a", 1, false},
		"strs": []string{"p", "q"},
		"nested": map[string]any{
			"deep": "value",
		},
	}

	var got any
	roundTrip(t,
		func(w *Writer) { w.WriteVariant(value) },
		func(r *Reader) { got = r.ReadVariant() })

	assert.Equal(t, NormalizeVariant(value), got)
}

func TestReader_CorruptCount(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt(-5)
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	r.ReadStringList()
	assert.Error(t, r.Err())
}
