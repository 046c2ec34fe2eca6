package pool

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"sort"
	"time"
)

// Writer serializes a model graph to a byte stream. Errors are sticky:
// the first write failure latches and all further writes become no-ops,
// so entity code can store unconditionally and check Err once.
type Writer struct {
	bw  *bufio.Writer
	err error

	strings map[string]int32
	objects map[Persistent]int32
}

// NewWriter creates a writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		bw:      bufio.NewWriter(w),
		strings: make(map[string]int32),
		objects: make(map[Persistent]int32),
	}
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Flush writes out any buffered data.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.bw.Flush()
	return w.err
}

// WriteHead writes the magic, format version and head record. It must be
// called before any entity data.
func (w *Writer) WriteHead(head HeadData) {
	w.writeRaw(magic[:])
	w.WriteUint32(formatVersion)
	w.WriteVariantMap(head.ProjectConfig)
}

func (w *Writer) writeRaw(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.bw.Write(b)
}

// WriteInt writes n as a fixed-width 32-bit integer. Collection counts and
// ids use this width: the format never relies on a runtime's native
// container encoding.
func (w *Writer) WriteInt(n int) {
	w.WriteInt32(int32(n))
}

// WriteInt32 writes a 32-bit integer.
func (w *Writer) WriteInt32(n int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(n))
	w.writeRaw(buf[:])
}

// WriteUint32 writes a 32-bit unsigned integer.
func (w *Writer) WriteUint32(n uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], n)
	w.writeRaw(buf[:])
}

// WriteInt64 writes a 64-bit integer.
func (w *Writer) WriteInt64(n int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	w.writeRaw(buf[:])
}

// WriteFloat writes a 64-bit float.
func (w *Writer) WriteFloat(f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	w.writeRaw(buf[:])
}

// WriteBool writes a boolean as a single byte.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.writeRaw([]byte{1})
	} else {
		w.writeRaw([]byte{0})
	}
}

// WriteString writes a string through the intern table: an id, plus the
// bytes on first occurrence.
func (w *Writer) WriteString(s string) {
	if id, ok := w.strings[s]; ok {
		w.WriteInt32(id)
		return
	}
	id := int32(len(w.strings))
	w.strings[s] = id
	w.WriteInt32(id)
	w.WriteInt(len(s))
	w.writeRaw([]byte(s))
}

// WriteStringList writes a count followed by that many interned strings.
func (w *Writer) WriteStringList(list []string) {
	w.WriteInt(len(list))
	for _, s := range list {
		w.WriteString(s)
	}
}

// WriteStringMap writes a string map with sorted keys, so equal maps
// produce identical bytes.
func (w *Writer) WriteStringMap(m map[string]string) {
	keys := sortedKeys(m)
	w.WriteInt(len(keys))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteString(m[k])
	}
}

// WriteBoolMap writes a string-to-bool map with sorted keys.
func (w *Writer) WriteBoolMap(m map[string]bool) {
	keys := sortedKeys(m)
	w.WriteInt(len(keys))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteBool(m[k])
	}
}

// WriteTime writes a timestamp. The zero time is preserved as such.
func (w *Writer) WriteTime(t time.Time) {
	if t.IsZero() {
		w.WriteBool(true)
		return
	}
	w.WriteBool(false)
	w.WriteInt64(t.UnixNano())
}

// WriteTimeMap writes a string-to-timestamp map with sorted keys.
func (w *Writer) WriteTimeMap(m map[string]time.Time) {
	keys := sortedKeys(m)
	w.WriteInt(len(keys))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteTime(m[k])
	}
}

// storeObject writes an identity-tracked object reference: an id, plus the
// object body on first occurrence. The object is registered before its body
// is stored so reference cycles terminate.
func (w *Writer) storeObject(obj Persistent) {
	if id, ok := w.objects[obj]; ok {
		w.WriteInt32(id)
		return
	}
	id := int32(len(w.objects))
	w.objects[obj] = id
	w.WriteInt32(id)
	obj.Store(w)
}

// StoreObject writes obj through the identity table, or a null reference
// when obj is nil. The generic signature keeps typed-nil pointers from
// masquerading as live objects.
func StoreObject[T any, PT interface {
	Persistent
	*T
}](w *Writer, obj PT) {
	if obj == nil {
		w.WriteInt32(nullID)
		return
	}
	w.storeObject(obj)
}

// StoreObjects writes a count followed by that many identity-tracked
// objects.
func StoreObjects[T any, PT interface {
	Persistent
	*T
}](w *Writer, objs []PT) {
	w.WriteInt(len(objs))
	for _, obj := range objs {
		StoreObject(w, obj)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
