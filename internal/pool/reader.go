package pool

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// Reader deserializes a model graph from a byte stream. Like the Writer,
// its error is sticky; primitives return zero values once an error has
// latched.
type Reader struct {
	br  *bufio.Reader
	err error

	strings map[int32]string
	objects map[int32]Persistent
}

// NewReader creates a reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		br:      bufio.NewReader(r),
		strings: make(map[int32]string),
		objects: make(map[int32]Persistent),
	}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// ReadHead reads and validates the magic and format version, then returns
// the head record. Callers compare the returned configuration against the
// one being requested before loading the body.
func (r *Reader) ReadHead() (HeadData, error) {
	var m [8]byte
	r.readRaw(m[:])
	if r.err != nil {
		return HeadData{}, r.err
	}
	if !bytes.Equal(m[:], magic[:]) {
		return HeadData{}, ErrInvalidFormat
	}
	version := r.ReadUint32()
	if r.err != nil {
		return HeadData{}, r.err
	}
	if version != formatVersion {
		return HeadData{}, &VersionError{Got: version, Want: formatVersion}
	}
	config := r.ReadVariantMap()
	if r.err != nil {
		return HeadData{}, r.err
	}
	return HeadData{ProjectConfig: config}, nil
}

func (r *Reader) readRaw(buf []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.br, buf)
}

// ReadInt reads a fixed-width 32-bit integer.
func (r *Reader) ReadInt() int {
	return int(r.ReadInt32())
}

// ReadInt32 reads a 32-bit integer.
func (r *Reader) ReadInt32() int32 {
	var buf [4]byte
	r.readRaw(buf[:])
	return int32(binary.LittleEndian.Uint32(buf[:]))
}

// ReadUint32 reads a 32-bit unsigned integer.
func (r *Reader) ReadUint32() uint32 {
	var buf [4]byte
	r.readRaw(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// ReadInt64 reads a 64-bit integer.
func (r *Reader) ReadInt64() int64 {
	var buf [8]byte
	r.readRaw(buf[:])
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// ReadFloat reads a 64-bit float.
func (r *Reader) ReadFloat() float64 {
	var buf [8]byte
	r.readRaw(buf[:])
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))
}

// ReadBool reads a boolean.
func (r *Reader) ReadBool() bool {
	var buf [1]byte
	r.readRaw(buf[:])
	return buf[0] != 0
}

// readCount reads a collection count, rejecting corrupt values.
func (r *Reader) readCount() int {
	n := r.ReadInt()
	if r.err != nil {
		return 0
	}
	if n < 0 || n > maxCount {
		r.fail(fmt.Errorf("corrupt stream: implausible count %d", n))
		return 0
	}
	return n
}

// ReadString reads a string through the intern table.
func (r *Reader) ReadString() string {
	id := r.ReadInt32()
	if r.err != nil {
		return ""
	}
	if s, ok := r.strings[id]; ok {
		return s
	}
	if id != int32(len(r.strings)) {
		r.fail(fmt.Errorf("corrupt stream: unknown string id %d", id))
		return ""
	}
	n := r.readCount()
	buf := make([]byte, n)
	r.readRaw(buf)
	if r.err != nil {
		return ""
	}
	s := string(buf)
	r.strings[id] = s
	return s
}

// ReadStringList reads a count-prefixed list of interned strings.
func (r *Reader) ReadStringList() []string {
	n := r.readCount()
	if n == 0 {
		return nil
	}
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, r.ReadString())
	}
	return list
}

// ReadStringMap reads a string map.
func (r *Reader) ReadStringMap() map[string]string {
	n := r.readCount()
	m := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k := r.ReadString()
		m[k] = r.ReadString()
	}
	return m
}

// ReadBoolMap reads a string-to-bool map.
func (r *Reader) ReadBoolMap() map[string]bool {
	n := r.readCount()
	m := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		k := r.ReadString()
		m[k] = r.ReadBool()
	}
	return m
}

// ReadTime reads a timestamp.
func (r *Reader) ReadTime() time.Time {
	if r.ReadBool() {
		return time.Time{}
	}
	return time.Unix(0, r.ReadInt64()).UTC()
}

// ReadTimeMap reads a string-to-timestamp map.
func (r *Reader) ReadTimeMap() map[string]time.Time {
	n := r.readCount()
	m := make(map[string]time.Time, n)
	for i := 0; i < n; i++ {
		k := r.ReadString()
		m[k] = r.ReadTime()
	}
	return m
}

// LoadObject reads an identity-tracked object reference. On the first
// occurrence of an id the instance is created and registered before its
// body is loaded, so reference cycles resolve to the same instance.
func LoadObject[T any, PT interface {
	Persistent
	*T
}](r *Reader) PT {
	id := r.ReadInt32()
	if r.err != nil || id == nullID {
		return nil
	}
	if obj, ok := r.objects[id]; ok {
		loaded, ok := obj.(PT)
		if !ok {
			r.fail(fmt.Errorf("corrupt stream: object id %d has type %T, want %T", id, obj, loaded))
			return nil
		}
		return loaded
	}
	if id != int32(len(r.objects)) {
		r.fail(fmt.Errorf("corrupt stream: unknown object id %d", id))
		return nil
	}
	obj := PT(new(T))
	r.objects[id] = obj
	obj.Load(r)
	return obj
}

// LoadObjects reads a count-prefixed list of identity-tracked objects.
func LoadObjects[T any, PT interface {
	Persistent
	*T
}](r *Reader) []PT {
	n := r.readCount()
	if n == 0 {
		return nil
	}
	objs := make([]PT, 0, n)
	for i := 0; i < n; i++ {
		objs = append(objs, LoadObject[T, PT](r))
	}
	return objs
}
