package pool

import "fmt"

// Property maps and the head record hold loosely typed configuration
// values. They are encoded with a small tagged codec so the format stays
// independent of any runtime container encoding.
const (
	variantNil = iota
	variantBool
	variantInt
	variantFloat
	variantString
	variantList
	variantMap
)

// WriteVariant writes a configuration value. Integer types are normalized
// to int64 on the wire; unsupported types latch an error.
func (w *Writer) WriteVariant(v any) {
	switch val := v.(type) {
	case nil:
		w.WriteInt(variantNil)
	case bool:
		w.WriteInt(variantBool)
		w.WriteBool(val)
	case int:
		w.WriteInt(variantInt)
		w.WriteInt64(int64(val))
	case int32:
		w.WriteInt(variantInt)
		w.WriteInt64(int64(val))
	case int64:
		w.WriteInt(variantInt)
		w.WriteInt64(val)
	case float64:
		w.WriteInt(variantFloat)
		w.WriteFloat(val)
	case string:
		w.WriteInt(variantString)
		w.WriteString(val)
	case []string:
		w.WriteInt(variantList)
		w.WriteInt(len(val))
		for _, item := range val {
			w.WriteVariant(item)
		}
	case []any:
		w.WriteInt(variantList)
		w.WriteInt(len(val))
		for _, item := range val {
			w.WriteVariant(item)
		}
	case map[string]any:
		w.WriteInt(variantMap)
		keys := sortedKeys(val)
		w.WriteInt(len(keys))
		for _, k := range keys {
			w.WriteString(k)
			w.WriteVariant(val[k])
		}
	default:
		if w.err == nil {
			w.err = fmt.Errorf("cannot store value of type %T", v)
		}
	}
}

// ReadVariant reads a configuration value.
func (r *Reader) ReadVariant() any {
	switch tag := r.ReadInt(); tag {
	case variantNil:
		return nil
	case variantBool:
		return r.ReadBool()
	case variantInt:
		return r.ReadInt64()
	case variantFloat:
		return r.ReadFloat()
	case variantString:
		return r.ReadString()
	case variantList:
		n := r.readCount()
		list := make([]any, 0, n)
		for i := 0; i < n; i++ {
			list = append(list, r.ReadVariant())
		}
		return list
	case variantMap:
		n := r.readCount()
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			k := r.ReadString()
			m[k] = r.ReadVariant()
		}
		return m
	default:
		if r.err == nil {
			r.fail(fmt.Errorf("corrupt stream: unknown variant tag %d", tag))
		}
		return nil
	}
}

// WriteVariantMap writes a map of configuration values with sorted keys.
func (w *Writer) WriteVariantMap(m map[string]any) {
	keys := sortedKeys(m)
	w.WriteInt(len(keys))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteVariant(m[k])
	}
}

// ReadVariantMap reads a map of configuration values.
func (r *Reader) ReadVariantMap() map[string]any {
	n := r.readCount()
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k := r.ReadString()
		m[k] = r.ReadVariant()
	}
	return m
}

// NormalizeVariant maps v onto the codec's value domain: ints widen to
// int64, string slices become []any. Callers comparing an in-memory
// configuration against a loaded head record normalize both sides first.
func NormalizeVariant(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case []string:
		list := make([]any, len(val))
		for i, item := range val {
			list[i] = item
		}
		return list
	case []any:
		list := make([]any, len(val))
		for i, item := range val {
			list[i] = NormalizeVariant(item)
		}
		return list
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = NormalizeVariant(item)
		}
		return m
	default:
		return v
	}
}
