package sender

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// propertiesEqual compares overlays deeply.
func propertiesEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// sameReference compares serializers and schedulers by identity: pointers,
// funcs, maps and channels by address, other comparable values with ==.
// Values of uncomparable types are only equal to themselves by address,
// which for non-reference kinds means never.
func sameReference(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	switch ta.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if !ta.Comparable() {
		return false
	}
	return comparableEqual(a, b)
}

// comparableEqual guards against structs of comparable type that hold
// interface fields with uncomparable dynamic values.
func comparableEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// hashOptions hashes the fields Equal compares. Overlay values contribute
// their scalar value or, for anything else, their type only; references
// contribute their type. Equal options therefore hash alike.
func hashOptions(props map[string]any, keySer, valueSer any, closeTimeout time.Duration,
	scheduler any, maxInFlight int, stopOnError bool) uint64 {
	d := xxhash.New()

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
		writeValue(d, props[k])
		_, _ = d.Write([]byte{0})
	}

	fmt.Fprintf(d, "%T|%T|%T|", keySer, valueSer, scheduler)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(closeTimeout))
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(maxInFlight))
	_, _ = d.Write(buf[:])
	if stopOnError {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}

	return d.Sum64()
}

func writeValue(d *xxhash.Digest, v any) {
	switch x := v.(type) {
	case float64:
		if x == 0 {
			v = float64(0) // -0 == 0
		}
		fmt.Fprintf(d, "%T:%v", v, v)
	case float32:
		if x == 0 {
			v = float32(0)
		}
		fmt.Fprintf(d, "%T:%v", v, v)
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		fmt.Fprintf(d, "%T:%v", v, v)
	default:
		fmt.Fprintf(d, "%T", v)
	}
}
