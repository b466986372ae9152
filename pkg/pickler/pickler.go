// Package pickler writes Python pickle (protocol 2) streams for plain data:
// None, bools, integers, floats, strings, lists, tuples and string-keyed
// dicts, plus calls to importable globals such as class constructors.
// The output loads with Python's pickle.load and with gopickle.
package pickler

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	opProto      = 0x80
	opStop       = '.'
	opNone       = 'N'
	opNewTrue    = 0x88
	opNewFalse   = 0x89
	opBinInt1    = 'K'
	opBinInt2    = 'M'
	opBinInt     = 'J'
	opLong1      = 0x8a
	opBinFloat   = 'G'
	opBinUnicode = 'X'
	opEmptyList  = ']'
	opEmptyDict  = '}'
	opMark       = '('
	opAppends    = 'e'
	opSetItems   = 'u'
	opGlobal     = 'c'
	opEmptyTuple = ')'
	opTuple      = 't'
	opTuple1     = 0x85
	opTuple2     = 0x86
	opTuple3     = 0x87
	opReduce     = 'R'

	protocol = 2
)

// Global names a module-level Python object, usually a class.
type Global struct {
	Module string
	Name   string
}

// Tuple is pickled as a Python tuple.
type Tuple []interface{}

// Call is pickled as the result of calling Func with Args.
type Call struct {
	Func Global
	Args Tuple
}

var (
	globalType = reflect.TypeOf(Global{})
	tupleType  = reflect.TypeOf(Tuple{})
	callType   = reflect.TypeOf(Call{})
)

// Encoder writes one pickled object per Encode call.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes v as a complete pickle stream.
func (e *Encoder) Encode(v interface{}) error {
	e.w.WriteByte(opProto)
	e.w.WriteByte(protocol)
	if err := e.value(reflect.ValueOf(v)); err != nil {
		return err
	}
	e.w.WriteByte(opStop)
	return e.w.Flush()
}

// Marshal returns the pickle encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) value(v reflect.Value) error {
	if !v.IsValid() {
		e.w.WriteByte(opNone)
		return nil
	}

	switch v.Type() {
	case globalType:
		return e.global(v.Interface().(Global))
	case tupleType:
		return e.tuple(v.Interface().(Tuple))
	case callType:
		c := v.Interface().(Call)
		if err := e.global(c.Func); err != nil {
			return err
		}
		if err := e.tuple(c.Args); err != nil {
			return err
		}
		e.w.WriteByte(opReduce)
		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			e.w.WriteByte(opNone)
			return nil
		}
		return e.value(v.Elem())
	case reflect.Bool:
		if v.Bool() {
			e.w.WriteByte(opNewTrue)
		} else {
			e.w.WriteByte(opNewFalse)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("unsigned integer %d out of range", u)
		}
		e.int(int64(u))
	case reflect.Float32, reflect.Float64:
		e.w.WriteByte(opBinFloat)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Float()))
		e.w.Write(b[:])
	case reflect.String:
		e.string(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			e.w.WriteByte(opEmptyList)
			return nil
		}
		e.w.WriteByte(opEmptyList)
		if v.Len() == 0 {
			return nil
		}
		e.w.WriteByte(opMark)
		for i := 0; i < v.Len(); i++ {
			if err := e.value(v.Index(i)); err != nil {
				return err
			}
		}
		e.w.WriteByte(opAppends)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", v.Type().Key())
		}
		e.w.WriteByte(opEmptyDict)
		if v.Len() == 0 {
			return nil
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		e.w.WriteByte(opMark)
		for _, k := range keys {
			e.string(k.String())
			if err := e.value(v.MapIndex(k)); err != nil {
				return err
			}
		}
		e.w.WriteByte(opSetItems)
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

func (e *Encoder) int(n int64) {
	switch {
	case n >= 0 && n <= math.MaxUint8:
		e.w.WriteByte(opBinInt1)
		e.w.WriteByte(byte(n))
	case n >= 0 && n <= math.MaxUint16:
		e.w.WriteByte(opBinInt2)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n))
		e.w.Write(b[:])
	case n >= math.MinInt32 && n <= math.MaxInt32:
		e.w.WriteByte(opBinInt)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(int32(n)))
		e.w.Write(b[:])
	default:
		b := longBytes(n)
		e.w.WriteByte(opLong1)
		e.w.WriteByte(byte(len(b)))
		e.w.Write(b)
	}
}

// longBytes is the shortest little-endian two's complement form of n.
func longBytes(n int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(n))
	for len(b) > 1 {
		last, prev := b[len(b)-1], b[len(b)-2]
		if (last == 0x00 && prev&0x80 == 0) || (last == 0xff && prev&0x80 != 0) {
			b = b[:len(b)-1]
			continue
		}
		break
	}
	return b
}

func (e *Encoder) global(g Global) error {
	if g.Module == "" || g.Name == "" || strings.ContainsRune(g.Module+g.Name, '\n') {
		return fmt.Errorf("invalid global %q.%q", g.Module, g.Name)
	}
	e.w.WriteByte(opGlobal)
	e.w.WriteString(g.Module + "\n" + g.Name + "\n")
	return nil
}

func (e *Encoder) tuple(t Tuple) error {
	if len(t) == 0 {
		e.w.WriteByte(opEmptyTuple)
		return nil
	}
	if len(t) > 3 {
		e.w.WriteByte(opMark)
	}
	for _, item := range t {
		if err := e.value(reflect.ValueOf(item)); err != nil {
			return err
		}
	}
	switch len(t) {
	case 1:
		e.w.WriteByte(opTuple1)
	case 2:
		e.w.WriteByte(opTuple2)
	case 3:
		e.w.WriteByte(opTuple3)
	default:
		e.w.WriteByte(opTuple)
	}
	return nil
}

func (e *Encoder) string(s string) {
	b := surrogateEscape(s)
	e.w.WriteByte(opBinUnicode)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
	e.w.Write(n[:])
	e.w.Write(b)
}

// surrogateEscape returns s as UTF-8, with every byte that is not part of a
// valid sequence written as the lone surrogate U+DC00+b. Python decodes
// pickled strings with "surrogatepass", so such strings load as they would
// from os.fsdecode and round-trip through os.fsencode.
func surrogateEscape(s string) []byte {
	if utf8.ValidString(s) {
		return []byte(s)
	}
	out := make([]byte, 0, len(s)+8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			cp := 0xdc00 + rune(s[i])
			out = append(out, 0xe0|byte(cp>>12), 0x80|byte(cp>>6)&0x3f, 0x80|byte(cp)&0x3f)
		} else {
			out = append(out, s[i:i+size]...)
		}
		i += size
	}
	return out
}
