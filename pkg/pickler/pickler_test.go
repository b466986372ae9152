package pickler

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalLayout(t *testing.T) {
	data, err := Marshal(map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	want := []byte("\x80\x02}(X\x04\x00\x00\x00nameX\x01\x00\x00\x00xu.")
	assert.Equal(t, want, data)
}

func TestRoundTripThroughGopickle(t *testing.T) {
	data, err := Marshal(map[string]interface{}{
		"columns": []string{"a", "b"},
		"data": [][]interface{}{
			{int64(2), "violin"},
			{int64(44100), 60.5},
			{int64(-70000), nil},
			{int64(1) << 40, true},
		},
	})
	require.NoError(t, err)

	obj, err := pickle.Loads(string(data))
	require.NoError(t, err)
	dict, ok := obj.(*types.Dict)
	require.True(t, ok, "got %T", obj)

	cols, ok := dict.Get("columns")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b"}, []interface{}(*cols.(*types.List)))

	rowsObj, ok := dict.Get("data")
	require.True(t, ok)
	rows := *rowsObj.(*types.List)
	require.Len(t, rows, 4)

	first := *rows[0].(*types.List)
	assert.Equal(t, 2, first[0])
	assert.Equal(t, "violin", first[1])

	second := *rows[1].(*types.List)
	assert.Equal(t, 44100, second[0])
	assert.Equal(t, 60.5, second[1])

	third := *rows[2].(*types.List)
	assert.Equal(t, -70000, third[0])
	assert.Nil(t, third[1])

	fourth := *rows[3].(*types.List)
	assert.Equal(t, true, fourth[1])
	switch n := fourth[0].(type) {
	case int:
		assert.Equal(t, 1<<40, n)
	case *big.Int:
		assert.Equal(t, int64(1)<<40, n.Int64())
	default:
		t.Fatalf("unexpected long type %T", n)
	}
}

func TestLongBytes(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x01}, longBytes(1<<32))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0x7f, 0xff}, longBytes(-(1<<31)-1))
	assert.Equal(t, []byte{0x00, 0x80, 0x00}, longBytes(1<<15))
	assert.Equal(t, []byte{0xff}, longBytes(-1))
}

func TestUnsupportedTypes(t *testing.T) {
	_, err := Marshal(map[int]string{1: "x"})
	assert.Error(t, err)
	_, err = Marshal(struct{}{})
	assert.Error(t, err)
}

func TestCallLayout(t *testing.T) {
	data, err := Marshal(Call{
		Func: Global{Module: "pandas.core.frame", Name: "DataFrame"},
		Args: Tuple{[]interface{}{}, nil, []string{"a"}},
	})
	require.NoError(t, err)
	want := []byte("\x80\x02cpandas.core.frame\nDataFrame\n]N](X\x01\x00\x00\x00ae\x87R.")
	assert.Equal(t, want, data)
}

func TestTupleLayout(t *testing.T) {
	tests := []struct {
		in   Tuple
		want string
	}{
		{Tuple{}, "\x80\x02)."},
		{Tuple{int64(1)}, "\x80\x02K\x01\x85."},
		{Tuple{int64(1), int64(2)}, "\x80\x02K\x01K\x02\x86."},
		{Tuple{int64(1), int64(2), int64(3), int64(4)}, "\x80\x02(K\x01K\x02K\x03K\x04t."},
	}
	for _, tt := range tests {
		data, err := Marshal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, []byte(tt.want), data)
	}
}

func TestInvalidGlobal(t *testing.T) {
	_, err := Marshal(Call{Func: Global{Module: "os"}})
	assert.Error(t, err)
	_, err = Marshal(Global{Module: "a\nb", Name: "c"})
	assert.Error(t, err)
}

type constructor struct {
	module, name string
}

type instance struct {
	class constructor
	args  []interface{}
}

func (c constructor) Call(args ...interface{}) (interface{}, error) {
	return instance{class: c, args: args}, nil
}

func TestCallThroughGopickle(t *testing.T) {
	data, err := Marshal(Call{
		Func: Global{Module: "pandas.core.frame", Name: "DataFrame"},
		Args: Tuple{[][]interface{}{{"a.wav", int64(2)}}, nil, []string{"relative_path", "channels"}},
	})
	require.NoError(t, err)

	u := pickle.NewUnpickler(bytes.NewReader(data))
	u.FindClass = func(module, name string) (interface{}, error) {
		return constructor{module: module, name: name}, nil
	}
	obj, err := u.Load()
	require.NoError(t, err)

	got, ok := obj.(instance)
	require.True(t, ok, "got %T", obj)
	assert.Equal(t, constructor{module: "pandas.core.frame", name: "DataFrame"}, got.class)
	require.Len(t, got.args, 3)
	assert.Nil(t, got.args[1])
	rows := *got.args[0].(*types.List)
	assert.Equal(t, []interface{}{"a.wav", 2}, []interface{}(*rows[0].(*types.List)))
	assert.Equal(t, []interface{}{"relative_path", "channels"}, []interface{}(*got.args[2].(*types.List)))
}

func TestInvalidUTF8IsSurrogateEscaped(t *testing.T) {
	data, err := Marshal("s\xff/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x80\x02X\x06\x00\x00\x00s\xed\xb3\xbf/a."), data)

	assert.Equal(t, []byte("naïve"), surrogateEscape("naïve"))
	assert.Equal(t, []byte("\xed\xb2\x80\xed\xb3\xbf"), surrogateEscape("\x80\xff"))
}
