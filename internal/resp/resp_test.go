package resp

import (
	"bufio"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArray(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("*2\r\n$4\r\nPING\r\n$5\r\nhello\r\n"))
	args, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"PING", "hello"}, args)
}

func TestDecodeInlineSimpleString(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("+PING\r\n"))
	args, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"PING"}, args)
}

func TestDecodeBinarySafe(t *testing.T) {
	payload := "a\r\nb\x00c"
	raw := "*2\r\n$3\r\nGET\r\n$" + strconv.Itoa(len(payload)) + "\r\n" + payload + "\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	args, err := Decode(r)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, payload, args[1])
}

func TestDecodeMalformed(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("*2\r\n$4\r\nPING\r\nnotbulk\r\n"))
	_, err := Decode(r)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDecodeEmptyLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\r\n"))
	args, err := Decode(r)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestEncodeReplyShapes(t *testing.T) {
	assert.Equal(t, "+OK\r\n", string(SimpleString("OK")))
	assert.Equal(t, "-ERR boom\r\n", string(Error("ERR boom")))
	assert.Equal(t, ":42\r\n", string(Integer(42)))
	assert.Equal(t, "$5\r\nhello\r\n", string(BulkString("hello")))
	assert.Equal(t, "$-1\r\n", string(NullBulk()))
	assert.Equal(t, "*-1\r\n", string(NullArray()))
	assert.Equal(t, "*0\r\n", string(Array(nil)))
}

func TestEncodeBulkStrings(t *testing.T) {
	got := BulkStrings([]string{"c", "b", "a"})
	assert.Equal(t, "*3\r\n$1\r\nc\r\n$1\r\nb\r\n$1\r\na\r\n", string(got))
}

func TestEncodeNestedArray(t *testing.T) {
	inner := Array([]Reply{BulkString("f1"), BulkString("v1")})
	outer := Array([]Reply{BulkString("id"), inner})
	assert.Equal(t, "*2\r\n$2\r\nid\r\n*2\r\n$2\r\nf1\r\n$2\r\nv1\r\n", string(outer))
}
