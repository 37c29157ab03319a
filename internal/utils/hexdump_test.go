package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexDumpEmpty(t *testing.T) {
	require.Empty(t, HexDump(nil, 0))
}

func TestHexDumpSingleLine(t *testing.T) {
	out := HexDump([]byte("hello"), 0)
	require.Contains(t, out, "68 65 6c 6c 6f")
	require.Contains(t, out, "|hello")
}

func TestHexDumpVaddrPrefix(t *testing.T) {
	out := HexDump(bytes.Repeat([]byte{0x41}, 16), 0x1000)
	require.Contains(t, out, "0000000000001000")
}

func TestHexDumpNonPrintableBytesDotted(t *testing.T) {
	out := HexDump([]byte{0x00, 0x01, 0x7f, 0x41}, 0)
	line := strings.SplitN(out, "\n", 2)[0]
	require.Contains(t, line, "..A")
}

func TestDumperMultiLineOffsets(t *testing.T) {
	var buf bytes.Buffer
	d := Dumper(&buf, 0)
	_, err := d.Write(bytes.Repeat([]byte{0x42}, 20))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "0000000000000010")
}

func TestDumperWriteAfterCloseErrors(t *testing.T) {
	var buf bytes.Buffer
	d := Dumper(&buf, 0)
	require.NoError(t, d.Close())

	_, err := d.Write([]byte("x"))
	require.Error(t, err)
}

func TestDebugHexDumpNilLoggerNoPanic(t *testing.T) {
	require.NotPanics(t, func() {
		DebugHexDump(nil, []byte("data"))
	})
}

func TestDebugHexDumpEmptyDataNoOp(t *testing.T) {
	require.NotPanics(t, func() {
		DebugHexDump(nil, nil)
	})
}
