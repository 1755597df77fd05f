package indexer

import "bytes"

// binarySniffSize is the content prefix inspected for binary data.
const binarySniffSize = 512

// isBinaryContent checks whether data appears to be binary by looking for
// null bytes in its first 512 bytes.
func isBinaryContent(data []byte) bool {
	n := len(data)
	if n > binarySniffSize {
		n = binarySniffSize
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// lineCount counts the lines of a non-empty byte slice.
func lineCount(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
