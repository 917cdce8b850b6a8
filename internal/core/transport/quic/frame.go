package quic

import (
	"bufio"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// MaxFrameSize 单帧最大长度
const MaxFrameSize = 64 * 1024

// WriteFrame 写入一个长度前缀帧
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 0, varint.UvarintSize(uint64(len(data)))+len(data))
	buf = append(buf, varint.ToUvarint(uint64(len(data)))...)
	buf = append(buf, data...)
	_, err := w.Write(buf)
	return err
}

// ReadFrame 读取一个长度前缀帧
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	size, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
