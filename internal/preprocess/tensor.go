package preprocess

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/irepack/irepack/internal/xfs"
)

// Tensor is a dense float32 tensor in NCHW layout.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NumElements returns the product of the tensor's dimensions.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Bytes returns the raw little-endian float32 bytes of the tensor, with no
// length header or shape metadata.
func (t *Tensor) Bytes() []byte {
	buf := make([]byte, len(t.Data)*4)
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// ReadBin reads a raw little-endian float32 tensor file.
func ReadBin(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor file: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("tensor file %s has %d bytes, not a multiple of 4", path, len(raw))
	}

	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return data, nil
}

// WriteFile writes the tensor's raw bytes to path, replacing any stale file.
func (t *Tensor) WriteFile(path string) error {
	if err := xfs.RemoveIfPresent(path); err != nil {
		return err
	}

	if err := os.WriteFile(path, t.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write tensor to %s: %w", path, err)
	}

	return nil
}
