package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world"
	"github.com/annel0/raycast/internal/world/block"
)

// Формат секции: заголовок "VXC" + версия, затем 4096 ID блоков uint16 LE
// в порядке x, y, z. Весь буфер сжимается zstd.
const (
	chunkMagic   = "VXC"
	chunkVersion = byte(1)
	chunkVolume  = world.ChunkSize * world.ChunkSize * world.ChunkSize
	chunkRawSize = len(chunkMagic) + 1 + chunkVolume*2
)

// ErrCorruptChunk возвращается для повреждённых или чужих данных
var ErrCorruptChunk = errors.New("повреждённые данные чанка")

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(chunkRawSize*2)))
	})
	return codecErr
}

// EncodeChunk сериализует и сжимает секцию
func EncodeChunk(chunk *world.Chunk) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", err)
	}

	raw := make([]byte, chunkRawSize)
	copy(raw, chunkMagic)
	raw[len(chunkMagic)] = chunkVersion
	offset := len(chunkMagic) + 1

	chunk.Mu.RLock()
	for x := 0; x < world.ChunkSize; x++ {
		for y := 0; y < world.ChunkSize; y++ {
			for z := 0; z < world.ChunkSize; z++ {
				binary.LittleEndian.PutUint16(raw[offset:], uint16(chunk.Blocks[x][y][z]))
				offset += 2
			}
		}
	}
	chunk.Mu.RUnlock()

	return encoder.EncodeAll(raw, make([]byte, 0, 256)), nil
}

// DecodeChunk восстанавливает секцию с указанными координатами
func DecodeChunk(coords vec.Vec3, data []byte) (*world.Chunk, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", err)
	}

	raw, err := decoder.DecodeAll(data, make([]byte, 0, chunkRawSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptChunk, err)
	}
	if len(raw) != chunkRawSize || string(raw[:len(chunkMagic)]) != chunkMagic {
		return nil, fmt.Errorf("%w: неверный заголовок или размер %d", ErrCorruptChunk, len(raw))
	}
	if raw[len(chunkMagic)] != chunkVersion {
		return nil, fmt.Errorf("%w: версия %d", ErrCorruptChunk, raw[len(chunkMagic)])
	}

	chunk := world.NewChunk(coords)
	offset := len(chunkMagic) + 1
	for x := 0; x < world.ChunkSize; x++ {
		for y := 0; y < world.ChunkSize; y++ {
			for z := 0; z < world.ChunkSize; z++ {
				chunk.Blocks[x][y][z] = block.BlockID(binary.LittleEndian.Uint16(raw[offset:]))
				offset += 2
			}
		}
	}
	return chunk, nil
}

// chunkKey формирует ключ секции для KV-хранилищ
func chunkKey(prefix string, coords vec.Vec3) string {
	return fmt.Sprintf("%schunk:%d:%d:%d", prefix, coords.X, coords.Y, coords.Z)
}
