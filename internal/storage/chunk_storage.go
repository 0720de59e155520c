package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world"
)

// ChunkStorage хранит секции мира в BadgerDB
type ChunkStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewChunkStorage открывает хранилище в каталоге dataPath/world
func NewChunkStorage(dataPath string) (*ChunkStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	return openChunkStorage(opts, dbPath)
}

// NewInMemoryChunkStorage открывает хранилище без записи на диск (тесты, CLI)
func NewInMemoryChunkStorage() (*ChunkStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return openChunkStorage(opts, "")
}

func openChunkStorage(opts badger.Options, dbPath string) (*ChunkStorage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &ChunkStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (cs *ChunkStorage) Close() error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if !cs.isReady {
		return nil
	}

	cs.isReady = false
	return cs.db.Close()
}

// SaveChunk сохраняет секцию целиком
func (cs *ChunkStorage) SaveChunk(ctx context.Context, chunk *world.Chunk) error {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeChunk(chunk)
	if err != nil {
		return err
	}

	return cs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chunkKey("", chunk.Coords)), data)
	})
}

// LoadChunk загружает секцию; world.ErrChunkNotFound, если её нет
func (cs *ChunkStorage) LoadChunk(ctx context.Context, coords vec.Vec3) (*world.Chunk, error) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := cs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chunkKey("", coords)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, world.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения чанка %s: %w", coords, err)
	}

	return DecodeChunk(coords, data)
}

// DeleteChunk удаляет секцию (она будет сгенерирована заново)
func (cs *ChunkStorage) DeleteChunk(ctx context.Context, coords vec.Vec3) error {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	return cs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(chunkKey("", coords)))
	})
}

// CountChunks возвращает количество сохранённых секций
func (cs *ChunkStorage) CountChunks() (int, error) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return 0, fmt.Errorf("хранилище не готово")
	}

	count := 0
	err := cs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("chunk:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
