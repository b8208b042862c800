// internal/storage/leveldb/client.go
package leveldb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"opening-server/internal/config"
	"opening-server/internal/models"
	"opening-server/internal/storage"
)

const openingKeyPrefix = "opening:"

func openingKey(id string) []byte {
	return []byte(fmt.Sprintf("%s%s", openingKeyPrefix, id))
}

// Client is an OpeningStore backed by an embedded LevelDB database, for
// deployments that want saved openings to survive restarts without a
// database server.
type Client struct {
	db    *leveldb.DB
	mutex sync.RWMutex
}

func NewClient(cfg config.LevelDBConfig) (*Client, error) {
	opts := &opt.Options{
		CompactionTableSize: 2 * 1024 * 1024, // 2MB
		WriteBuffer:         1 * 1024 * 1024, // 1MB
	}

	db, err := leveldb.OpenFile(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Save(ctx context.Context, opening *models.Opening) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	data, err := json.Marshal(opening)
	if err != nil {
		return fmt.Errorf("failed to marshal opening: %w", err)
	}

	return c.db.Put(openingKey(opening.ID), data, nil)
}

func (c *Client) Get(ctx context.Context, id string) (*models.Opening, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, err := c.db.Get(openingKey(id), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, storage.ErrOpeningNotFound
		}
		return nil, err
	}

	var opening models.Opening
	if err := json.Unmarshal(data, &opening); err != nil {
		return nil, fmt.Errorf("failed to unmarshal opening: %w", err)
	}

	return &opening, nil
}

func (c *Client) ListByUser(ctx context.Context, userID string) ([]models.Opening, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	iter := c.db.NewIterator(util.BytesPrefix([]byte(openingKeyPrefix)), nil)
	defer iter.Release()

	openings := make([]models.Opening, 0)
	for iter.Next() {
		var opening models.Opening
		if err := json.Unmarshal(iter.Value(), &opening); err != nil {
			continue
		}
		if opening.UserID == userID {
			openings = append(openings, opening)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	sort.Slice(openings, func(i, j int) bool {
		return openings[i].CreatedAt.After(openings[j].CreatedAt)
	})
	return openings, nil
}

func (c *Client) Delete(ctx context.Context, id, userID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	data, err := c.db.Get(openingKey(id), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return storage.ErrOpeningNotFound
		}
		return err
	}

	var opening models.Opening
	if err := json.Unmarshal(data, &opening); err != nil {
		return fmt.Errorf("failed to unmarshal opening: %w", err)
	}
	if opening.UserID != userID {
		return storage.ErrNotOwner
	}

	return c.db.Delete(openingKey(id), nil)
}
