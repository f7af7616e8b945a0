// Package store persists blocks, headers, and stake proofs in a bbolt
// key-value database. Block reads go through an in-memory LRU cache.
package store

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"lotus.dev/wire/avalanche"
	"lotus.dev/wire/consensus"
)

var (
	bucketHeaders   = []byte("headers_by_hash")
	bucketBlocks    = []byte("blocks_by_hash")
	bucketProofs    = []byte("proofs_by_id")
	bucketCanonical = []byte("canonical_by_height")
	bucketMeta      = []byte("chain_meta")
)

var keyTip = []byte("tip")

const defaultCacheSize = 256

type Options struct {
	// CacheSize bounds the block LRU. Zero means the default.
	CacheSize int
	Logger    *slog.Logger
}

// DB caches serialized block bytes rather than parsed blocks, so every
// GetBlock call returns an independently owned object graph.
type DB struct {
	db    *bolt.DB
	cache *lru.Cache[consensus.Hash, []byte]
	log   *slog.Logger
}

func Open(path string, opts Options) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path required")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketBlocks, bucketProofs, bucketCanonical, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	cache, err := lru.New[consensus.Hash, []byte](size)
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}

	logger.Debug("store opened", "path", path, "cache_size", size)
	return &DB{db: bdb, cache: cache, log: logger}, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// PutBlock stores a block and its header, keyed by the header hash. The
// header's size field must match the serialized block.
func (d *DB) PutBlock(b *consensus.Block) error {
	raw := consensus.BlockBytes(b)
	if b.Header.Size != uint64(len(raw)) {
		return fmt.Errorf("store: header size %d != serialized %d", b.Header.Size, len(raw))
	}
	hash := consensus.HeaderHash(b.Header)
	err := d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketHeaders).Put(hash[:], consensus.BlockHeaderBytes(b.Header)); err != nil {
			return err
		}
		return tx.Bucket(bucketBlocks).Put(hash[:], raw)
	})
	if err != nil {
		return err
	}
	d.cache.Add(hash, raw)
	d.log.Debug("block stored", "hash", hash.String(), "height", b.Header.Height, "txs", len(b.Txs))
	return nil
}

func (d *DB) GetBlock(hash consensus.Hash) (*consensus.Block, bool, error) {
	if raw, ok := d.cache.Get(hash); ok {
		b, err := consensus.ParseBlockBytes(raw)
		if err != nil {
			return nil, false, err
		}
		return b, true, nil
	}
	var raw []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlocks).Get(hash[:])
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	b, err := consensus.ParseBlockBytes(raw)
	if err != nil {
		return nil, false, err
	}
	d.cache.Add(hash, raw)
	return b, true, nil
}

func (d *DB) GetHeader(hash consensus.Hash) (*consensus.BlockHeader, bool, error) {
	var out *consensus.BlockHeader
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketHeaders).Get(hash[:])
		if v == nil {
			return nil
		}
		h, err := consensus.ParseBlockHeaderBytes(v)
		if err != nil {
			return err
		}
		out = &h
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

func (d *DB) PutProof(p *avalanche.Proof) error {
	id := p.ID()
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProofs).Put(id[:], avalanche.ProofBytes(p))
	})
}

func (d *DB) GetProof(id consensus.Hash) (*avalanche.Proof, bool, error) {
	var out *avalanche.Proof
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketProofs).Get(id[:])
		if v == nil {
			return nil
		}
		p, err := avalanche.ParseProofBytes(v)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

// SetTip marks a stored block as the canonical tip. Its header must already
// be present; the block's height gains a canonical_by_height entry.
func (d *DB) SetTip(hash consensus.Hash) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketHeaders).Get(hash[:])
		if raw == nil {
			return fmt.Errorf("store: tip %s not stored", hash)
		}
		h, err := consensus.ParseBlockHeaderBytes(raw)
		if err != nil {
			return err
		}
		var key [4]byte
		binary.BigEndian.PutUint32(key[:], h.Height)
		if err := tx.Bucket(bucketCanonical).Put(key[:], hash[:]); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyTip, hash[:])
	})
}

func (d *DB) Tip() (consensus.Hash, bool, error) {
	var tip consensus.Hash
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyTip)
		if v == nil {
			return nil
		}
		if len(v) != consensus.HashBytes {
			return fmt.Errorf("store: malformed tip entry")
		}
		copy(tip[:], v)
		ok = true
		return nil
	})
	return tip, ok, err
}

// HashByHeight returns the canonical block hash at a height, if one was set.
func (d *DB) HashByHeight(height uint32) (consensus.Hash, bool, error) {
	var hash consensus.Hash
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		var key [4]byte
		binary.BigEndian.PutUint32(key[:], height)
		v := tx.Bucket(bucketCanonical).Get(key[:])
		if v == nil {
			return nil
		}
		if len(v) != consensus.HashBytes {
			return fmt.Errorf("store: malformed canonical entry")
		}
		copy(hash[:], v)
		ok = true
		return nil
	})
	return hash, ok, err
}
