// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package storage

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/jade-signer/jade-signer/internal/fsutil"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

const (
	// BoltFileName is the database file inside the keystore root.
	BoltFileName = "keyfiles.db"

	// boltOpenTimeout bounds the wait for the database file lock.
	boltOpenTimeout = time.Second
)

var keyfilesBucket = []byte("keyfiles")

// BoltStore keeps one record per address in a bbolt database. Keys are the
// raw 20 address bytes, so bucket iteration order is address order.
type BoltStore struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// OpenBoltStore opens or creates the database in dir.
func OpenBoltStore(dir string, logger *slog.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fsutil.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageInit, err)
	}

	path := filepath.Join(dir, BoltFileName)
	db, err := bbolt.Open(path, fsutil.StoreFilePerm, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageInit, path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(keyfilesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", ErrStorageInit, err)
	}

	return &BoltStore{db: db, logger: logger}, nil
}

func (b *BoltStore) Put(kf *keyfile.Keyfile) error {
	data, err := keyfile.Marshal(kf)
	if err != nil {
		return storeErr("encode keyfile", err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(keyfilesBucket).Put(kf.Address[:], data)
	})
	if err != nil {
		return storeErr("put", err)
	}
	return nil
}

func (b *BoltStore) Get(addr keyfile.Address) (*keyfile.Keyfile, error) {
	var kf *keyfile.Keyfile
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(keyfilesBucket).Get(addr[:])
		if data == nil {
			return notFound(addr)
		}
		var err error
		kf, err = keyfile.Parse(data)
		if err != nil {
			return storeErr("decode "+addr.String(), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if kf.Address != addr {
		return nil, storeErr("get", fmt.Errorf("record for %s holds %s", addr, kf.Address))
	}
	return kf, nil
}

func (b *BoltStore) List(f Filter) ([]keyfile.Summary, error) {
	var out []keyfile.Summary
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(keyfilesBucket).ForEach(func(k, v []byte) error {
			kf, err := keyfile.Parse(v)
			if err != nil {
				b.logger.Warn("skipping invalid keyfile record", "key", fmt.Sprintf("%x", k), "error", err)
				return nil
			}
			if !bytes.Equal(kf.Address[:], k) {
				b.logger.Warn("skipping keyfile record under wrong key", "key", fmt.Sprintf("%x", k), "address", kf.Address)
				return nil
			}
			out = append(out, kf.Summary())
			return nil
		})
	})
	if err != nil {
		return nil, storeErr("list", err)
	}
	return filterAndSort(out, f), nil
}

func (b *BoltStore) SetHidden(addr keyfile.Address, hidden bool) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(keyfilesBucket)
		data := bucket.Get(addr[:])
		if data == nil {
			return notFound(addr)
		}
		kf, err := keyfile.Parse(data)
		if err != nil {
			return storeErr("decode "+addr.String(), err)
		}
		kf.Hidden = hidden
		updated, err := keyfile.Marshal(kf)
		if err != nil {
			return storeErr("encode keyfile", err)
		}
		if err := bucket.Put(addr[:], updated); err != nil {
			return storeErr("put", err)
		}
		return nil
	})
}

func (b *BoltStore) Delete(addr keyfile.Address) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(keyfilesBucket)
		if bucket.Get(addr[:]) == nil {
			return notFound(addr)
		}
		if err := bucket.Delete(addr[:]); err != nil {
			return storeErr("delete", err)
		}
		return nil
	})
}

func (b *BoltStore) Type() Type { return TypeBolt }

func (b *BoltStore) Close() error {
	if err := b.db.Close(); err != nil {
		return storeErr("close", err)
	}
	return nil
}
