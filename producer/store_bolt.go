/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package producer

import (
	"errors"

	bolt "go.etcd.io/bbolt"
)

var BoltBucket = []byte("content")
var ErrBoltNoBucket = errors.New("no bucket in bolt")

// BoltStore keeps content in a single bbolt bucket keyed by Key.String().
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BoltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(key Key) (content []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BoltBucket)
		if bucket == nil {
			return ErrBoltNoBucket
		}
		if v := bucket.Get([]byte(key.String())); v != nil {
			content = append([]byte(nil), v...) // copy
		}
		return nil
	})
	return
}

func (s *BoltStore) Put(key Key, content []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BoltBucket)
		if bucket == nil {
			return ErrBoltNoBucket
		}
		return bucket.Put([]byte(key.String()), content)
	})
}

func (s *BoltStore) Remove(key Key) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BoltBucket)
		if bucket == nil {
			return ErrBoltNoBucket
		}
		return bucket.Delete([]byte(key.String()))
	})
}
