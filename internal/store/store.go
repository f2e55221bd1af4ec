package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
)

const (
	expenseBucketName = "expenses"
	cacheBucketName   = "extraction_cache"
)

// Store persists normalized expense records and caches extraction results
// in BoltDB. Expense keys are "<userID>/<recordID>" so per-user queries are
// prefix scans; cache keys are "<userID>|<fileURL>".
type Store struct {
	db *bbolt.DB
}

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(expenseBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(cacheBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRecord writes a record, assigning an ID and CreatedAt when absent,
// and returns the stored record.
func (s *Store) SaveRecord(rec *extraction.NormalizedRecord) (*extraction.NormalizedRecord, error) {
	if rec.UserID == "" {
		return nil, fmt.Errorf("record has no user ID")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return bucket.Put(expenseKey(rec.UserID, rec.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetRecord retrieves one record by user and ID.
func (s *Store) GetRecord(userID, id string) (*extraction.NormalizedRecord, error) {
	var rec *extraction.NormalizedRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data := bucket.Get(expenseKey(userID, id))
		if data == nil {
			return fmt.Errorf("record not found: %s", id)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns all records for a user.
func (s *Store) ListRecords(userID string) ([]*extraction.NormalizedRecord, error) {
	records := make([]*extraction.NormalizedRecord, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(expenseBucketName)).Cursor()
		prefix := []byte(userID + "/")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec extraction.NormalizedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(userID, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(expenseBucketName)).Delete(expenseKey(userID, id))
	})
}

// FindDuplicate reports whether a record with identical (userID, merchant,
// amount, date) exists that was created after since. It implements
// extraction.DuplicateChecker.
func (s *Store) FindDuplicate(ctx context.Context, userID, merchant string, amount float64, date string, since time.Time) (bool, error) {
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(expenseBucketName)).Cursor()
		prefix := []byte(userID + "/")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec extraction.NormalizedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			if rec.CreatedAt.Before(since) {
				continue
			}
			if rec.MerchantName == merchant && rec.ReceiptDate == date && sameAmount(rec.Amount, amount) {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// CachedResult returns a previously processed result for (userID, fileURL),
// letting the serving layer short-circuit re-extraction of the same image.
func (s *Store) CachedResult(userID, fileURL string) (*extraction.NormalizedRecord, bool) {
	var rec *extraction.NormalizedRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(cacheBucketName)).Get(cacheKey(userID, fileURL))
		if data == nil {
			return fmt.Errorf("cache miss")
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, false
	}
	return rec, true
}

// CacheResult stores a processed result for (userID, fileURL).
func (s *Store) CacheResult(userID, fileURL string, rec *extraction.NormalizedRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return tx.Bucket([]byte(cacheBucketName)).Put(cacheKey(userID, fileURL), data)
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func expenseKey(userID, id string) []byte {
	return []byte(userID + "/" + id)
}

func cacheKey(userID, fileURL string) []byte {
	return []byte(userID + "|" + fileURL)
}

// sameAmount compares amounts at cent granularity; records round-trip
// through JSON floats.
func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
