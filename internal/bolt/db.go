// Package bolt persists the record store document in a Bolt database. Each
// table lives in its own bucket keyed by 8-byte big-endian id, and a save
// replaces all tables inside one read-write transaction.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/store"
	bolt "go.etcd.io/bbolt"
)

var (
	languagesBucket   = []byte("languages")
	voicesBucket      = []byte("voices")
	namesBucket       = []byte("names")
	categoriesBucket  = []byte("categories")
	generationsBucket = []byte("generations")
	metaBucket        = []byte("meta")

	sequencesKey = []byte("sequences")
)

// Ensure persister implements interface.
var _ store.Persister = (*DB)(nil)

// DB represents a handle to a Bolt database holding one record store.
type DB struct {
	db *bolt.DB

	Path string
}

// NewDB returns a new instance of DB.
func NewDB(path string) *DB {
	return &DB{Path: path}
}

// Open opens the database file, creating it if needed.
func (db *DB) Open() error {
	if err := os.MkdirAll(filepath.Dir(db.Path), 0o700); err != nil {
		return err
	}

	d, err := bolt.Open(db.Path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt database %s: %w", db.Path, err)
	}
	db.db = d

	return nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// Load reads every table. A database without the meta bucket holds no document.
func (db *DB) Load() (*store.Document, error) {
	doc := &store.Document{}

	err := db.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return store.ErrMissing
		}
		if v := meta.Get(sequencesKey); v != nil {
			if err := json.Unmarshal(v, &doc.Sequences); err != nil {
				return fmt.Errorf("sequences: %v: %w", err, store.ErrMalformed)
			}
		}

		if err := loadTable(tx, languagesBucket, &doc.Languages); err != nil {
			return err
		}
		if err := loadTable(tx, voicesBucket, &doc.Voices); err != nil {
			return err
		}
		if err := loadTable(tx, namesBucket, &doc.Names); err != nil {
			return err
		}
		if err := loadTable(tx, categoriesBucket, &doc.Categories); err != nil {
			return err
		}
		return loadTable(tx, generationsBucket, &doc.Generations)
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("Loaded record store from %s", db.Path)
	return doc, nil
}

// Create writes the first document.
func (db *DB) Create(doc *store.Document) error {
	if err := db.db.Update(func(tx *bolt.Tx) error {
		return writeDocument(tx, doc)
	}); err != nil {
		return err
	}
	logger.Infof("Initialized record store at %s", db.Path)
	return nil
}

// Save replaces the stored document. It fails with store.ErrMissing when the
// database was never initialized.
func (db *DB) Save(doc *store.Document) error {
	return db.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(metaBucket) == nil {
			return fmt.Errorf("%s: %w", db.Path, store.ErrMissing)
		}
		return writeDocument(tx, doc)
	})
}

func writeDocument(tx *bolt.Tx, doc *store.Document) error {
	meta, err := tx.CreateBucketIfNotExists(metaBucket)
	if err != nil {
		return err
	}
	seq, err := json.Marshal(doc.Sequences)
	if err != nil {
		return err
	}
	if err := meta.Put(sequencesKey, seq); err != nil {
		return err
	}

	if err := putTable(tx, languagesBucket, len(doc.Languages), func(i int) (int, interface{}) {
		return doc.Languages[i].ID, doc.Languages[i]
	}); err != nil {
		return err
	}
	if err := putTable(tx, voicesBucket, len(doc.Voices), func(i int) (int, interface{}) {
		return doc.Voices[i].ID, doc.Voices[i]
	}); err != nil {
		return err
	}
	if err := putTable(tx, namesBucket, len(doc.Names), func(i int) (int, interface{}) {
		return doc.Names[i].ID, doc.Names[i]
	}); err != nil {
		return err
	}
	if err := putTable(tx, categoriesBucket, len(doc.Categories), func(i int) (int, interface{}) {
		return doc.Categories[i].ID, doc.Categories[i]
	}); err != nil {
		return err
	}
	return putTable(tx, generationsBucket, len(doc.Generations), func(i int) (int, interface{}) {
		return doc.Generations[i].ID, doc.Generations[i]
	})
}

// putTable recreates the bucket and writes n records returned by row.
func putTable(tx *bolt.Tx, name []byte, n int, row func(i int) (int, interface{})) error {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}
	}
	bkt, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		id, v := row(i)
		buf, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err := bkt.Put(itob(id), buf); err != nil {
			return err
		}
	}
	return nil
}

// loadTable decodes every value of the bucket, in key order, into dst.
func loadTable[T any](tx *bolt.Tx, name []byte, dst *[]T) error {
	*dst = []T{}

	bkt := tx.Bucket(name)
	if bkt == nil {
		return nil
	}
	return bkt.ForEach(func(k, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("%s/%d: %v: %w", name, btoi(k), err, store.ErrMalformed)
		}
		*dst = append(*dst, item)
		return nil
	})
}

// itob returns an 8-byte big-endian encoded byte slice of v.
func itob(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// btoi returns an integer decoded from an 8-byte big-endian encoded byte slice.
func btoi(b []byte) int {
	return int(binary.BigEndian.Uint64(b))
}
