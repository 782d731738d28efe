package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/shadowatlas/atlas/shared/fileutil"
	"github.com/shadowatlas/atlas/shared/params"
)

// DatabaseFileName is the bbolt file name created under the configured
// directory, mirroring the teacher's validator.db convention.
var DatabaseFileName = "atlas.db"

var (
	bucketJobs               = []byte("jobs")
	bucketJobScopes          = []byte("job_scopes")
	bucketExtractions        = []byte("extractions")
	bucketFailures           = []byte("failures")
	bucketNotConfigured      = []byte("not_configured")
	bucketSnapshots          = []byte("snapshots")
	bucketSnapshotRegions    = []byte("snapshot_regions")
	bucketValidationResults  = []byte("validation_results")
	bucketLatestSnapshotID   = []byte("latest_snapshot_id")
)

// BoltStore is the reference Repository implementation backed by
// BoltDB, adapted from the teacher's validator/db/kv Store: a single
// *bolt.DB, a path, and a mutex guarding non-transactional bookkeeping
// (spec.md §5: "a single pool for both read and write; writes are
// always in a transaction").
type BoltStore struct {
	db           *bolt.DB
	databasePath string
	lock         sync.Mutex
}

// NewBoltStore opens (creating if needed) a BoltDB-backed Repository at
// dirPath, with every bucket from spec.md §6's persistence schema
// created up front.
func NewBoltStore(dirPath string) (*BoltStore, error) {
	hasDir, err := fileutil.HasDir(dirPath)
	if err != nil {
		return nil, err
	}
	if !hasDir {
		if err := fileutil.MkdirAll(dirPath); err != nil {
			return nil, err
		}
	}

	datafile := filepath.Join(dirPath, DatabaseFileName)
	ioCfg := params.AtlasIoConfig()
	db, err := bolt.Open(datafile, ioCfg.ReadWritePermissions, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}

	store := &BoltStore{db: db, databasePath: dirPath}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{
			bucketJobs, bucketJobScopes, bucketExtractions, bucketFailures,
			bucketNotConfigured, bucketSnapshots, bucketSnapshotRegions,
			bucketValidationResults, bucketLatestSnapshotID,
		} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return store, nil
}

// DatabasePath returns the directory this store writes files under.
func (s *BoltStore) DatabasePath() string {
	return s.databasePath
}

// Close closes the underlying BoltDB handle.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// ClearDB removes the database file, for test teardown.
func (s *BoltStore) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(filepath.Join(s.databasePath, DatabaseFileName))
}

func (s *BoltStore) CreateJob(ctx context.Context, job Job) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketJobs), []byte(job.JobID), job)
	})
}

func (s *BoltStore) UpdateJobStatus(ctx context.Context, jobID, status string, finishedAt *time.Time) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketJobs)
		var job Job
		if err := getJSON(bucket, []byte(jobID), &job); err != nil {
			return err
		}
		job.Status = status
		job.FinishedAt = finishedAt
		return putJSON(bucket, []byte(jobID), job)
	})
}

func (s *BoltStore) RecordExtractionWithValidation(ctx context.Context, ext Extraction, validation *ValidationResult) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(fmt.Sprintf("%s/%s/%d", ext.JobID, ext.LayerType, ext.RetrievedAt.UnixNano()))
		if err := putJSON(tx.Bucket(bucketExtractions), key, ext); err != nil {
			return err
		}
		if validation != nil {
			vkey := []byte(fmt.Sprintf("%s/%s/%s", validation.JobID, validation.CountryCode, validation.LayerType))
			if err := putJSON(tx.Bucket(bucketValidationResults), vkey, *validation); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) RecordFailure(ctx context.Context, failure Failure) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(fmt.Sprintf("%s/%s/%d", failure.JobID, failure.LayerType, failure.OccurredAt.UnixNano()))
		return putJSON(tx.Bucket(bucketFailures), key, failure)
	})
}

func (s *BoltStore) RecordNotConfigured(ctx context.Context, nc NotConfigured) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(fmt.Sprintf("%s/%s", nc.CountryCode, nc.LayerType))
		return putJSON(tx.Bucket(bucketNotConfigured), key, nc)
	})
}

func (s *BoltStore) CreateSnapshotWithRegions(ctx context.Context, snap Snapshot, regions []SnapshotRegion) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := putJSON(tx.Bucket(bucketSnapshots), []byte(snap.SnapshotID), snap); err != nil {
			return err
		}
		regionsBucket := tx.Bucket(bucketSnapshotRegions)
		for _, r := range regions {
			key := []byte(fmt.Sprintf("%s/%s/%s", snap.SnapshotID, r.CountryCode, r.RegionCode))
			if err := putJSON(regionsBucket, key, r); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketLatestSnapshotID).Put(bucketLatestSnapshotID, []byte(snap.SnapshotID))
	})
}

func (s *BoltStore) SupersedeSnapshot(ctx context.Context, snapshotID string, supersededAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		var snap Snapshot
		if err := getJSON(bucket, []byte(snapshotID), &snap); err != nil {
			return err
		}
		snap.SupersededAt = &supersededAt
		return putJSON(bucket, []byte(snapshotID), snap)
	})
}

func (s *BoltStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var id []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLatestSnapshotID).Get(bucketLatestSnapshotID)
		if v != nil {
			id = append(id, v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if id == nil {
		return nil, nil
	}
	return s.SnapshotByID(ctx, string(id))
}

func (s *BoltStore) SnapshotByID(ctx context.Context, snapshotID string) (*Snapshot, error) {
	var snap Snapshot
	found := false
	if err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSnapshots).Get([]byte(snapshotID))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &snap)
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}

func putJSON(bucket *bolt.Bucket, key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return bucket.Put(key, raw)
}

func getJSON(bucket *bolt.Bucket, key []byte, v interface{}) error {
	raw := bucket.Get(key)
	if raw == nil {
		return fmt.Errorf("key %q not found", key)
	}
	return json.Unmarshal(raw, v)
}
