package uploads

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/alpacamint/internal/entity"
)

const (
	DefaultDir         = "./wal/uploads"
	uploadSegmentLimit = 1000
	uploadMaxSegments  = 100
	uploadKeyPrefix    = "secrets_upload_"
)

// WALStore keeps a ledger of DON-hosted secrets uploads.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens the upload ledger in dir, creating it on first use.
// An empty dir means DefaultDir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "uploads_",
		SegmentThreshold: uploadSegmentLimit,
		MaxSegments:      uploadMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init secrets upload WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the upload to the ledger. Callers must set DonID.
func (s *WALStore) Save(upload entity.SecretsUpload) error {
	if s == nil || s.wal == nil {
		return errors.New("secrets upload store is not initialized")
	}
	if upload.DonID == "" {
		return fmt.Errorf("secrets upload don id is required")
	}

	key := fmt.Sprintf("%s%s_%d", uploadKeyPrefix, upload.DonID, upload.SlotID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	payload, err := json.Marshal(entity.SecretsUploadRecord{Index: nextIndex, Upload: upload})
	if err != nil {
		return errors.Wrap(err, "marshal secrets upload")
	}

	return s.wal.Write(nextIndex, key, payload)
}

// UploadsAfter lists uploads with a ledger index greater than index, oldest first.
func (s *WALStore) UploadsAfter(index uint64) ([]entity.SecretsUploadRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("secrets upload store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]entity.SecretsUploadRecord, 0, current-index)
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, uploadKeyPrefix) {
			continue
		}
		var record entity.SecretsUploadRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			return nil, errors.Wrap(err, "decode secrets upload")
		}
		if record.Index <= index {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Latest returns the most recent upload for a DON slot.
func (s *WALStore) Latest(donID string, slotID uint) (entity.SecretsUpload, bool, error) {
	records, err := s.UploadsAfter(0)
	if err != nil {
		return entity.SecretsUpload{}, false, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		u := records[i].Upload
		if u.DonID == donID && u.SlotID == slotID {
			return u, true, nil
		}
	}
	return entity.SecretsUpload{}, false, nil
}

// CurrentIndex is the ledger index of the last recorded upload, zero when empty.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close flushes the ledger. The store is unusable afterwards.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("secrets upload store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
