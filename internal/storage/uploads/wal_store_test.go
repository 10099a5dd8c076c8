package uploads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/alpacamint/internal/entity"
)

func testUpload(slot uint, version uint64) entity.SecretsUpload {
	ts := time.Unix(int64(version), 0).UTC()
	return entity.SecretsUpload{
		Timestamp:  ts,
		DonID:      "fun-ethereum-sepolia-1",
		Owner:      "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		SlotID:     slot,
		Version:    version,
		Expiration: ts.Add(72 * time.Hour),
		Gateway:    "https://01.functions-gateway.testnet.chain.link/",
		Success:    true,
		NodeResponses: []entity.NodeResponse{
			{NodeAddress: "0x01", Success: true},
		},
	}
}

func TestWALStore_SaveAndRead(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testUpload(0, 1700000000)))
	require.NoError(t, store.Save(testUpload(1, 1700000100)))
	require.NoError(t, store.Save(testUpload(0, 1700000200)))
	assert.Equal(t, uint64(3), store.CurrentIndex())

	records, err := store.UploadsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, uint64(1), records[0].Index)
	assert.Equal(t, testUpload(0, 1700000000), records[0].Upload)

	tail, err := store.UploadsAfter(2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, uint64(1700000200), tail[0].Upload.Version)

	none, err := store.UploadsAfter(3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWALStore_Latest(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testUpload(0, 1700000000)))
	require.NoError(t, store.Save(testUpload(0, 1700000200)))
	require.NoError(t, store.Save(testUpload(1, 1700000300)))

	latest, ok, err := store.Latest("fun-ethereum-sepolia-1", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1700000200), latest.Version)

	_, ok, err = store.Latest("fun-ethereum-sepolia-1", 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWALStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWALStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(testUpload(0, 1700000000)))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.UploadsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(1700000000), records[0].Upload.Version)
}

func TestWALStore_SaveRequiresDonID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	upload := testUpload(0, 1)
	upload.DonID = ""
	assert.Error(t, store.Save(upload))
}

func TestWALStore_NilStore(t *testing.T) {
	var store *WALStore
	assert.Error(t, store.Save(testUpload(0, 1)))
	assert.Zero(t, store.CurrentIndex())
	assert.Error(t, store.Close())
}
