package backup_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/construction-robotics/site-coordination/internal/backup"
)

type fakeUploader struct {
	uploads [][]byte
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, data []byte) error {
	if u.err != nil {
		return u.err
	}
	u.uploads = append(u.uploads, data)
	return nil
}

func TestSyncOnceUploadsFileContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.sqlite")
	if err := os.WriteFile(path, []byte("sqlite bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	uploader := &fakeUploader{}
	syncer := backup.NewSyncer(uploader, path, time.Hour)

	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(uploader.uploads) != 1 || !bytes.Equal(uploader.uploads[0], []byte("sqlite bytes")) {
		t.Fatalf("unexpected uploads %v", uploader.uploads)
	}
}

func TestSyncOnceSkipsMissingFile(t *testing.T) {
	uploader := &fakeUploader{}
	syncer := backup.NewSyncer(uploader, filepath.Join(t.TempDir(), "missing.sqlite"), time.Hour)

	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(uploader.uploads) != 0 {
		t.Fatal("missing file must not upload")
	}
}

func TestSyncOnceReportsUploadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.sqlite")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	uploader := &fakeUploader{err: errors.New("graph down")}
	syncer := backup.NewSyncer(uploader, path, time.Hour)

	if err := syncer.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected the upload error")
	}
}

func TestSyncerStartStop(t *testing.T) {
	syncer := backup.NewSyncer(&fakeUploader{}, filepath.Join(t.TempDir(), "store.sqlite"), time.Hour)
	syncer.Start()
	syncer.Stop()
}
