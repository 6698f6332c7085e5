// Package backup periodically copies the SQLite database file to a
// SharePoint document library. The loop is best-effort: a failed upload
// is logged and retried on the next tick, never surfaced to callers.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/construction-robotics/site-coordination/pkg/config"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

const minInterval = 60 * time.Second

type Uploader interface {
	Upload(ctx context.Context, data []byte) error
}

// GraphUploader writes the backup bytes to a drive item via the
// Microsoft Graph API, authenticating with an OAuth2 client-credentials
// grant.
type GraphUploader struct {
	client *http.Client
	url    string
}

func NewGraphUploader(cfg config.SharePointConfig) *GraphUploader {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return &GraphUploader{
		client: cc.Client(context.Background()),
		url: fmt.Sprintf("https://graph.microsoft.com/v1.0/sites/%s/drives/%s/root:/%s:/content",
			cfg.SiteID, cfg.DriveID, cfg.RemotePath),
	}
}

func (u *GraphUploader) Upload(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload to sharepoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sharepoint upload failed: %s: %s", resp.Status, body)
	}
	return nil
}

// Syncer uploads the database file on a fixed interval until stopped.
type Syncer struct {
	uploader Uploader
	dbPath   string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSyncer(uploader Uploader, dbPath string, interval time.Duration) *Syncer {
	if interval < minInterval {
		interval = minInterval
	}
	return &Syncer{
		uploader: uploader,
		dbPath:   dbPath,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Syncer) Start() {
	logger.Info("Starting backup syncer", "interval", s.interval.String(), "path", s.dbPath)
	go s.loop()
}

func (s *Syncer) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.SyncOnce(context.Background()); err != nil {
				logger.Error("Backup upload failed", "error", err)
			}
		}
	}
}

// SyncOnce uploads the current database file. A missing file is a
// warning, not an error; the store may simply not exist yet.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	data, err := os.ReadFile(s.dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Database file missing, skipping backup", "path", s.dbPath)
			return nil
		}
		return fmt.Errorf("read database file: %w", err)
	}
	if err := s.uploader.Upload(ctx, data); err != nil {
		return err
	}
	logger.Info("Backup uploaded", "bytes", len(data))
	return nil
}

func (s *Syncer) Stop() {
	close(s.stop)
	<-s.done
}
