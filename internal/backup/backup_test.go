package backup

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"brewcart/internal/localstore"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *localstore.Store) {
	t.Helper()

	db, err := localstore.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	local, err := localstore.NewStore(db)
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(local, clock), local
}

func seed(t *testing.T, local *localstore.Store) {
	t.Helper()
	if err := local.SetMany(map[string]string{
		localstore.KeyRememberedEmail: "user@example.com",
		localstore.KeyRememberMe:      "true",
		localstore.KeyCart:            `[{"product_id":"p1","quantity":2}]`,
	}); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, local := newTestService(t)
	seed(t, local)

	var buf bytes.Buffer
	snapshot, err := svc.ExportToWriter(&buf)
	if err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}
	if snapshot.Version != SnapshotVersion || snapshot.ID == "" {
		t.Errorf("snapshot header = %+v, want version %s with an id", snapshot, SnapshotVersion)
	}
	if len(snapshot.Entries) != 3 {
		t.Errorf("len(Entries) = %d, want 3", len(snapshot.Entries))
	}

	// Restore into an emptied store.
	if err := local.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := svc.ImportFromReader(&buf, false); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	got, ok, err := local.Get(localstore.KeyRememberedEmail)
	if err != nil || !ok || got != "user@example.com" {
		t.Errorf("restored rememberedEmail = %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := local.Get(localstore.KeyCart); !ok {
		t.Error("cart entry not restored")
	}
}

func TestImportClearDropsExistingEntries(t *testing.T) {
	svc, local := newTestService(t)
	seed(t, local)

	var buf bytes.Buffer
	if _, err := svc.ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	if err := local.Set("stale", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := svc.ImportFromReader(&buf, true); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	if _, ok, _ := local.Get("stale"); ok {
		t.Error("stale entry survived a clearing import")
	}
	if _, ok, _ := local.Get(localstore.KeyCart); !ok {
		t.Error("snapshot entry missing after clearing import")
	}
}

func TestImportRejectsBadSnapshots(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.ImportFromReader(strings.NewReader("{not json"), false); err == nil {
		t.Error("malformed snapshot accepted")
	}
	if _, err := svc.ImportFromReader(strings.NewReader(`{"version":"99.0","entries":{}}`), false); err == nil {
		t.Error("unsupported version accepted")
	}
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[*params.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*params.Key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestS3SyncRoundTrip(t *testing.T) {
	svc, local := newTestService(t)
	seed(t, local)

	store := &fakeObjectStore{}
	sync := NewS3SyncWithClient(store, "brewcart-backups")

	key, err := sync.Upload(context.Background(), svc, "")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(key, "snapshots/backup_") {
		t.Errorf("derived key = %q, want snapshots/backup_ prefix", key)
	}

	if err := local.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	snapshot, err := sync.Download(context.Background(), svc, key, false)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(snapshot.Entries) != 3 {
		t.Errorf("len(Entries) = %d, want 3", len(snapshot.Entries))
	}
	if _, ok, _ := local.Get(localstore.KeyRememberMe); !ok {
		t.Error("rememberMe not restored from bucket snapshot")
	}
}
