package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
	"go.uber.org/zap"
)

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

// memRepo mirrors the store contract in memory.
type memRepo struct {
	mu      sync.Mutex
	records map[string]*models.MediaRecord
	seq     int

	inserts   int
	findCalls int
	failFind  error
	failMark  error
}

func newMemRepo(recs ...models.MediaRecord) *memRepo {
	r := &memRepo{records: map[string]*models.MediaRecord{}}
	for _, rec := range recs {
		r.seq++
		rec.CreatedAt = time.Unix(int64(r.seq), 0)
		r.records[rec.PostID] = &rec
	}
	return r
}

func (r *memRepo) FindUnpublished(ctx context.Context) (*models.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.failFind != nil {
		return nil, r.failFind
	}
	var out *models.MediaRecord
	for _, rec := range r.records {
		if rec.IsPosted {
			continue
		}
		if out == nil || rec.CreatedAt.Before(out.CreatedAt) {
			out = rec
		}
	}
	if out == nil {
		return nil, nil
	}
	cp := *out
	return &cp, nil
}

func (r *memRepo) FindAllPublished(ctx context.Context) ([]models.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	var out []models.MediaRecord
	for _, rec := range r.records {
		if rec.IsPosted {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) ExistsByPostID(ctx context.Context, postID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[postID]
	return ok, nil
}

func (r *memRepo) Insert(ctx context.Context, rec *models.MediaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.PostID]; ok {
		return fmt.Errorf("insert %s: %w", rec.PostID, ports.ErrDuplicateKey)
	}
	r.seq++
	cp := *rec
	cp.CreatedAt = time.Unix(int64(r.seq), 0)
	r.records[rec.PostID] = &cp
	r.inserts++
	return nil
}

func (r *memRepo) MarkPublished(ctx context.Context, rec *models.MediaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMark != nil {
		return r.failMark
	}
	stored, ok := r.records[rec.PostID]
	if !ok {
		return errors.New("no such record")
	}
	stored.IsPosted = true
	rec.IsPosted = true
	return nil
}

func (r *memRepo) Stats(ctx context.Context) (models.MediaStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s models.MediaStats
	for _, rec := range r.records {
		s.Total++
		if rec.IsPosted {
			s.Published++
		} else {
			s.Unpublished++
		}
	}
	return s, nil
}

func (r *memRepo) get(id string) (models.MediaRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return models.MediaRecord{}, false
	}
	return *rec, true
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeFeed struct {
	items []models.Candidate
	err   error
}

func (f fakeFeed) Fetch(ctx context.Context) ([]models.Candidate, error) {
	return f.items, f.err
}

type fakeDownloader struct {
	mu    sync.Mutex
	fail  map[string]bool // by url
	calls int
}

func (d *fakeDownloader) Download(ctx context.Context, url string, w io.Writer) error {
	d.mu.Lock()
	d.calls++
	fail := d.fail[url]
	d.mu.Unlock()
	if fail {
		return errors.New("http 404")
	}
	_, err := w.Write([]byte("img:" + url))
	return err
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	opts    map[string]ports.PutOptions
	failPut map[string]bool // by key
	failGet bool
	gets    int
	puts    int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: map[string][]byte{},
		opts:    map[string]ports.PutOptions{},
		failPut: map[string]bool{},
	}
}

func (s *fakeStorage) Put(ctx context.Context, key string, data []byte, opts ports.PutOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPut[key] {
		return "", errors.New("access denied")
	}
	s.objects[key] = append([]byte(nil), data...)
	s.opts[key] = opts
	return key, nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failGet {
		return nil, errors.New("no such key")
	}
	b, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}

type fakePlatform struct {
	mu        sync.Mutex
	uploadErr error
	postErr   error
	uploads   int
	posts     []ports.PostRequest
}

func (p *fakePlatform) UploadMedia(ctx context.Context, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads++
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	return fmt.Sprintf("media-%d", p.uploads), nil
}

func (p *fakePlatform) Post(ctx context.Context, req ports.PostRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.postErr != nil {
		return p.postErr
	}
	p.posts = append(p.posts, req)
	return nil
}

func (p *fakePlatform) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploads + len(p.posts)
}
