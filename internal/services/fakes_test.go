package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/models"
	"github.com/Lllllllleong/reportlabeler/internal/pdftest"
)

type fakeFetcher struct {
	mu   sync.Mutex
	urls []string
	body []byte
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && strings.HasPrefix(name, s.failOn) {
		return "", failure.New(failure.KindPersist, "put "+name, errors.New("disk full"))
	}
	if _, exists := s.objects[name]; exists {
		return "", fmt.Errorf("collision on %s", name)
	}
	s.objects[name] = append([]byte(nil), data...)
	return "mem://" + name, nil
}

func (s *memStore) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for name := range s.objects {
		out = append(out, name)
	}
	return out
}

func (s *memStore) get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	return data, ok
}

// echoLabeler appends the label text so tests can see which label a
// document received.
type echoLabeler struct {
	err error
}

func (l echoLabeler) Label(_ context.Context, doc labeler.Document, text string) ([]byte, error) {
	if l.err != nil {
		return nil, l.err
	}
	return []byte(string(doc.Data) + "|" + text), nil
}

// pageLabeler returns a stand-in labeled PDF with the source's page count,
// plus extra, that prints the label text on every page.
type pageLabeler struct {
	extra int
}

func (l pageLabeler) Label(_ context.Context, doc labeler.Document, text string) ([]byte, error) {
	n, err := labeler.PageCount(doc.Data)
	if err != nil {
		return nil, err
	}
	return pdftest.Labeled(n+l.extra, text), nil
}

type recordingLedger struct {
	mu       sync.Mutex
	begun    []models.LabelRun
	statuses []string
	last     models.LabelRun
	beginErr error
}

func (l *recordingLedger) Begin(_ context.Context, run models.LabelRun) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.beginErr != nil {
		return "", l.beginErr
	}
	l.begun = append(l.begun, run)
	return fmt.Sprintf("run-%d", len(l.begun)), nil
}

func (l *recordingLedger) Update(_ context.Context, _ string, run models.LabelRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, run.Status)
	l.last = run
	return nil
}

type fakeReader struct {
	data []byte
	err  error
	read []string
}

func (r *fakeReader) ReadObject(_ context.Context, bucket, object string) ([]byte, error) {
	r.read = append(r.read, bucket+"/"+object)
	return r.data, r.err
}
