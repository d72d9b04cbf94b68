package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// OpenFunc deserializes the artifact at path.
type OpenFunc func(path string) (Classifier, error)

// Observer is notified after every artifact deserialization attempt.
type Observer func(disease string, took time.Duration, err error)

// Handle resolves the classifier for one disease.
type Handle func() (Classifier, error)

type Option func(*Loader)

func WithOpener(open OpenFunc) Option {
	return func(l *Loader) { l.open = open }
}

func WithObserver(obs Observer) Option {
	return func(l *Loader) { l.observe = obs }
}

type entry struct {
	once sync.Once
	clf  Classifier
	err  error
}

// Loader deserializes each disease's artifact at most once per process and
// shares the result, including a failed result.
type Loader struct {
	dir     string
	files   map[string]string
	open    OpenFunc
	observe Observer

	mu      sync.Mutex
	entries map[string]*entry
}

func NewLoader(dir string, files map[string]string, opts ...Option) *Loader {
	l := &Loader{
		dir:     dir,
		files:   files,
		open:    OpenFile,
		entries: make(map[string]*entry, len(files)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenFile reads a JSON pipeline artifact from disk.
func OpenFile(path string) (Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}

// Load returns the shared classifier for disease.
func (l *Loader) Load(disease string) (Classifier, error) {
	file, ok := l.files[disease]
	if !ok {
		return nil, fmt.Errorf("%w: no artifact registered for %q", ErrArtifactMissing, disease)
	}

	l.mu.Lock()
	e, ok := l.entries[disease]
	if !ok {
		e = &entry{}
		l.entries[disease] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		path := filepath.Join(l.dir, file)
		start := time.Now()
		e.clf, e.err = l.open(path)
		took := time.Since(start)
		if l.observe != nil {
			l.observe(disease, took, e.err)
		}
		if e.err != nil {
			log.Error().Err(e.err).Str("disease", disease).Str("path", path).Msg("model load failed")
			return
		}
		log.Info().Str("disease", disease).Str("path", path).Dur("took", took).Msg("model loaded")
	})
	return e.clf, e.err
}

func (l *Loader) Handle(disease string) Handle {
	return func() (Classifier, error) { return l.Load(disease) }
}

// LoadAll loads every registered artifact and joins the failures.
func (l *Loader) LoadAll() error {
	var errs []error
	for _, name := range l.Diseases() {
		if _, err := l.Load(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Ping reports whether every artifact is loadable.
func (l *Loader) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.LoadAll()
}

func (l *Loader) Diseases() []string {
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
