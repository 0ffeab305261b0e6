package emu

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
)

const (
	sramFile  = "battery.sav"
	stateExt  = ".state"
	brotliExt = ".br"
)

// ErrNoState is returned when loading a state that was never saved.
var ErrNoState = errors.New("emu: no such state")

// Snapshotter is implemented by anything that can save and restore
// its state as a stream.
type Snapshotter interface {
	SaveState(w io.Writer) error
	LoadState(r io.Reader) error
}

// Store keeps the battery save and the save states of a single
// cartridge in its own folder. The folder is named after the title
// and a hash of the ROM, so that ROM hacks and revisions sharing a
// title don't clobber each other's saves.
type Store struct {
	Dir string

	// Compress writes new states with brotli.
	Compress bool
}

// NewStore creates (if necessary) the save folder for the given
// cartridge under root.
func NewStore(root, title string, rom []byte) (*Store, error) {
	dir := filepath.Join(root, fmt.Sprintf("%s-%016x", sanitize(title), xxhash.Sum64(rom)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir, Compress: true}, nil
}

// sanitize makes a cartridge title safe to use as a file name.
func sanitize(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "untitled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, title)
}

// SRAMPath returns the path of the battery save.
func (s *Store) SRAMPath() string {
	return filepath.Join(s.Dir, sramFile)
}

// OpenSRAM opens the battery save for reading and writing, creating
// it if it doesn't exist. The file is never truncated, as quick saves
// only rewrite the banks that changed.
func (s *Store) OpenSRAM() (*os.File, error) {
	return os.OpenFile(s.SRAMPath(), os.O_RDWR|os.O_CREATE, 0644)
}

// statePath returns the path of the named state, and whether it is
// compressed. An existing uncompressed state wins over a compressed
// one when loading.
func (s *Store) statePath(name string, compressed bool) string {
	p := filepath.Join(s.Dir, filepath.Base(name)+stateExt)
	if compressed {
		p += brotliExt
	}
	return p
}

// SaveState writes a snapshot of src under name. The state is written
// to a temporary file first and renamed into place once complete, so a
// crash mid-save leaves the previous state intact.
func (s *Store) SaveState(name string, src Snapshotter) (err error) {
	path := s.statePath(name, s.Compress)
	f, err := os.CreateTemp(s.Dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	var w io.WriteCloser = nopCloser{f}
	if s.Compress {
		w = cbrotli.NewWriter(f, cbrotli.WriterOptions{Quality: 5})
	}
	if err = src.SaveState(w); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("emu: compressing state: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return err
	}

	// the other encoding of the same state is now stale
	os.Remove(s.statePath(name, !s.Compress))
	return nil
}

// LoadState restores the named state into dst.
func (s *Store) LoadState(name string, dst Snapshotter) error {
	for _, compressed := range []bool{false, true} {
		f, err := os.Open(s.statePath(name, compressed))
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return err
		}
		defer f.Close()

		var r io.Reader = f
		if compressed {
			br := cbrotli.NewReader(f)
			defer br.Close()
			r = br
		}
		return dst.LoadState(r)
	}
	return fmt.Errorf("%s: %w", name, ErrNoState)
}

// States returns the names of the saved states, newest first.
func (s *Store) States() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}

	type state struct {
		name    string
		modTime int64
	}
	var states []state
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), brotliExt)
		if e.IsDir() || !strings.HasSuffix(name, stateExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		states = append(states, state{strings.TrimSuffix(name, stateExt), info.ModTime().UnixNano()})
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].modTime > states[j].modTime
	})

	names := make([]string, len(states))
	for i, st := range states {
		names[i] = st.name
	}
	return names, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
