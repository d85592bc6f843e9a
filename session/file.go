package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
)

// File is credential storage backed by a single JSON file.
//
// Values are kept as base64 strings in a flat JSON object.
type File struct {
	path string
	mux  sync.Mutex
}

// NewFile creates new File storage. File is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns storage file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) read() (map[string][]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	values := map[string][]byte{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.path)
	}
	return values, nil
}

func (f *File) write(values map[string][]byte) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode")
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}

// Get implements rpc.Storage.
func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	values, err := f.read()
	if err != nil {
		return nil, err
	}
	v, ok := values[key]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return v, nil
}

// Set implements rpc.Storage.
func (f *File) Set(ctx context.Context, key string, value []byte) error {
	f.mux.Lock()
	defer f.mux.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

// RemoveAll implements rpc.Storage.
func (f *File) RemoveAll(ctx context.Context) error {
	f.mux.Lock()
	defer f.mux.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove")
	}
	return nil
}

// LoadSession implements session.Storage.
func (f *File) LoadSession(ctx context.Context) ([]byte, error) {
	return loadSession(ctx, f)
}

// StoreSession implements session.Storage.
func (f *File) StoreSession(ctx context.Context, data []byte) error {
	return storeSession(ctx, f, data)
}
