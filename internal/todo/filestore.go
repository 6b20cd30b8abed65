package todo

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/inboxd/inboxd/internal/storage/dirstore"
)

// FileStore persists todos as directories with meta.json.
type FileStore struct {
	ds *dirstore.DirStore
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{ds: dirstore.NewDirStore(baseDir, "todo")}
}

// Create persists a new todo to disk.
func (fs *FileStore) Create(t *Todo) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	if t.ID == "" {
		t.ID = GenerateTodoID()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := fs.ds.EnsureDir(t.ID); err != nil {
		return &StoreError{Err: err}
	}
	if err := fs.ds.WriteMeta(t.ID, t); err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// Get reads a todo by ID.
func (fs *FileStore) Get(id string) (*Todo, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	return fs.read(id)
}

func (fs *FileStore) read(id string) (*Todo, error) {
	if _, err := os.Stat(filepath.Join(fs.ds.Dir(id), "meta.json")); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Err: err}
	}

	var t Todo
	if err := fs.ds.ReadMeta(id, &t); err != nil {
		return nil, &StoreError{Err: err}
	}
	return &t, nil
}

// List returns todos matching the filter, sorted by CreatedAt descending.
func (fs *FileStore) List(filter ListFilter) ([]*Todo, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	dirs, err := fs.ds.ListDirs()
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	var todos []*Todo
	for _, name := range dirs {
		var t Todo
		if err := fs.ds.ReadMeta(name, &t); err != nil {
			continue // skip corrupted entries
		}

		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Source != "" && t.Source != filter.Source {
			continue
		}

		todos = append(todos, &t)
	}

	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})

	return todos, nil
}

// Update atomically rewrites a todo's meta.json.
func (fs *FileStore) Update(t *Todo) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	if _, err := fs.read(t.ID); err != nil {
		return err
	}

	t.UpdatedAt = time.Now()
	if err := fs.ds.WriteMeta(t.ID, t); err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// Delete removes a todo directory.
func (fs *FileStore) Delete(id string) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	if _, err := fs.read(id); err != nil {
		return err
	}
	if err := fs.ds.RemoveDir(id); err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// Toggle flips a todo's completed flag and returns the updated todo.
func (fs *FileStore) Toggle(id string) (*Todo, error) {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	t, err := fs.read(id)
	if err != nil {
		return nil, err
	}

	t.Completed = !t.Completed
	t.UpdatedAt = time.Now()
	if err := fs.ds.WriteMeta(t.ID, t); err != nil {
		return nil, &StoreError{Err: err}
	}
	return t, nil
}
