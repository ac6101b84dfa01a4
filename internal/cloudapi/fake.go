package cloudapi

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Fake is an in-memory Client implementation for tests. It is not wired into
// the CLI; production code always receives a real transport behind the
// Client interface. Fake is safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	nextID   int
	rootID   string
	nodes    map[string]*fakeNode
	children map[string][]string // parentID -> child ids, insertion order
}

type fakeNode struct {
	id             string
	name           string
	isDir          bool
	parentID       string
	body           []byte
	domain         Domain
	modifyTimeSecs int64
	createTimeSecs int64
}

// NewFake creates an empty fake cloud tree with a root directory.
func NewFake() *Fake {
	f := &Fake{
		rootID:   "root",
		nodes:    make(map[string]*fakeNode),
		children: make(map[string][]string),
	}
	f.nodes[f.rootID] = &fakeNode{id: f.rootID, name: "", isDir: true}

	return f
}

func (f *Fake) allocID() string {
	f.nextID++

	return fmt.Sprintf("fake-%d", f.nextID)
}

// GetRootDirInfo implements Client.
func (f *Fake) GetRootDirInfo(_ context.Context) (RootInfo, error) {
	return RootInfo{ID: f.rootID}, nil
}

// ListDir implements Client.
func (f *Fake) ListDir(_ context.Context, id string, offset, pageSize int) (ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := append([]string(nil), f.children[id]...)
	sort.Strings(ids)

	var entries []Entry
	for i := offset; i < len(ids) && i < offset+pageSize; i++ {
		n := f.nodes[ids[i]]
		entries = append(entries, Entry{
			ID:             n.id,
			Name:           n.name,
			IsDir:          n.isDir,
			ModifyTimeSecs: n.modifyTimeSecs,
			CreateTimeSecs: n.createTimeSecs,
			Domain:         n.domain,
			ParentID:       n.parentID,
		})
	}

	return ListPage{Entries: entries, Count: len(ids)}, nil
}

// GetFile implements Client.
func (f *Fake) GetFile(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}

	return append([]byte(nil), n.body...), nil
}

// PushFile implements Client.
func (f *Fake) PushFile(_ context.Context, id, parentID, name string, domain Domain, body []byte, isCreate bool, createTimeSecs, modifyTimeSecs int64) (PushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.nodes[parentID]; !ok {
		return PushResult{}, ErrNotFound
	}

	n, exists := f.nodes[id]
	if !exists {
		n = &fakeNode{id: id, parentID: parentID, name: name}
		f.nodes[id] = n
		f.children[parentID] = append(f.children[parentID], id)
	}

	n.body = append([]byte(nil), body...)
	n.domain = domain
	n.name = name
	n.parentID = parentID
	n.modifyTimeSecs = modifyTimeSecs
	if createTimeSecs != 0 {
		n.createTimeSecs = createTimeSecs
	}

	_ = isCreate

	return PushResult{ModifyTimeSecs: modifyTimeSecs}, nil
}

// DeleteFile implements Client.
func (f *Fake) DeleteFile(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[id]
	if !ok {
		return ErrNotFound
	}

	delete(f.nodes, id)

	siblings := f.children[n.parentID]
	for i, cid := range siblings {
		if cid == id {
			f.children[n.parentID] = append(siblings[:i], siblings[i+1:]...)

			break
		}
	}

	return nil
}

// CreateDir implements Client.
func (f *Fake) CreateDir(_ context.Context, parentID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, cid := range f.children[parentID] {
		if n := f.nodes[cid]; n.isDir && n.name == name {
			return "", &DuplicateNameError{ExistingID: cid}
		}
	}

	id := f.allocID()
	f.nodes[id] = &fakeNode{id: id, name: name, isDir: true, parentID: parentID}
	f.children[parentID] = append(f.children[parentID], id)

	return id, nil
}

// PutFileDirect seeds a file into the fake tree outside the Client contract,
// for test setup (simulating content that already existed on the cloud).
func (f *Fake) PutFileDirect(parentID, name string, domain Domain, body []byte, modifyTimeSecs, createTimeSecs int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.allocID()
	f.nodes[id] = &fakeNode{
		id: id, name: name, parentID: parentID,
		body: append([]byte(nil), body...), domain: domain,
		modifyTimeSecs: modifyTimeSecs, createTimeSecs: createTimeSecs,
	}
	f.children[parentID] = append(f.children[parentID], id)

	return id
}
