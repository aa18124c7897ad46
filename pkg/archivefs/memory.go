// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

func init() {
	Register(types.StorageTypeMemory, NewMemory)
}

type memNode struct {
	dir  bool
	mode fs.FileMode
	data []byte
}

// Memory implements FileSystem in process memory, addressed by
// mem://<name>/<path> URIs. A put becomes visible in one step.
type Memory struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
}

// NewMemory creates an empty in-memory archive
func NewMemory(cfg types.StorageConfig) (FileSystem, error) {
	return NewMemoryFS(), nil
}

// NewMemoryFS creates an empty in-memory archive with its concrete type
func NewMemoryFS() *Memory {
	return &Memory{nodes: make(map[string]*memNode)}
}

func (m *Memory) Type() types.StorageType {
	return types.StorageTypeMemory
}

func memKey(uri string) (string, error) {
	u, err := schemePath(uri, "mem")
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %s: missing archive name", ErrUnsupportedURI, uri)
	}
	return path.Join(u.Host, "/", u.Path), nil
}

func (m *Memory) PutFileAtomically(ctx context.Context, src, dst string) error {
	key, err := memKey(dst)
	if err != nil {
		return err
	}

	// Read the whole source before taking the lock so a slow copy never
	// blocks readers.
	staged := make(map[string]*memNode)
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		k := path.Join(key, filepath.ToSlash(rel))
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			staged[k] = &memNode{dir: true, mode: info.Mode().Perm()}
		case info.Mode().IsRegular():
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			staged[k] = &memNode{mode: info.Mode().Perm(), data: data}
		}
		return nil
	})
	if err != nil {
		return notFound(err, src)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[key]; ok {
		return fmt.Errorf("%w: %s", ErrFileOverwrite, dst)
	}
	for parent := path.Dir(key); parent != "." && parent != "/"; parent = path.Dir(parent) {
		if _, ok := m.nodes[parent]; !ok {
			m.nodes[parent] = &memNode{dir: true, mode: 0755}
		}
	}
	for k, n := range staged {
		m.nodes[k] = n
	}
	return nil
}

func (m *Memory) ListPath(ctx context.Context, uri string) ([]string, error) {
	key, err := memKey(uri)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := key + "/"
	var children []string
	for k := range m.nodes {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		children = append(children, "mem://"+k)
	}
	sort.Strings(children)
	return children, nil
}

func (m *Memory) GetFile(ctx context.Context, uri, localDst string) error {
	key, err := memKey(uri)
	if err != nil {
		return err
	}

	m.mu.RLock()
	root, ok := m.nodes[key]
	entries := make(map[string]*memNode)
	if ok {
		entries[key] = root
		for k, n := range m.nodes {
			if strings.HasPrefix(k, key+"/") {
				entries[k] = n
			}
		}
	}
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, uri)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	// Parents sort before their children.
	sort.Strings(keys)

	return commitAtomically(ctx, localDst, func(tmp string) error {
		for _, k := range keys {
			n := entries[k]
			target := filepath.Join(tmp, filepath.FromSlash(strings.TrimPrefix(k, key)))
			if n.dir {
				if err := os.MkdirAll(target, n.mode|0700); err != nil {
					return err
				}
				continue
			}
			if err := os.WriteFile(target, n.data, n.mode); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Memory) Exists(ctx context.Context, uri string) (bool, error) {
	key, err := memKey(uri)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nodes[key]
	return ok, nil
}

func (m *Memory) Close() error {
	return nil
}
