package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Workspace is the per-request directory <root>/<memberId>/<uuid>. It is owned
// by exactly one request and never reused.
type Workspace struct {
	MemberID int64
	ID       string
	Path     string
}

// NewWorkspace creates a fresh workspace under root. The returned path is
// absolute because the tool runs from a different working directory.
func NewWorkspace(root string, memberID int64) (*Workspace, error) {
	id := uuid.NewString()
	dir := filepath.Join(root, strconv.FormatInt(memberID, 10), id)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, wrap(ErrWorkspace, "resolve workspace path", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, wrap(ErrWorkspace, "create workspace", err)
	}
	return &Workspace{MemberID: memberID, ID: id, Path: abs}, nil
}

// File returns a path inside the workspace.
func (w *Workspace) File(name string) string {
	return filepath.Join(w.Path, name)
}

// Remove deletes the workspace and everything under it. Removing a nil or
// already removed workspace is not an error.
func (w *Workspace) Remove() error {
	if w == nil || w.Path == "" {
		return nil
	}
	if err := os.RemoveAll(w.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrap(ErrWorkspace, fmt.Sprintf("remove workspace %s", w.ID), err)
	}
	return nil
}
