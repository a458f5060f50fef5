package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"installer-shell/internal/domain"
)

// StateDir is the directory under the target holding the install record.
const StateDir = ".installer"

const stateFile = "components.yaml"

type installedComponent struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version,omitempty"`
	Files   []string `yaml:"files,omitempty"`
}

// state is the record of components installed into a target directory.
type state struct {
	Components []installedComponent `yaml:"components"`
}

func statePath(target string) string {
	return filepath.Join(target, StateDir, stateFile)
}

// readState loads the install record. A missing record is an empty state.
func readState(target string) (*state, error) {
	st := &state{}
	if target == "" {
		return st, nil
	}
	data, err := os.ReadFile(statePath(target))
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := yaml.Unmarshal(data, st); err != nil {
		return &state{}, fmt.Errorf("parse %s: %w", statePath(target), err)
	}
	return st, nil
}

// writeState persists st. An empty state removes the record.
func writeState(target string, st *state) error {
	path := statePath(target)
	if len(st.Components) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		_ = os.Remove(filepath.Dir(path))
		return nil
	}
	slices.SortFunc(st.Components, func(a, b installedComponent) int { return strings.Compare(a.Name, b.Name) })
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *state) has(name string) bool {
	return slices.ContainsFunc(s.Components, func(c installedComponent) bool { return c.Name == name })
}

func (s *state) files(name string) []string {
	for _, c := range s.Components {
		if c.Name == name {
			return c.Files
		}
	}
	return nil
}

func (s *state) put(name, version string, files []string) {
	s.drop(name)
	s.Components = append(s.Components, installedComponent{Name: name, Version: version, Files: files})
}

func (s *state) drop(name string) {
	s.Components = slices.DeleteFunc(s.Components, func(c installedComponent) bool { return c.Name == name })
}

// installComponent copies the component's files from <source>/<name>/ into
// target and returns the target-relative paths written. A non-nil limiter
// paces the copy in bytes per second.
func installComponent(ctx context.Context, source, target string, c domain.Component, lim *rate.Limiter) ([]string, error) {
	root := filepath.Join(source, c.Name)
	written := make([]string, 0, len(c.Files))
	for _, rel := range c.Files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		clean, err := relPath(rel)
		if err != nil {
			return written, err
		}
		if err := copyFile(ctx, filepath.Join(root, clean), filepath.Join(target, clean), lim); err != nil {
			return written, err
		}
		written = append(written, clean)
	}
	return written, nil
}

// removeComponent deletes recorded files and any directories they leave
// empty below target.
func removeComponent(target string, files []string) error {
	for _, rel := range files {
		clean, err := relPath(rel)
		if err != nil {
			return err
		}
		path := filepath.Join(target, clean)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		for dir := filepath.Dir(path); dir != target && strings.HasPrefix(dir, target); dir = filepath.Dir(dir) {
			if os.Remove(dir) != nil {
				break
			}
		}
	}
	return nil
}

func relPath(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", domain.NewSubSystemError("engine", "engine.relPath", domain.ErrInvalidInput, rel)
	}
	return clean, nil
}

func copyFile(ctx context.Context, src, dst string, lim *rate.Limiter) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	var r io.Reader = in
	if lim != nil {
		r = &throttledReader{ctx: ctx, r: in, lim: lim}
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// throttledReader waits on a shared limiter for every chunk it returns.
// Chunks never exceed the limiter's burst.
type throttledReader struct {
	ctx context.Context
	r   io.Reader
	lim *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.lim.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.lim.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// newLimiter returns nil when bytesPerSecond is not positive.
func newLimiter(bytesPerSecond int) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
}
