package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/facette/natsort"

	"github.com/wildstyl3r/sfi/internal/symbolic"
	"github.com/wildstyl3r/sfi/internal/utils"
)

// EquationCache keeps the canonical text of derived equations, one file per
// name. Entries are never invalidated: after changing a formula the cache
// directory has to be cleared by hand.
type EquationCache struct {
	dir    string
	logger *slog.Logger
}

func NewEquationCache(dir string, logger *slog.Logger) *EquationCache {
	return &EquationCache{dir: dir, logger: utils.Discard(logger)}
}

func (c *EquationCache) path(name string) string {
	return filepath.Join(c.dir, name)
}

// GetOrBuild returns the stored equation name, or builds, stores and returns
// it. Concurrent builders of the same name race on publishing the file; the
// first one wins and the others return its content.
func (c *EquationCache) GetOrBuild(name string, build func() symbolic.Expr) (symbolic.Expr, error) {
	e, err := c.Load(name)
	if err == nil {
		c.logger.Debug("already calculated equation is used", "equation", name, "path", c.path(name))
		return e, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	c.logger.Debug("calculating equation", "equation", name)
	e = build()
	if err := c.publish(name, e.String()); err != nil {
		if errors.Is(err, fs.ErrExist) {
			c.logger.Debug("equation stored concurrently", "equation", name)
			return c.Load(name)
		}
		return nil, err
	}
	c.logger.Debug("equation calculated and stored", "equation", name)
	return e, nil
}

// publish writes text to a temporary file and links it to its final name,
// so readers never see a partial file.
func (c *EquationCache) publish(name, text string) error {
	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Link(tmp.Name(), c.path(name))
}

func (c *EquationCache) Text(name string) (string, error) {
	raw, err := os.ReadFile(c.path(name))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *EquationCache) Load(name string) (symbolic.Expr, error) {
	text, err := c.Text(name)
	if err != nil {
		return nil, err
	}
	e, err := symbolic.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("equation %s: %w", c.path(name), err)
	}
	return e, nil
}

// List returns the stored equation names in natural order.
func (c *EquationCache) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool { return natsort.Compare(names[i], names[j]) })
	return names, nil
}
