package compose

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/stencilworks/stencil/internal/logger"
	"github.com/stencilworks/stencil/internal/registry"
	"github.com/stencilworks/stencil/internal/tree"
)

var log = logger.ForComponent("compose")

// Options is the immutable configuration of one composition run.
type Options struct {
	TemplateRoot  string
	ModulesRoot   string
	TargetDir     string
	ModuleDestDir string

	Variables     map[string]string
	Exclude       []string
	ReservedFiles []string

	// AllowExisting permits composing into a non-empty target. Used for the
	// current-directory sentinel and for watch-mode recomposition.
	AllowExisting bool
}

// Selection is the ordered set of feature keys chosen by a front end.
// Install and Installer are recorded for the caller's benefit; the engine
// itself never spawns a package manager.
type Selection struct {
	Features  []string
	Install   bool
	Installer string
}

type Result struct {
	FilesCopied       int
	FilesSubstituted  int
	ModuleFiles       int
	InjectionsApplied int
	InjectionsSkipped int
	FilesCleaned      int
	AppliedMarkers    []string
	Duration          time.Duration
}

// Composer materializes a project tree from the base template, the selected
// feature modules and the registry. It owns the target tree exclusively for
// the duration of one Run; all steps execute sequentially in a fixed order.
type Composer struct {
	opts Options
	reg  *registry.Registry
}

func New(reg *registry.Registry, opts Options) *Composer {
	return &Composer{opts: opts, reg: reg}
}

// Run executes one composition: copy the base tree, substitute variables,
// apply each selected feature (module files, dependency collection,
// injections), merge the dependency manifest, then strip applied markers.
// A run that fails partway leaves a partially-materialized target behind;
// there is no rollback.
func (c *Composer) Run(sel Selection) (*Result, error) {
	start := time.Now()

	features, err := c.reg.Resolve(sel.Features)
	if err != nil {
		return nil, err
	}

	if err := c.ensureTarget(); err != nil {
		return nil, err
	}

	res := &Result{}
	applied := NewMarkerSet()

	res.FilesCopied, err = tree.Copy(c.opts.TemplateRoot, c.opts.TargetDir, c.opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("base copy failed: %w", err)
	}
	log.Info("base template copied", "files", res.FilesCopied, "target", c.opts.TargetDir)

	res.FilesSubstituted, err = c.substituteAll()
	if err != nil {
		return nil, fmt.Errorf("variable substitution failed: %w", err)
	}

	deps := make(map[string]string)
	devDeps := make(map[string]string)

	for _, feat := range features {
		if err := c.applyFeature(feat, applied, res); err != nil {
			return nil, err
		}
		for name, version := range feat.Dependencies {
			deps[name] = version
		}
		for name, version := range feat.DevDependencies {
			devDeps[name] = version
		}
	}

	if err := MergeManifest(c.opts.TargetDir, deps, devDeps); err != nil {
		return nil, fmt.Errorf("manifest merge failed: %w", err)
	}

	res.FilesCleaned, err = Cleanup(c.opts.TargetDir, applied, c.opts.Exclude, c.opts.ReservedFiles)
	if err != nil {
		return nil, err
	}

	res.AppliedMarkers = applied.List()
	res.Duration = time.Since(start)
	log.Info("composition finished",
		"features", len(features),
		"injections", res.InjectionsApplied,
		"duration", res.Duration)

	return res, nil
}

func (c *Composer) applyFeature(feat registry.Feature, applied *MarkerSet, res *Result) error {
	log.Debug("applying feature", "key", feat.Key)

	if len(feat.Files) > 0 {
		destDir := filepath.Join(c.opts.TargetDir, c.opts.ModuleDestDir)
		n, err := tree.Select(c.opts.ModulesRoot, destDir, feat.Files)
		if err != nil {
			return fmt.Errorf("feature %q: module selection failed: %w", feat.Key, err)
		}
		res.ModuleFiles += n
	}

	for _, inj := range feat.Injections {
		path := filepath.Join(c.opts.TargetDir, inj.TargetFile)
		code := ExpandVars(inj.Code, c.opts.Variables)
		ok, err := Inject(path, inj.Marker, code)
		if err != nil {
			var fragErr *FragmentError
			if errors.As(err, &fragErr) {
				fragErr.Feature = feat.Key
			}
			return fmt.Errorf("feature %q: injection into %s failed: %w", feat.Key, inj.TargetFile, err)
		}
		if ok {
			applied.Add(inj.Marker)
			res.InjectionsApplied++
		} else {
			res.InjectionsSkipped++
			log.Debug("marker not present, injection skipped",
				"feature", feat.Key, "file", inj.TargetFile, "marker", inj.Marker)
		}
	}

	return nil
}

func (c *Composer) ensureTarget() error {
	entries, err := os.ReadDir(c.opts.TargetDir)
	if os.IsNotExist(err) {
		return os.MkdirAll(c.opts.TargetDir, 0755)
	}
	if err != nil {
		return fmt.Errorf("failed to read target: %w", err)
	}

	if len(entries) > 0 && !c.opts.AllowExisting {
		return fmt.Errorf("%w: %s", ErrTargetNotEmpty, c.opts.TargetDir)
	}
	return nil
}

func (c *Composer) substituteAll() (int, error) {
	if len(c.opts.Variables) == 0 {
		return 0, nil
	}

	changed := 0
	err := filepath.WalkDir(c.opts.TargetDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != c.opts.TargetDir && excludedPath(path, c.opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		ok, err := Substitute(path, c.opts.Variables)
		if err != nil {
			return err
		}
		if ok {
			changed++
		}
		return nil
	})
	if err != nil {
		return changed, err
	}

	return changed, nil
}
