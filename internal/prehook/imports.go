// Package prehook rewrites the imports of submitted Pyret files so they
// resolve against the local grading tree instead of Google Drive.
package prehook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	sharedDrivePattern = regexp.MustCompile(`shared-gdrive\(["'](.*?)["'].*?\n?.*?\)`)
	driveJSPattern     = regexp.MustCompile(`gdrive-js\(["'](.*?)\.js["'].*?\n?.*?\)`)
)

// ErrEmptyName is returned when FixImport is called without an import name.
var ErrEmptyName = errors.New("import name is required")

// ImportFixer holds one file's contents while its imports are rewritten.
// Nothing is written back until Finalize.
type ImportFixer struct {
	targetPath string
	targetDir  string
	relStencil string
	content    string
}

// NewImportFixer loads targetPath. Shared imports will be pointed at
// stencilDir.
func NewImportFixer(targetPath, stencilDir string) (*ImportFixer, error) {
	data, err := os.ReadFile(targetPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", targetPath, err)
	}

	targetDir := filepath.Dir(targetPath)
	relStencil, err := relativeTo(targetDir, stencilDir)
	if err != nil {
		return nil, err
	}

	return &ImportFixer{
		targetPath: targetPath,
		targetDir:  targetDir,
		relStencil: relStencil,
		content:    string(data),
	}, nil
}

// FixImport rewrites my-gdrive("...-<name>.arr") imports to a file import
// under location. With a filename the import points at that file;
// otherwise the imported file name is kept.
func (f *ImportFixer) FixImport(name, location, filename string) error {
	if name == "" {
		return ErrEmptyName
	}
	relLoc, err := relativeTo(f.targetDir, location)
	if err != nil {
		return err
	}

	pattern := regexp.MustCompile(`my-gdrive\(["'](.*-` + regexp.QuoteMeta(name) + `\.arr)["']\)`)
	f.content = replaceSubmatch(pattern, f.content, func(imported string) string {
		if filename != "" {
			return fileImport(relLoc, filename)
		}
		return fileImport(relLoc, imported)
	})
	return nil
}

// Finalize points shared-gdrive and gdrive-js imports at the stencil
// directory and writes the file back.
func (f *ImportFixer) Finalize() error {
	f.content = replaceSubmatch(sharedDrivePattern, f.content, func(imported string) string {
		return fileImport(f.relStencil, imported)
	})
	f.content = replaceSubmatch(driveJSPattern, f.content, func(imported string) string {
		return fileImport(f.relStencil, imported+".arr")
	})

	info, err := os.Stat(f.targetPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.targetPath, err)
	}
	if err := os.WriteFile(f.targetPath, []byte(f.content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", f.targetPath, err)
	}
	return nil
}

// Content returns the current, possibly rewritten, file contents.
func (f *ImportFixer) Content() string {
	return f.content
}

// Options describes where a file's sibling imports live.
type Options struct {
	// StencilDir holds the shared support files.
	StencilDir string

	// CodePath is the implementation that "-code.arr" imports resolve to.
	CodePath string

	// CommonDir holds the "-common.arr" file.
	CommonDir string
}

// FixFile rewrites the code, common and shared imports of path in place.
func FixFile(path string, opts Options) error {
	fixer, err := NewImportFixer(path, opts.StencilDir)
	if err != nil {
		return err
	}
	if opts.CodePath != "" {
		if err := fixer.FixImport("code", filepath.Dir(opts.CodePath), filepath.Base(opts.CodePath)); err != nil {
			return err
		}
	}
	if opts.CommonDir != "" {
		if err := fixer.FixImport("common", opts.CommonDir, ""); err != nil {
			return err
		}
	}
	return fixer.Finalize()
}

func fileImport(dir, name string) string {
	return `file("` + filepath.ToSlash(dir) + "/" + name + `")`
}

func relativeTo(base, target string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return "", fmt.Errorf("relative path from %s to %s: %w", base, target, err)
	}
	return rel, nil
}

// replaceSubmatch replaces every match of re with repl applied to the
// first capture group. The replacement is inserted literally.
func replaceSubmatch(re *regexp.Regexp, src string, repl func(string) string) string {
	matches := re.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(src[last:m[0]])
		b.WriteString(repl(src[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String()
}
