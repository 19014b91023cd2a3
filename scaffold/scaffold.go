// Package scaffold creates new pubstatic sites from embedded templates.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/eringen/pubstatic/content"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax; a .tmpl suffix is stripped on output.
//
//go:embed all:templates
var Templates embed.FS

const root = "templates"

// Data holds the template variables passed to every scaffold template.
type Data struct {
	ProjectName string
	SiteName    string
	SiteURL     string
	Author      string
	Date        string // YYYY-MM-DD of the sample post
}

// Generate writes a new site into dir, which must not exist yet. Each
// created file is reported to out.
func Generate(dir string, data Data, out io.Writer) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}
	if data.SiteName == "" {
		data.SiteName = content.TitleFromSlug(filepath.Base(dir))
	}

	return fs.WalkDir(Templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		outPath := filepath.Join(dir, filepath.FromSlash(outputName(rel)))

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		src, err := Templates.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		tmpl, err := template.New(path.Base(p)).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", p, err)
		}
		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
}

// outputName strips the .tmpl suffix and turns the "gitignore" template
// into a dotfile.
func outputName(rel string) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	if path.Base(rel) == "gitignore" {
		rel = path.Join(path.Dir(rel), ".gitignore")
	}
	return rel
}
