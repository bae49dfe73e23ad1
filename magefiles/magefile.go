// Package main contains Mage build targets for blastsets developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	"data/sets",
	"index",
	"tmp2",
	".secrets",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "blastsets"
	cmdPkg  = "./cmd/blastsets"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests of every package.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Golden regenerates the golden TSV fixtures.
func Golden() error {
	return sh.RunV("go", "test", "./internal/enrich/", "./internal/simulate/", "-update")
}

// Stats prints project metrics: Go production and test lines, documentation
// words and the collection files waiting in data/sets.
func Stats() error {
	var prod, tests, words int
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (d.Name() == "_examples" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case strings.HasSuffix(path, "_test.go"):
			n, err := nonBlankLines(path)
			tests += n
			return err
		case strings.HasSuffix(path, ".go"):
			n, err := nonBlankLines(path)
			prod += n
			return err
		case filepath.Dir(path) == "." && strings.HasSuffix(path, ".md"):
			data, err := os.ReadFile(path)
			words += len(strings.Fields(string(data)))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	collections, err := collectionFiles("data/sets")
	if err != nil {
		return err
	}

	fmt.Printf("Go lines (production):  %d\n", prod)
	fmt.Printf("Go lines (tests):       %d\n", tests)
	fmt.Printf("Documentation words:    %d\n", words)
	fmt.Printf("Collections (data/sets): %d\n", len(collections))
	return nil
}

// Sets imports every collection under data/sets into the local snapshot.
func Sets() error {
	mg.Deps(Build, Init)
	matches, err := collectionFiles("data/sets")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("No collections in data/sets.")
		return nil
	}
	args := append([]string{"sets", "import"}, matches...)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Simulate runs the default sweep against the local snapshot.
func Simulate() error {
	mg.Deps(Sets)
	return sh.RunV(filepath.Join(binDir, binName), "simulate", "--backend", "sqlite", "--seed", "1")
}

// collectionFiles lists the importable files in dir.
func collectionFiles(dir string) ([]string, error) {
	var out []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.gmt"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		out = append(out, m...)
	}
	return out, nil
}

// nonBlankLines counts the lines of path holding more than whitespace.
func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}
