package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 16 << 10
)

var unitSeeds = []string{
	"body: []\n",
	"body:\n  - let: x\n  - read: x\n",
	"body:\n  - algorithm: f\n    params: [a]\n    body:\n      - lambda:\n        body:\n          - read: a\n",
	"body:\n  - block:\n      - let: y\n    warnings: {unused_variable: off}\n",
	"body:\n  - let: n\n  - algorithm: g\n    captures: [n]\n    body:\n      - read: n\n",
	"unit: x\nbody:\n  - call: nope\n",
	"- just a list\n",
	"body: [\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range unitSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every unit file from the packages' testdata.
func addTestdataSeeds(f *testing.F) {
	for _, root := range []string{
		filepath.Join("..", "fixture", "testdata"),
		filepath.Join("..", "driver", "testdata"),
	} {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || !strings.HasSuffix(path, ".unit.yaml") {
				return nil
			}
			// #nosec G304 -- path comes from repository testdata walk
			src, err := os.ReadFile(path)
			if err != nil || len(src) > maxSeedBytes {
				return nil
			}
			f.Add(src)
			return nil
		})
	}
}
