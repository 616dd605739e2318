package license

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/licenseclassifier/v2"
	"github.com/google/licenseclassifier/v2/assets"
)

// licenseFiles are the names pub looks for when publishing a package.
var licenseFiles = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"}

// FileClassifier identifies the license of a package from its LICENSE file.
type FileClassifier struct {
	classifier *classifier.Classifier
}

func NewFileClassifier() (*FileClassifier, error) {
	c, err := assets.DefaultClassifier()
	if err != nil {
		return nil, fmt.Errorf("failed to load the license database: %w", err)
	}
	return &FileClassifier{classifier: c}, nil
}

// Classify returns the SPDX identifier of the license found in dir, or an empty string when the
// directory has no license file or its content is not recognized.
func (f *FileClassifier) Classify(dir string) (string, error) {
	for _, name := range licenseFiles {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read license file: %w", err)
		}
		var best *classifier.Match
		for _, m := range f.classifier.Match(content).Matches {
			if m.MatchType != "License" {
				continue
			}
			if best == nil || m.Confidence > best.Confidence {
				best = m
			}
		}
		if best == nil {
			return "", nil
		}
		return best.Name, nil
	}
	return "", nil
}
