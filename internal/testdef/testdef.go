// Package testdef loads test definitions (the answer key) from YAML files.
package testdef

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// Load reads and validates a test definition.
func Load(path string) (*model.Test, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "testdef: read %s", path)
	}

	var test model.Test
	if err := yaml.Unmarshal(data, &test); err != nil {
		return nil, eris.Wrapf(err, "testdef: parse %s", path)
	}

	if err := validate(&test); err != nil {
		return nil, err
	}
	return &test, nil
}

func validate(test *model.Test) error {
	if test.ID == "" {
		return eris.New("testdef: test id is required")
	}
	if len(test.Questions) == 0 {
		return eris.Errorf("testdef: test %s has no questions", test.ID)
	}

	seen := make(map[int]bool, len(test.Questions))
	for _, q := range test.Questions {
		if q.Order < 1 {
			return eris.Errorf("testdef: test %s: question order %d must be >= 1", test.ID, q.Order)
		}
		if seen[q.Order] {
			return eris.Errorf("testdef: test %s: duplicate question order %d", test.ID, q.Order)
		}
		seen[q.Order] = true

		if q.CorrectAnswer() == nil {
			// Tolerated: the question just can never score correct.
			zap.L().Warn("testdef: question has no correct answer marked",
				zap.String("test_id", test.ID),
				zap.Int("question", q.Order))
		}
	}
	return nil
}
