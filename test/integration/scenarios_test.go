package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rhuss/groovycheck/pkg/suite"
)

const scenarioTimeout = 2 * time.Minute

func TestScenarios(t *testing.T) {
	for _, s := range suite.All() {
		t.Run(s.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), scenarioTimeout)
			defer cancel()

			if err := s.Run(ctx, testEnv.Harness); err != nil {
				t.Errorf("%s (%s): %v", s.Name, s.Description, err)
			}
		})
	}
}
