package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pitabwire/canonico/model"
)

// errReported marks a failure the notifier has already printed.
var errReported = errors.New("cli: failure already reported")

// describe expands validation envelopes into one line per field.
func describe(err error) error {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) || len(ee.Details) == 0 {
		return err
	}
	lines := make([]string, 0, len(ee.Details))
	for _, d := range ee.Details {
		lines = append(lines, fmt.Sprintf("  %s: %s", d.Field, d.Message))
	}
	return fmt.Errorf("%s\n%s", ee.Message, strings.Join(lines, "\n"))
}
