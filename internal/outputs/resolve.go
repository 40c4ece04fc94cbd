package outputs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrOutputNotFound    = errors.New("output doesn't exist")
	ErrNoConnectedOutput = errors.New("you haven't specified an output and no outputs are connected")
	ErrAmbiguousOutput   = errors.New("you haven't specified an output but there are multiple connected outputs")
)

// Resolve picks the output that identifies the TV. An explicit name must
// exist. Without one, exactly one output must be connected.
func Resolve(e *Enumerator, name string) (string, error) {
	if name != "" {
		exists, err := e.Exists(name)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", fmt.Errorf("%w: %s", ErrOutputNotFound, name)
		}
		return name, nil
	}

	connected, err := e.Connected()
	if err != nil {
		return "", err
	}

	switch len(connected) {
	case 0:
		return "", ErrNoConnectedOutput
	case 1:
		log.Info().Str("output", connected[0].Name).Msg("Using output")
		return connected[0].Name, nil
	default:
		names := make([]string, len(connected))
		for i, o := range connected {
			names[i] = o.Name
		}
		return "", fmt.Errorf("%w (%s)", ErrAmbiguousOutput, strings.Join(names, ", "))
	}
}
