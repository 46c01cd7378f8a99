package mixer

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/automix/internal/infra/config"
)

// TypeSimulator is the host type of the built-in simulator.
const TypeSimulator = "simulator"

// NewFromConfig creates the host described by the configuration. exitCue is
// the hotcue number the controller reads as the exit point.
func NewFromConfig(cfg config.HostConfig, exitCue int) (*Simulator, error) {
	zlog.Debug().Msgf("creating host: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case TypeSimulator:
		settings, err := DecodeSettings(cfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s settings", cfg.Type)
		}
		settings.ExitCue = exitCue
		return NewSimulator(*settings)

	default:
		return nil, errors.Newf("unsupported host type: %s", cfg.Type)
	}
}
