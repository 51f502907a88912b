package ros

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/robotstate/logging"
	"go.viam.com/robotstate/robotstate"
)

// FrameHandler receives the link poses resolved for one message. Returning an error stops the replay.
type FrameHandler func(msg *JointStateMessage, frames *robotstate.FrameMap) error

// Replay feeds every message to the resolver in order and hands the resulting poses to handle. Malformed messages
// are skipped and, like unknown joints and unsolvable links, reported in the combined returned error.
func Replay(r *robotstate.Resolver, msgs []*JointStateMessage, logger logging.Logger, handle FrameHandler) error {
	var errs error
	for i, msg := range msgs {
		update, err := msg.Update()
		if err != nil {
			logger.Warnw("skipping joint state message", "message", i, "error", err)
			errs = multierr.Append(errs, errors.Wrapf(err, "message %d", i))
			continue
		}
		frames, err := r.Resolve(update)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "message %d", i))
		}
		if handle == nil {
			continue
		}
		if err := handle(msg, frames); err != nil {
			return multierr.Append(errs, err)
		}
	}
	return errs
}
