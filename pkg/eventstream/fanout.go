package eventstream

import (
	"context"
	"errors"
)

type fanout []Publisher

// Fanout returns a Publisher that delivers every event to each of pubs in
// order. Errors from individual publishers are joined; one failing
// publisher does not stop delivery to the rest.
func Fanout(pubs ...Publisher) Publisher {
	return fanout(pubs)
}

func (f fanout) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}

	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
