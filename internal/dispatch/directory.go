package dispatch

import "context"

// Directory resolves where a recipient is reached on a channel.
type Directory interface {
	// Address returns the recipient's address on channel, if known.
	Address(ctx context.Context, recipient, channel string) (string, bool)
}

// StaticDirectory is a Directory backed by a recipient -> channel -> address map.
type StaticDirectory map[string]map[string]string

func (d StaticDirectory) Address(_ context.Context, recipient, channel string) (string, bool) {
	addr, ok := d[recipient][channel]
	return addr, ok && addr != ""
}

func (d *Dispatcher) address(ctx context.Context, recipient, channel string) string {
	if d.directory != nil {
		if addr, ok := d.directory.Address(ctx, recipient, channel); ok {
			return addr
		}
	}
	return recipient
}
