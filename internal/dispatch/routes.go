package dispatch

import (
	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

// UnroutedChannels returns, per active template id, the channels the
// template lists that have no adapter in channels. Sends on those
// channels always fail with channel.ErrUnknownChannel.
func UnroutedChannels(reg *template.Registry, channels *channel.Registry) map[string][]string {
	out := make(map[string][]string)
	for _, t := range reg.All() {
		if !t.Active {
			continue
		}
		for _, ch := range t.Channels {
			if _, err := channels.Get(ch); err != nil {
				out[t.ID] = append(out[t.ID], ch)
			}
		}
	}
	return out
}
