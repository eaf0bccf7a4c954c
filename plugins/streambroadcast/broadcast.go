package streambroadcast

import (
	"streamcast/internal/minimsg"
	"streamcast/pkg/logx"
)

// Recipient is the slice of a player session the dispatcher needs.
// *proxy.Player satisfies it.
type Recipient interface {
	Name() string
	SendComponent(c *minimsg.Component) error
}

// dispatch fans the four lines out to every recipient in order. A failing
// recipient (disconnected mid-broadcast, stalled queue) is logged at warn
// and skipped; it never aborts delivery to the others.
func dispatch(log logx.Logger, recipients []Recipient, l lines) (sent, failed int) {
	for _, r := range recipients {
		if err := sendLines(r, l); err != nil {
			log.Warn("broadcast send failed",
				logx.String("to", r.Name()),
				logx.Err(err),
			)
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

func sendLines(r Recipient, l lines) error {
	for _, c := range [...]*minimsg.Component{l.blank, l.announcement, l.link, l.blank} {
		if err := r.SendComponent(c); err != nil {
			return err
		}
	}
	return nil
}
