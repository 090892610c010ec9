package signal

import "github.com/dkeye/MeetingRoom/internal/core"

func (ctl *SignalWSController) handlePing(
	conn core.SignalConnection,
) {
	sendJSON(conn, struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	})
}
