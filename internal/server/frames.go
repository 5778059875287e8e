package server

import "github.com/jmylchreest/toasty/internal/model"

// Frame types exchanged over /ws.
const (
	FrameSnapshot = "snapshot"
	FrameCreated  = "created"
	FrameError    = "error"
	FrameDismiss  = "dismiss"
	FrameCreate   = "create"
)

// SnapshotFrame carries the full list of live toasts, oldest first.
// It is sent once on connect and after every store mutation.
type SnapshotFrame struct {
	Type   string         `json:"type"`
	Toasts model.Snapshot `json:"toasts"`
}

// ClientFrame is a message sent by a websocket client.
type ClientFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// ReplyFrame answers a ClientFrame. Error is set for rejected frames,
// ID for accepted creates.
type ReplyFrame struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}
