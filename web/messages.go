package web

import "go.viam.com/scenemotion/scene"

// Message types sent to clients.
const (
	MessageHello  = "hello"
	MessageFrames = "frames"
	MessageAck    = "ack"
	MessageError  = "error"
)

// Message is everything the server sends over a websocket. Clients send bare scene.WireCommand
// objects and get one ack or error message back for each.
type Message struct {
	Type    string        `json:"type"`
	Client  string        `json:"client,omitempty"`
	Command string        `json:"command,omitempty"`
	Node    string        `json:"node,omitempty"`
	Error   string        `json:"error,omitempty"`
	Frames  []scene.Frame `json:"frames,omitempty"`
}
