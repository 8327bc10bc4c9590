package gateway

// Frames are JSON envelopes: c carries the command name, s the sequence
// number on dispatch frames, d the payload. Command names not listed here
// are dispatch events forwarded to the frame handler.
const (
	// client -> server
	CommandIdentify  = "Identify"
	CommandResume    = "Resume"
	CommandHeartbeat = "Heartbeat"

	// server -> client, consumed by the gateway itself
	CommandIdentifyAccepted = "IdentifyAccepted"
	CommandResumeAccepted   = "ResumeAccepted"
	CommandHeartbeatAck     = "HeartbeatAck"
	CommandReconnect        = "Reconnect"
	CommandInvalidSession   = "InvalidSession"
)

// Websocket close codes the server uses.
const (
	CloseUnknownError         = 4000
	CloseAuthenticationFailed = 4001
	CloseInvalidSeq           = 4002
	CloseSessionTimedOut      = 4004
)

type frame struct {
	C string `json:"c"`
	S int64  `json:"s,omitempty"`
	D any    `json:"d,omitempty"`
}

type identifyData struct {
	Token string `json:"token"`
}

type resumeData struct {
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

type heartbeatData struct {
	Seq int64 `json:"seq"`
}
