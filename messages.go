package server

// joinResponse seeds a client with its cabinet ID, the cabinet's config,
// and an initial snapshot.
type joinResponse struct {
	Ver      int           `json:"ver"`
	ID       string        `json:"id"`
	Config   CabinetConfig `json:"config"`
	Snapshot WorldSnapshot `json:"snapshot"`
}

// stateMessage is the per-tick broadcast.
type stateMessage struct {
	Ver        int           `json:"ver"`
	Type       string        `json:"type"`
	ServerTime int64         `json:"serverTime"`
	Snapshot   WorldSnapshot `json:"snapshot"`
}

// clientMessage is the single envelope clients send over the socket.
type clientMessage struct {
	Type    string         `json:"type"`
	Gesture *GestureSample `json:"gesture,omitempty"`
	Amount  int            `json:"amount,omitempty"`
	SentAt  int64          `json:"sentAt,omitempty"`
}

// heartbeatMessage echoes connectivity timing back to the client.
type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

type diagnosticsCabinet struct {
	ID            string `json:"id"`
	Phase         Phase  `json:"phase"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}
