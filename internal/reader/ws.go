package reader

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/topicreader/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveMessage is an incoming websocket message. "summary" saves a post's
// summary text; "command" runs any session command.
type liveMessage struct {
	Type   string `json:"type"`
	PostID int64  `json:"post_id"`
	Action string `json:"action"`
	Value  string `json:"value"`
}

// liveResponse acknowledges or rejects one message.
type liveResponse struct {
	Type   string `json:"type"` // "ack" or "error"
	PostID int64  `json:"post_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleWebSocket keeps summary edits flowing to the document while the
// user types, without a page reload. A connection is bound to the document
// loaded when it opened; after a reload its messages are rejected.
func (rd *Reader) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, true)
	if !ok {
		return
	}
	gen := s.Generation()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("reader: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("reader: websocket read: %v", err)
			}
			return
		}

		var req liveMessage
		if err := json.Unmarshal(msg, &req); err != nil {
			sendError(conn, 0, "invalid message format")
			continue
		}

		var cmd session.Command
		switch req.Type {
		case "summary":
			cmd, err = session.ParseCommand(session.ActionSummary, req.Value, req.PostID)
		case "command":
			cmd, err = session.ParseCommand(req.Action, req.Value, req.PostID)
		default:
			sendError(conn, req.PostID, "unknown message type: "+req.Type)
			continue
		}
		if err == nil {
			err = s.DispatchFor(gen, cmd)
		}
		if err != nil {
			sendError(conn, req.PostID, err.Error())
			continue
		}
		sendResponse(conn, liveResponse{Type: "ack", PostID: req.PostID})
	}
}

func sendResponse(conn *websocket.Conn, resp liveResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("reader: websocket write: %v", err)
	}
}

func sendError(conn *websocket.Conn, postID int64, msg string) {
	sendResponse(conn, liveResponse{Type: "error", PostID: postID, Error: msg})
}
