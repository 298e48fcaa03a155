package ws

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/cableposter/internal/ports"
)

const EventsRoom = "events"

// WSHandler subscribes the connection to pipeline events until the client goes away.
func WSHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		hub.Register(EventsRoom, conn)
		defer hub.Unregister(EventsRoom, conn)

		// reads only detect disconnects; clients send nothing
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// Forward drains events into the events room until the channel closes.
func Forward(hub *Hub, events <-chan ports.PipelineEvent) {
	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		hub.SendToRoom(EventsRoom, payload)
	}
}
