package socket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/kleeedolinux/datesync/model"

	"github.com/tidwall/sjson"
)

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

func encodeOutbound(ev OutboundEvent, now time.Time) ([]byte, error) {
	if ev.Type == "" {
		return nil, errors.New("outbound event type is required")
	}

	body := []byte("{}")
	if len(ev.Payload) > 0 {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			return nil, err
		}
		body = b
	}

	body, err := sjson.SetBytes(body, "type", ev.Type)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "timestamp", now.UTC().Format(model.TimestampLayout))
}

func encodeAuth(token string) ([]byte, error) {
	return json.Marshal(authFrame{Type: "auth", Token: token})
}
