package server

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
)

// Session subprotocols. Clients that negotiate none get JSON.
const (
	subprotocolJSON    = "json"
	subprotocolMsgpack = "msgpack"
)

// wireCodec encodes session messages for one negotiated subprotocol.
type wireCodec interface {
	Name() string
	MessageType() websocket.MessageType
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return subprotocolJSON }
func (jsonCodec) MessageType() websocket.MessageType { return websocket.MessageText }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return subprotocolMsgpack }
func (msgpackCodec) MessageType() websocket.MessageType { return websocket.MessageBinary }

func (msgpackCodec) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

func codecFor(subprotocol string) wireCodec {
	if subprotocol == subprotocolMsgpack {
		return msgpackCodec{}
	}
	return jsonCodec{}
}
