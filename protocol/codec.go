package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrEmptyFrame = errors.New("protocol: empty frame")

// Codec frames messages as {t, p} envelopes.
type Codec interface {
	Name() string
	// Binary reports whether frames must travel as binary websocket messages.
	Binary() bool
	Encode(t string, payload any) ([]byte, error)
	DecodeEnvelope(b []byte) (Envelope, error)
	decode(p []byte, out any) error
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecByName resolves "json" (also the empty string) or "msgpack".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	case Msgpack.Name():
		return Msgpack, nil
	}
	return nil, errors.Errorf("protocol: unknown codec %q", name)
}

// Encode and DecodeEnvelope use the JSON codec.
func Encode(t string, payload any) ([]byte, error) { return JSON.Encode(t, payload) }

func DecodeEnvelope(b []byte) (Envelope, error) { return JSON.DecodeEnvelope(b) }

// DecodePayload decodes env's payload with the codec that produced env.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, errors.Errorf("protocol: empty payload for type %q", env.T)
	}
	c := env.codec
	if c == nil {
		c = JSON
	}
	if err := c.decode(env.P, &out); err != nil {
		return out, errors.Wrapf(err, "protocol: decode %q payload", env.T)
	}
	return out, nil
}

func checkEncode(t string, payload any) error {
	if t == "" {
		return errors.New("protocol: encode with empty message type")
	}
	if payload == nil {
		return errors.Errorf("protocol: encode %q with nil payload", t)
	}
	return nil
}

type jsonCodec struct{}

type jsonEnvelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(t string, payload any) ([]byte, error) {
	if err := checkEncode(t, payload); err != nil {
		return nil, err
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "protocol: marshal %q", t)
	}
	return json.Marshal(jsonEnvelope{T: t, P: pb})
}

func (c jsonCodec) DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var e jsonEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, errors.Wrap(err, "protocol: decode envelope")
	}
	return Envelope{T: e.T, P: e.P, codec: c}, nil
}

func (jsonCodec) decode(p []byte, out any) error { return json.Unmarshal(p, out) }

// msgpackCodec reuses the json struct tags so both codecs share one schema.
type msgpackCodec struct{}

type msgpackEnvelope struct {
	T string             `json:"t"`
	P msgpack.RawMessage `json:"p"`
}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (c msgpackCodec) Encode(t string, payload any) ([]byte, error) {
	if err := checkEncode(t, payload); err != nil {
		return nil, err
	}
	pb, err := c.marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "protocol: marshal %q", t)
	}
	return c.marshal(msgpackEnvelope{T: t, P: pb})
}

func (c msgpackCodec) DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var e msgpackEnvelope
	if err := c.decode(b, &e); err != nil {
		return Envelope{}, errors.Wrap(err, "protocol: decode envelope")
	}
	return Envelope{T: e.T, P: e.P, codec: c}, nil
}

func (msgpackCodec) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) decode(p []byte, out any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(p))
	dec.SetCustomStructTag("json")
	return dec.Decode(out)
}
