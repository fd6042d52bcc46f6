package rpc

import (
	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto"
)

const name = "proto"

// gogoprotoMessage is implemented by gogo-generated messages such as those of
// github.com/pingcap/kvproto. They encode themselves without reflection.
type gogoprotoMessage interface {
	MarshalToSizedBuffer([]byte) (int, error)
	Unmarshal([]byte) error
}

// kvproto generates Size, gogoproto with protosizer_all generates ProtoSize.
type sizer interface {
	Size() int
}

type protoSizer interface {
	ProtoSize() int
}

type codec struct {
	fallback encoding.Codec
}

var _ encoding.Codec = &codec{}

func init() {
	encoding.RegisterCodec(&codec{
		fallback: encoding.GetCodec(name),
	})
}

func messageSize(v interface{}) (int, bool) {
	switch m := v.(type) {
	case protoSizer:
		return m.ProtoSize(), true
	case sizer:
		return m.Size(), true
	default:
		return 0, false
	}
}

func (c *codec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(gogoprotoMessage); ok {
		if size, ok := messageSize(v); ok {
			buf := make([]byte, size)
			n, err := m.MarshalToSizedBuffer(buf)
			if err != nil {
				return nil, err
			}
			return buf[:n], nil
		}
	}
	return c.fallback.Marshal(v)
}

func (c *codec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(gogoprotoMessage); ok {
		return m.Unmarshal(data)
	}
	return c.fallback.Unmarshal(data, v)
}

func (*codec) Name() string {
	return name
}
