package codec

import (
	"encoding/base64"

	wireform "github.com/wireform/wireform"
)

// Bytes returns a Codec that converts between base64 text and raw byte
// strings, keeping binary fields JSON-compatible.
func Bytes() wireform.Codec[string, []byte] { return bytesCodec{} }

type bytesCodec struct{}

func (bytesCodec) Decode(a string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(a)
	if err != nil {
		return nil, wireform.Issues{{Code: wireform.CodeInvalidFormat, Message: "invalid base64 text", Cause: err}}
	}
	return b, nil
}

func (bytesCodec) Encode(b []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(b), nil
}
