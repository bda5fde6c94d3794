package codec

import (
	"github.com/google/uuid"

	wireform "github.com/wireform/wireform"
)

// UUID returns a Codec that converts between canonical UUID text and
// uuid.UUID values.
func UUID() wireform.Codec[string, uuid.UUID] { return uuidCodec{} }

type uuidCodec struct{}

func (uuidCodec) Decode(a string) (uuid.UUID, error) {
	id, err := uuid.Parse(a)
	if err != nil {
		return uuid.UUID{}, wireform.Issues{{Code: wireform.CodeInvalidFormat, Message: "invalid UUID text", Cause: err}}
	}
	return id, nil
}

func (uuidCodec) Encode(id uuid.UUID) (string, error) {
	return id.String(), nil
}
