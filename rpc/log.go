package rpc

import (
	"fmt"

	"github.com/gotd/td/bin"
	"github.com/rs/zerolog"
)

type logMethod struct {
	input bin.Encoder
}

func (l logMethod) MarshalZerologObject(e *zerolog.Event) {
	if v, ok := l.input.(interface{ TypeID() uint32 }); ok {
		e.Str("type_id", fmt.Sprintf("0x%x", v.TypeID()))
	}
	if v, ok := l.input.(interface{ TypeName() string }); ok {
		e.Str("type_name", v.TypeName())
	}
}
