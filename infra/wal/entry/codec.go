package entry

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Command payloads are hand-framed protobuf. Field numbers are part of
// the on-disk format and must never be reused:
//
//	PlaceCommand  1=order_id(varint) 2=side(varint) 3=price(sint64) 4=qty(sint64)
//	CancelCommand 1=order_id(varint)

type PlaceCommand struct {
	OrderID uint64
	Side    uint8
	Price   int64
	Qty     int64
}

type CancelCommand struct {
	OrderID uint64
}

func (c PlaceCommand) Encode() []byte {
	b := make([]byte, 0, 32)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, c.OrderID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Side))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(c.Price))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(c.Qty))
	return b
}

func DecodePlace(b []byte) (PlaceCommand, error) {
	var c PlaceCommand
	err := consumeFields(b, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			c.OrderID = v
		case 2:
			c.Side = uint8(v)
		case 3:
			c.Price = protowire.DecodeZigZag(v)
		case 4:
			c.Qty = protowire.DecodeZigZag(v)
		}
	})
	return c, err
}

func (c CancelCommand) Encode() []byte {
	b := make([]byte, 0, 12)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, c.OrderID)
	return b
}

func DecodeCancel(b []byte) (CancelCommand, error) {
	var c CancelCommand
	err := consumeFields(b, func(num protowire.Number, v uint64) {
		if num == 1 {
			c.OrderID = v
		}
	})
	return c, err
}

// consumeFields walks varint fields, skipping anything of another wire
// type so old readers tolerate payloads from newer writers.
func consumeFields(b []byte, fn func(protowire.Number, uint64)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("malformed tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return fmt.Errorf("malformed varint in field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		fn(num, v)
	}
	return nil
}
