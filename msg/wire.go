package msg

import (
	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/value"
	"github.com/tinylib/msgp/msgp"
)

// ToWire serialises m: type tag, name, src, dest list, property tree,
// body buffers, and (for commands/results) cmd_id/seq_id plus result
// fields. Opaque pointers in the property tree are rejected with
// UnserializableProperty rather than silently stripped, since a caller
// relying on round-trip fidelity should see the failure.
func (m Message) ToWire() ([]byte, error) {
	propWire, err := m.c.property.ToWire()
	if err != nil {
		return nil, cmn.NewError(cmn.UnserializableProperty, "%v", err)
	}

	o := msgp.AppendInt8(nil, int8(m.c.mtype))
	o = msgp.AppendString(o, m.c.name)
	o = appendLocation(o, m.c.src)
	o = msgp.AppendArrayHeader(o, uint32(len(m.c.dest)))
	for _, d := range m.c.dest {
		o = appendLocation(o, d)
	}
	o = msgp.AppendBytes(o, propWire)

	if m.c.mtype.IsFrame() {
		f := m.c.frame
		o = msgp.AppendUint32(o, f.SampleRate)
		o = msgp.AppendUint8(o, f.Channels)
		o = msgp.AppendUint8(o, f.BytesPerSmp)
		o = msgp.AppendString(o, f.PixelFormat)
		o = msgp.AppendInt32(o, f.Width)
		o = msgp.AppendInt32(o, f.Height)
		o = msgp.AppendInt64(o, f.Timestamp)
	}

	o = msgp.AppendArrayHeader(o, uint32(len(m.c.buffers)))
	for _, b := range m.c.buffers {
		o = msgp.AppendBytes(o, b.data)
	}

	if m.c.mtype.IsCorrelatable() {
		o = msgp.AppendString(o, m.c.cmdID)
		o = msgp.AppendString(o, m.c.seqID)
	}
	if m.c.result != nil {
		o = msgp.AppendBool(o, true)
		o = msgp.AppendInt(o, m.c.result.StatusCode)
		o = msgp.AppendBool(o, m.c.result.IsFinal)
		o = msgp.AppendString(o, m.c.result.Detail)
		o = msgp.AppendInt8(o, int8(m.c.result.OriginalCmdType))
		o = msgp.AppendString(o, m.c.result.OriginalCmdName)
	} else if m.c.mtype.IsCorrelatable() {
		o = msgp.AppendBool(o, false)
	}
	return o, nil
}

func appendLocation(b []byte, l Location) []byte {
	b = msgp.AppendString(b, l.AppURI)
	b = msgp.AppendString(b, l.GraphID)
	b = msgp.AppendString(b, l.ExtensionGroupName)
	b = msgp.AppendString(b, l.ExtensionName)
	return b
}

func readLocation(b []byte) (Location, []byte, error) {
	var l Location
	var err error
	if l.AppURI, b, err = msgp.ReadStringBytes(b); err != nil {
		return l, nil, err
	}
	if l.GraphID, b, err = msgp.ReadStringBytes(b); err != nil {
		return l, nil, err
	}
	if l.ExtensionGroupName, b, err = msgp.ReadStringBytes(b); err != nil {
		return l, nil, err
	}
	if l.ExtensionName, b, err = msgp.ReadStringBytes(b); err != nil {
		return l, nil, err
	}
	return l, b, nil
}

// FromWire parses the encoding produced by ToWire, rebuilding a fresh
// Message (refcount 1).
func FromWire(data []byte) (Message, error) {
	mtypeRaw, o, err := msgp.ReadInt8Bytes(data)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
	}
	mtype := Type(mtypeRaw)

	name, o, err := msgp.ReadStringBytes(o)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
	}
	src, o, err := readLocation(o)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
	}
	n, o, err := msgp.ReadArrayHeaderBytes(o)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
	}
	dest := make([]Location, n)
	for i := range dest {
		dest[i], o, err = readLocation(o)
		if err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
	}
	propWire, o, err := msgp.ReadBytesBytes(o, nil)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
	}
	prop, err := value.FromWire(propWire)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: bad property tree: %v", err)
	}

	var frame *FrameFields
	if mtype.IsFrame() {
		frame = &FrameFields{}
		if frame.SampleRate, o, err = msgp.ReadUint32Bytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if frame.Channels, o, err = msgp.ReadUint8Bytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if frame.BytesPerSmp, o, err = msgp.ReadUint8Bytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if frame.PixelFormat, o, err = msgp.ReadStringBytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if frame.Width, o, err = msgp.ReadInt32Bytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if frame.Height, o, err = msgp.ReadInt32Bytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if frame.Timestamp, o, err = msgp.ReadInt64Bytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
	}

	nbuf, o, err := msgp.ReadArrayHeaderBytes(o)
	if err != nil {
		return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
	}
	buffers := make([]*Buffer, nbuf)
	for i := range buffers {
		var bts []byte
		bts, o, err = msgp.ReadBytesBytes(o, nil)
		if err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		buffers[i] = NewBuffer(bts)
	}

	c := &core{mtype: mtype, name: name, src: src, dest: dest, property: prop, buffers: buffers}
	c.refc.Store(1)

	if mtype.IsCorrelatable() {
		if c.cmdID, o, err = msgp.ReadStringBytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if c.seqID, o, err = msgp.ReadStringBytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		var hasResult bool
		if hasResult, o, err = msgp.ReadBoolBytes(o); err != nil {
			return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
		}
		if hasResult {
			r := &ResultFields{}
			if r.StatusCode, o, err = msgp.ReadIntBytes(o); err != nil {
				return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
			}
			if r.IsFinal, o, err = msgp.ReadBoolBytes(o); err != nil {
				return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
			}
			if r.Detail, o, err = msgp.ReadStringBytes(o); err != nil {
				return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
			}
			var origType int8
			if origType, o, err = msgp.ReadInt8Bytes(o); err != nil {
				return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
			}
			r.OriginalCmdType = Type(origType)
			if r.OriginalCmdName, o, err = msgp.ReadStringBytes(o); err != nil {
				return Message{}, cmn.NewError(cmn.ProtocolError, "wire: %v", err)
			}
			c.result = r
		}
	}
	_ = o
	c.frame = frame
	return newHandle(c), nil
}
