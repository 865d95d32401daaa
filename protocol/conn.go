// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

package protocol

import (
	"encoding/binary"
	"io"

	"github.com/stepfault/lockstep/curated"
)

// ChannelError is the pattern of every error returned by Conn. A failed
// channel is not retried; the peer is assumed to have exited.
const ChannelError = "protocol: channel: %v"

// limit on the length of a received string. a length prefix beyond this
// means the two sides have lost tag/payload alignment.
const maxStringLength = 1 << 20

// Conn sends and receives control channel messages over an in-order,
// reliable byte stream. Conn performs no internal locking: each side of
// the protocol is driven by a single thread by construction.
type Conn struct {
	rw io.ReadWriter
}

// NewConn is the preferred method of initialisation for the Conn type.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// SendTag writes a message tag.
func (c *Conn) SendTag(t Tag) error {
	err := binary.Write(c.rw, binary.LittleEndian, uint32(t))
	if err != nil {
		return curated.Errorf(ChannelError, err)
	}
	return nil
}

// RecvTag reads the next message tag.
func (c *Conn) RecvTag() (Tag, error) {
	var t uint32
	err := binary.Read(c.rw, binary.LittleEndian, &t)
	if err != nil {
		return 0, curated.Errorf(ChannelError, err)
	}
	return Tag(t), nil
}

// SendData writes a fixed-size payload. The value must be a fixed-size
// type as understood by the binary package.
func (c *Conn) SendData(v interface{}) error {
	err := binary.Write(c.rw, binary.LittleEndian, v)
	if err != nil {
		return curated.Errorf(ChannelError, err)
	}
	return nil
}

// RecvData reads a fixed-size payload into v, which must be a pointer to
// a fixed-size type as understood by the binary package.
func (c *Conn) RecvData(v interface{}) error {
	err := binary.Read(c.rw, binary.LittleEndian, v)
	if err != nil {
		return curated.Errorf(ChannelError, err)
	}
	return nil
}

// SendString writes a length-prefixed string payload.
func (c *Conn) SendString(s string) error {
	err := binary.Write(c.rw, binary.LittleEndian, uint32(len(s)))
	if err != nil {
		return curated.Errorf(ChannelError, err)
	}
	_, err = io.WriteString(c.rw, s)
	if err != nil {
		return curated.Errorf(ChannelError, err)
	}
	return nil
}

// RecvString reads a length-prefixed string payload.
func (c *Conn) RecvString() (string, error) {
	var l uint32
	err := binary.Read(c.rw, binary.LittleEndian, &l)
	if err != nil {
		return "", curated.Errorf(ChannelError, err)
	}
	if l > maxStringLength {
		return "", curated.Errorf(ChannelError, "string payload too long")
	}
	b := make([]byte, l)
	_, err = io.ReadFull(c.rw, b)
	if err != nil {
		return "", curated.Errorf(ChannelError, err)
	}
	return string(b), nil
}
