// Package transport carries a Selective-Repeat session over real UDP
// sockets: a fixed binary packet encoding, a wall-clock retransmission
// timer, endpoint wrappers that own the socket goroutines, and Prometheus
// metrics over the protocol counters.
package transport

import (
	"encoding/binary"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

var log = logging.Logger("transport")

// PacketSize is the exact length of an encoded packet.
const PacketSize = 12 + arq.PayloadSize

// Encoded packet layout, big endian. The sequence fields ride as int32 so
// the NotInUse marker keeps its sign across the wire.
//
//  0                   1                   2                   3
//  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                             SeqNum                            |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                             AckNum                            |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                            Checksum                           |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                                                               |
// +                                                               +
// |                       Payload (20 bytes)                      |
// +                                                               +
// |                                                               |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

// MarshalPacket encodes pkt into a fresh PacketSize buffer.
func MarshalPacket(pkt arq.Packet) []byte {
	buf := make([]byte, PacketSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(int32(pkt.SeqNum)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(int32(pkt.AckNum)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(int32(pkt.Checksum)))
	copy(buf[12:], pkt.Payload[:])
	return buf
}

// UnmarshalPacket decodes one datagram. Anything but an exact PacketSize
// buffer is rejected; checksum verification stays with the protocol core.
func UnmarshalPacket(buf []byte) (arq.Packet, error) {
	if len(buf) != PacketSize {
		return arq.Packet{}, errors.Errorf("packet must be %d bytes, got %d", PacketSize, len(buf))
	}
	var pkt arq.Packet
	pkt.SeqNum = int(int32(binary.BigEndian.Uint32(buf[0:4])))
	pkt.AckNum = int(int32(binary.BigEndian.Uint32(buf[4:8])))
	pkt.Checksum = int(int32(binary.BigEndian.Uint32(buf[8:12])))
	copy(pkt.Payload[:], buf[12:])
	return pkt, nil
}
