package arq

// Payload is the fixed-size application data unit carried by one packet.
type Payload [PayloadSize]byte

// Message is the application-layer unit handed to the sender. Sequencing
// is the sender's business; a message carries data only.
type Message struct {
	Data Payload
}

// NewMessage builds a message from b, truncating anything past
// PayloadSize and zero-padding short input.
func NewMessage(b []byte) Message {
	var m Message
	copy(m.Data[:], b)
	return m
}

// Packet is the protocol data unit exchanged over the channel. Data
// packets carry a valid SeqNum and NotInUse in AckNum; pure ACKs the
// other way around. The on-wire encoding lives in the transport package.
type Packet struct {
	SeqNum   int
	AckNum   int
	Checksum int
	Payload  Payload
}

// ComputeChecksum returns the additive digest over the packet's sequence
// fields and payload. The stored Checksum field takes no part.
func (p Packet) ComputeChecksum() int {
	sum := p.SeqNum + p.AckNum
	for _, b := range p.Payload {
		sum += int(b)
	}
	return sum
}

// Corrupted reports whether the stored checksum disagrees with the packet
// contents.
func (p Packet) Corrupted() bool {
	return p.Checksum != p.ComputeChecksum()
}

// newAck frames the acknowledgment for seq. ACKs carry no application
// data; the payload is '0' filler so the checksum covers known bytes.
func newAck(seq int) Packet {
	pkt := Packet{SeqNum: NotInUse, AckNum: seq}
	for i := range pkt.Payload {
		pkt.Payload[i] = '0'
	}
	pkt.Checksum = pkt.ComputeChecksum()
	return pkt
}
