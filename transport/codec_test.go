package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

func TestPacketRoundTrip(t *testing.T) {
	data := arq.Packet{SeqNum: 5, AckNum: arq.NotInUse}
	copy(data.Payload[:], "twenty byte payload!")
	data.Checksum = data.ComputeChecksum()

	ack := arq.Packet{SeqNum: arq.NotInUse, AckNum: 11}
	for i := range ack.Payload {
		ack.Payload[i] = '0'
	}
	ack.Checksum = ack.ComputeChecksum()

	negative := arq.Packet{SeqNum: arq.NotInUse, AckNum: arq.NotInUse, Checksum: -2}

	for _, pkt := range []arq.Packet{data, ack, negative} {
		buf := MarshalPacket(pkt)
		require.Len(t, buf, PacketSize)
		out, err := UnmarshalPacket(buf)
		require.NoError(t, err)
		assert.Equal(t, pkt, out)
		assert.Equal(t, pkt.Corrupted(), out.Corrupted())
	}
}

func TestMarshalGoldenBytes(t *testing.T) {
	pkt := arq.Packet{SeqNum: 1, AckNum: -1, Checksum: 258}
	for i := range pkt.Payload {
		pkt.Payload[i] = 'a'
	}

	want := []byte{
		0x00, 0x00, 0x00, 0x01,
		0xff, 0xff, 0xff, 0xff,
		0x00, 0x00, 0x01, 0x02,
	}
	for i := 0; i < arq.PayloadSize; i++ {
		want = append(want, 'a')
	}
	assert.Equal(t, want, MarshalPacket(pkt))
}

func TestUnmarshalRejectsWrongLength(t *testing.T) {
	_, err := UnmarshalPacket(make([]byte, PacketSize-1))
	assert.Error(t, err)
	_, err = UnmarshalPacket(make([]byte, PacketSize+1))
	assert.Error(t, err)
	_, err = UnmarshalPacket(nil)
	assert.Error(t, err)
}
