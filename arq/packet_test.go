package arq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumIsAdditive(t *testing.T) {
	pkt := dataPacket(3, 'a')
	// 3 + (-1) + 20 bytes of 'a'.
	assert.Equal(t, 3-1+20*int('a'), pkt.Checksum)
	assert.False(t, pkt.Corrupted())
}

func TestChecksumFlagsFieldMutations(t *testing.T) {
	base := dataPacket(5, 'a')

	seqBumped := base
	seqBumped.SeqNum++
	assert.True(t, seqBumped.Corrupted())

	seqBlown := base
	seqBlown.SeqNum = 999999
	assert.True(t, seqBlown.Corrupted())

	ackBlown := base
	ackBlown.AckNum = 999999
	assert.True(t, ackBlown.Corrupted())

	for i := 0; i < PayloadSize; i++ {
		flipped := base
		flipped.Payload[i] ^= 0x01
		assert.True(t, flipped.Corrupted(), "payload byte %d", i)
	}

	overwritten := base
	overwritten.Payload[0] = 'Z'
	assert.True(t, overwritten.Corrupted())
}

func TestAckFrame(t *testing.T) {
	ack := newAck(7)
	assert.Equal(t, NotInUse, ack.SeqNum)
	assert.Equal(t, 7, ack.AckNum)
	assert.Equal(t, payloadOf('0'), ack.Payload)
	assert.False(t, ack.Corrupted())

	tampered := ack
	tampered.AckNum = 8
	assert.True(t, tampered.Corrupted())
}

func TestNewMessagePadsAndTruncates(t *testing.T) {
	short := NewMessage([]byte("hi"))
	assert.Equal(t, byte('h'), short.Data[0])
	assert.Equal(t, byte('i'), short.Data[1])
	for i := 2; i < PayloadSize; i++ {
		assert.Equal(t, byte(0), short.Data[i])
	}

	long := NewMessage([]byte("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, byte('t'), long.Data[PayloadSize-1])
}
