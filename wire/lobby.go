package wire

import "encoding/binary"

// DefaultPort is the TCP port the relay listens on and the port
// clients dial by default.
const DefaultPort = 5321

// Lobby control opcodes, sent as the first byte of the 5-byte client
// command.
const (
	OpCreateLobby uint8 = 1
	OpJoinLobby   uint8 = 2
)

// CommandSize is the size of the client -> relay lobby command: one
// opcode byte followed by a 4-byte signed little-endian lobby code
// (ignored, sent as zero, for OpCreateLobby).
const CommandSize = 5

// JoinStatus values sent back to a joiner.
const (
	JoinOK      int32 = 200
	JoinUnknown int32 = 400
)

// PeerJoinedSignal is the single byte the relay writes to the host's
// socket once a joiner has been handed off.
const PeerJoinedSignal byte = 0x01

// Command is a decoded client -> relay lobby command.
type Command struct {
	Op   uint8
	Code int32
}

// EncodeCreateCommand returns the 5-byte "create lobby" command.
func EncodeCreateCommand() [CommandSize]byte {
	var buf [CommandSize]byte
	buf[0] = OpCreateLobby
	return buf
}

// EncodeJoinCommand returns the 5-byte "join lobby" command for code.
func EncodeJoinCommand(code int32) [CommandSize]byte {
	var buf [CommandSize]byte
	buf[0] = OpJoinLobby
	binary.LittleEndian.PutUint32(buf[1:5], uint32(code))
	return buf
}

// DecodeCommand parses a 5-byte client command.
func DecodeCommand(buf [CommandSize]byte) Command {
	return Command{
		Op:   buf[0],
		Code: int32(binary.LittleEndian.Uint32(buf[1:5])),
	}
}

// EncodeCode encodes a lobby code as 4 bytes little-endian for the
// create-lobby reply; this is the same layout as the code field of a
// join command.
func EncodeCode(code int32) [4]byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(code))
	return buf
}

// DecodeCode is the inverse of EncodeCode.
func DecodeCode(buf [4]byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf[:]))
}

// EncodeJoinStatus encodes a join status (JoinOK/JoinUnknown) as 4
// bytes little-endian.
func EncodeJoinStatus(status int32) [4]byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(status))
	return buf
}
