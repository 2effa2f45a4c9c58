package media

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

const (
	defaultPCMRate     = 24000
	defaultPCMChannels = 1
	pcmBitsPerSample   = 16
)

// IsRawPCM reports whether mimeType describes headerless linear PCM, which
// browsers and players cannot replay without a container.
func IsRawPCM(mimeType string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	return base == "audio/l16" || base == "audio/pcm"
}

// PCMParams extracts the sample rate and channel count from a MIME type such
// as "audio/L16;codec=pcm;rate=24000", falling back to 24 kHz mono.
func PCMParams(mimeType string) (rate, channels int) {
	rate, channels = defaultPCMRate, defaultPCMChannels
	for _, param := range strings.Split(mimeType, ";")[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(key) {
		case "rate":
			rate = n
		case "channels":
			channels = n
		}
	}
	return rate, channels
}

// WrapPCM prefixes little-endian 16-bit PCM samples with a RIFF/WAVE header.
func WrapPCM(pcm []byte, rate, channels int) []byte {
	blockAlign := channels * pcmBitsPerSample / 8
	byteRate := rate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmBitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
