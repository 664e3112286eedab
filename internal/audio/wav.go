package audio

import (
	"bytes"
	"encoding/binary"
)

// Sample rates used across the pipeline: telephony audio arrives as 8 kHz
// G.711 mu-law, transcription services receive 16 kHz linear PCM.
const (
	TelephonySampleRate  = 8000
	TranscribeSampleRate = 16000
)

// NewWAVBuffer wraps raw 16-bit little-endian mono PCM in a minimal WAV
// container so HTTP transcription services accept it as a file upload.
func NewWAVBuffer(pcm []byte, sampleRate int) *bytes.Buffer {
	buf := new(bytes.Buffer)
	dataLen := len(pcm)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf
}
