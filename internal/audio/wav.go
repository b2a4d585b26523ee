package audio

import (
	"encoding/binary"
	"errors"
)

var ErrNotWAV = errors.New("not a valid WAV file")

// ExtractPCM strips the WAV/RIFF container and returns raw PCM16LE data.
// Input that does not start with a RIFF header is assumed to be raw PCM
// already and is returned unchanged.
func ExtractPCM(data []byte) ([]byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" {
		return data, nil
	}
	if string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	// Walk chunks to find "data".
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))

		if chunkID == "data" {
			start := pos + 8
			end := start + chunkSize
			if end > len(data) {
				end = len(data)
			}
			return data[start:end], nil
		}

		pos += 8 + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}
	return nil, errors.New("data chunk not found in WAV")
}
