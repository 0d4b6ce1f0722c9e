package speech

import (
	"encoding/binary"

	"github.com/go-audio/audio"
)

// PCMBuffer decodes 16-bit little-endian mono PCM into an IntBuffer.
func PCMBuffer(pcm []byte, sampleRate int) *audio.IntBuffer {
	data := make([]int, len(pcm)/2)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
}

// Float32Samples scales buf into [-1, 1].
func Float32Samples(buf *audio.IntBuffer) []float32 {
	scale := float32(audio.IntMaxSignedValue(buf.SourceBitDepth))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	return out
}

// encodePCM packs samples as 16-bit little-endian PCM.
func encodePCM(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}
