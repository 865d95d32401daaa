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

// Package encoder dumps the audio/video of a run to disk. Capture
// happens at the frame boundary, where the frame is complete and the
// program is paused, so the dump is frame-exact regardless of how
// slowly the run is being driven.
//
// Video frames are written raw and in sequence to a .video file for a
// downstream muxer. Audio is buffered for the length of the dump and
// written as a WAV file when the dump ends.
package encoder

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stepfault/lockstep/curated"
	"github.com/stepfault/lockstep/logger"
)

// Sentinel error patterns returned by the Encoder type.
const (
	EncoderError = "encoder: %v"
)

// Source is the hosted program's side of an AV dump. Both functions are
// called once per frame boundary while a dump is running.
type Source interface {
	// the raw pixel data of the completed frame
	VideoFrame() []byte

	// the audio samples mixed during the frame
	AudioFrame() []int
}

// Options for a new dump.
type Options struct {
	SampleFreq uint32
	BitDepth   uint32
	NumChans   uint32
}

// Encoder is an open AV dump.
type Encoder struct {
	filename string
	opts     Options

	video  *os.File
	buffer []int

	frames uint64
}

// NewEncoder is the preferred method of initialisation for the Encoder
// type. filename is the stem of the dump; the video stream is written
// to filename.video and the audio to filename.wav.
func NewEncoder(filename string, opts Options) (*Encoder, error) {
	if opts.SampleFreq == 0 {
		opts.SampleFreq = 44100
	}
	if opts.BitDepth == 0 {
		opts.BitDepth = 16
	}
	if opts.NumChans == 0 {
		opts.NumChans = 1
	}

	video, err := os.Create(fmt.Sprintf("%s.video", filename))
	if err != nil {
		return nil, curated.Errorf(EncoderError, err)
	}

	logger.Logf("encoder", "dumping to %s", filename)

	return &Encoder{
		filename: filename,
		opts:     opts,
		video:    video,
	}, nil
}

// Frame captures one frame from the source. Called at the frame
// boundary. Audio is captured every frame; video only on frames that
// draw.
func (enc *Encoder) Frame(src Source, draw bool) error {
	if v := src.VideoFrame(); draw && len(v) > 0 {
		if _, err := enc.video.Write(v); err != nil {
			return curated.Errorf(EncoderError, err)
		}
	}
	enc.buffer = append(enc.buffer, src.AudioFrame()...)
	enc.frames++
	return nil
}

// Frames returns the number of frames captured so far.
func (enc *Encoder) Frames() uint64 {
	return enc.frames
}

// End the dump, flushing the buffered audio to a WAV file.
func (enc *Encoder) End() error {
	err := enc.video.Close()
	if err != nil {
		return curated.Errorf(EncoderError, err)
	}

	f, err := os.Create(fmt.Sprintf("%s.wav", enc.filename))
	if err != nil {
		return curated.Errorf(EncoderError, err)
	}
	defer func() {
		_ = f.Close()
	}()

	wavenc := wav.NewEncoder(f,
		int(enc.opts.SampleFreq),
		int(enc.opts.BitDepth),
		int(enc.opts.NumChans),
		1)

	buf := audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(enc.opts.NumChans),
			SampleRate:  int(enc.opts.SampleFreq),
		},
		Data:           enc.buffer,
		SourceBitDepth: int(enc.opts.BitDepth),
	}

	if err := wavenc.Write(&buf); err != nil {
		return curated.Errorf(EncoderError, err)
	}
	if err := wavenc.Close(); err != nil {
		return curated.Errorf(EncoderError, err)
	}

	logger.Logf("encoder", "dump of %d frames ended", enc.frames)
	return nil
}
