package narration

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hydraskript-api/internal/config"
	apperrors "hydraskript-api/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubSynth struct {
	text  string
	voice string
	pcm   []byte
	err   error
	calls int
}

func (s *stubSynth) SynthesizeSpeech(_ context.Context, text, voice string) ([]byte, error) {
	s.calls++
	s.text, s.voice = text, voice
	return s.pcm, s.err
}

func TestParseVoice(t *testing.T) {
	v, err := ParseVoice("")
	require.NoError(t, err)
	assert.Equal(t, "Kore", v)

	v, err = ParseVoice("zephyr")
	require.NoError(t, err)
	assert.Equal(t, "Zephyr", v)

	_, err = ParseVoice("Alloy")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
}

func TestLoadSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.Features.Narration.MaxSourceBytes = 16
	studio := NewStudio(cfg, &stubSynth{})

	text, err := studio.LoadSource("chapter.txt", strings.NewReader("Once upon."))
	require.NoError(t, err)
	assert.Equal(t, "Once upon.", text)

	_, err = studio.LoadSource("chapter.txt", strings.NewReader(strings.Repeat("a", 17)))
	assert.True(t, apperrors.Is(err, apperrors.CodeInputTooLarge))

	_, err = studio.LoadSource("chapter.docx", strings.NewReader("x"))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))

	_, err = studio.LoadSource("chapter.pdf", strings.NewReader("not a pdf"))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
}

func TestNarrateTruncatesAndWrapsWAV(t *testing.T) {
	synth := &stubSynth{pcm: []byte{1, 2, 3, 4}}
	studio := NewStudio(nil, synth)

	audio, err := studio.Narrate(context.Background(), strings.Repeat("ö", 1200), "puck")
	require.NoError(t, err)
	assert.True(t, audio.Truncated)
	assert.Equal(t, "Puck", synth.voice)
	assert.Equal(t, strings.Repeat("ö", 1000)+"...", synth.text)
	assert.Equal(t, "audiobook_chapter.wav", audio.Filename)
	require.Len(t, audio.WAV, 48)
	assert.Equal(t, []byte{1, 2, 3, 4}, audio.WAV[44:])

	short, err := studio.Narrate(context.Background(), "  Hello.  ", "")
	require.NoError(t, err)
	assert.False(t, short.Truncated)
	assert.Equal(t, "Hello.", synth.text)
	assert.Equal(t, "Kore", short.Voice)
}

func TestNarrateErrors(t *testing.T) {
	ctx := context.Background()

	synth := &stubSynth{}
	_, err := NewStudio(nil, synth).Narrate(ctx, "   ", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	assert.Zero(t, synth.calls)

	_, err = NewStudio(nil, synth).Narrate(ctx, "text", "Nova")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	assert.Zero(t, synth.calls)

	_, err = NewStudio(nil, &stubSynth{}).Narrate(ctx, "text", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeNoAudioData))

	_, err = NewStudio(nil, &stubSynth{err: apperrors.ErrAuthFailure}).Narrate(ctx, "text", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthFailure))
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 480)
	wav := EncodeWAV(pcm, 24000)
	require.Len(t, wav, 44+480)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+480), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(480), binary.LittleEndian.Uint32(wav[40:44]))

	assert.True(t, bytes.Equal(wav, EncodeWAV(wav, 24000)), "already wrapped audio is returned as is")
}
