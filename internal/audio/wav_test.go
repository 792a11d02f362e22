package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestWAVSinkSource_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.wav")

	sink, err := CreateWAV(path, 100000)
	if err != nil {
		t.Fatalf("CreateWAV failed: %v", err)
	}
	codes := make([]uint16, 2500)
	for i := range codes {
		codes[i] = uint16(i * 37 % (ADCMax + 1))
	}
	if err := sink.Write(codes[:1000]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Write(codes[1000:]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if sink.Written() != uint64(len(codes)) {
		t.Errorf("Written() = %d, want %d", sink.Written(), len(codes))
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sink.Write(codes); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Write after Close error = %v, want %v", err, ErrSinkClosed)
	}

	src, err := OpenWAV(path, 256)
	if err != nil {
		t.Fatalf("OpenWAV failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 100000 || src.Channels() != 1 || src.BitDepth() != WAVBitDepth {
		t.Errorf("format = %d Hz, %d ch, %d bit", src.SampleRate(), src.Channels(), src.BitDepth())
	}
	for i, want := range codes {
		got, ok := src.Next()
		if !ok {
			t.Fatalf("Next() ended at %d, want %d samples (err %v)", i, len(codes), src.Err())
		}
		if got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
	if _, ok := src.Next(); ok {
		t.Error("Next() ok past end of file")
	}
	if src.Err() != nil {
		t.Errorf("Err() = %v at clean end of file", src.Err())
	}
	if src.Read() != uint64(len(codes)) {
		t.Errorf("Read() = %d, want %d", src.Read(), len(codes))
	}
}

func TestWAVSource_StereoUsesFirstChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, 48000, 24, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		SourceBitDepth: 24,
		Data:           []int{ADCToPCM(100, 24), -1, ADCToPCM(4000, 24), -1, ADCToPCM(2048, 24), -1},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	_ = f.Close()

	src, err := OpenWAV(path, 2)
	if err != nil {
		t.Fatalf("OpenWAV failed: %v", err)
	}
	defer src.Close()

	for _, want := range []uint16{100, 4000, 2048} {
		got, ok := src.Next()
		if !ok || got != want {
			t.Errorf("Next() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := src.Next(); ok {
		t.Error("Next() ok past end of file")
	}
}

func TestOpenWAV_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenWAV(filepath.Join(dir, "missing.wav"), 16); err == nil {
		t.Error("OpenWAV(missing) succeeded")
	}

	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("definitely not RIFF data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenWAV(junk, 16); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("OpenWAV(junk) error = %v, want %v", err, ErrInvalidWAV)
	}
}
