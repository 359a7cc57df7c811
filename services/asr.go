package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"learnhub-platform/internal/logger"
)

// WhisperASR transcribes a video's audio by downloading it with yt-dlp and
// running a whisper wrapper script as a subprocess. The script receives the
// audio path as its only argument and prints the transcript to stdout.
type WhisperASR struct {
	ytdlpPath  string
	scriptPath string
	workDir    string
}

func NewWhisperASR(ytdlpPath, scriptPath, workDir string) *WhisperASR {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &WhisperASR{ytdlpPath: ytdlpPath, scriptPath: scriptPath, workDir: workDir}
}

// Transcribe downloads the audio into a per-call temp directory, runs the
// transcription script over it, and returns the captured stdout. The temp
// directory is removed whether or not transcription succeeds.
func (w *WhisperASR) Transcribe(ctx context.Context, videoID string) (string, error) {
	tmpDir, err := os.MkdirTemp(w.workDir, "lesson-audio-")
	if err != nil {
		return "", fmt.Errorf("create audio work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("Failed to remove audio work dir", "dir", tmpDir, "error", err)
		}
	}()

	audioPath := filepath.Join(tmpDir, videoID+".mp3")
	if err := w.downloadAudio(ctx, videoID, audioPath); err != nil {
		return "", err
	}

	return w.runTranscription(ctx, audioPath)
}

func (w *WhisperASR) downloadAudio(ctx context.Context, videoID, audioPath string) error {
	url := "https://www.youtube.com/watch?v=" + videoID

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.ytdlpPath,
		"-x", "--audio-format", "mp3",
		"-o", audioPath,
		"--no-playlist",
		url,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp download for %s: %w (%s)", videoID, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (w *WhisperASR) runTranscription(ctx context.Context, audioPath string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "python3", w.scriptPath, audioPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper transcription: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", fmt.Errorf("whisper transcription: empty output")
	}
	return text, nil
}
