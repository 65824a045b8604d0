package cli

import (
	"strings"

	"github.com/fmueller/voxd/internal/whisper"
)

// whisper.cpp emits this token for audio without speech.
const blankAudioToken = "[BLANK_AUDIO]"

func isBlankTranscript(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return true
	}

	return strings.EqualFold(trimmed, blankAudioToken)
}

func isFailedTranscript(transcript string) bool {
	return transcript == whisper.FailedTranscript
}

func noSpeechHint() string {
	return "No speech detected. Check that the recording is not silent and the model matches its language."
}
