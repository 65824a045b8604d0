// Package whisper runs the whisper.cpp CLI on one prepared audio file and
// turns what it leaves behind into a transcription result.
package whisper

import "time"

// FailedTranscript is returned as the transcript when the engine ran but
// produced no transcript file.
const FailedTranscript = "Transcription failed."

const transcriptExt = ".txt"

// Result is the outcome of one transcription. ProcessingTime is in
// milliseconds and nil when the engine did not report it.
type Result struct {
	Transcript     string    `json:"transcript"`
	ProcessingTime *float64  `json:"processing_time"`
	Timestamp      time.Time `json:"timestamp"`
}

// Invocation is one engine run. The transcript is written next to the input
// so it is cleaned up with the rest of the staged files.
type Invocation struct {
	Executable string
	ModelPath  string
	InputPath  string
	OutputBase string
}

func NewInvocation(executable, modelPath, inputPath string) Invocation {
	return Invocation{
		Executable: executable,
		ModelPath:  modelPath,
		InputPath:  inputPath,
		OutputBase: inputPath,
	}
}

func (i Invocation) Args() []string {
	return []string{"-m", i.ModelPath, "-f", i.InputPath, "-otxt", "-of", i.OutputBase}
}

// TranscriptPath is where the engine writes plain-text output.
func (i Invocation) TranscriptPath() string {
	return i.OutputBase + transcriptExt
}
