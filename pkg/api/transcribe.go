package api

// TranscriptSegment is one diarised slice of a transcription
type TranscriptSegment struct {
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
	Start   float64 `json:"start,omitempty"`
	End     float64 `json:"end,omitempty"`
}

// TranscribeResponse is the result of uploading an audio blob
type TranscribeResponse struct {
	Provider string              `json:"provider"`
	Patient  string              `json:"patient,omitempty"`
	Segments []TranscriptSegment `json:"segments"`
	Error    string              `json:"error,omitempty"`
}
