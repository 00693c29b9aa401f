package serviceinfo

// Metadata captures static identifiers for the service. Centralising the
// values makes it easy to clone this repository for new runtimes.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
}

// Info describes the current service.
var Info = Metadata{
	Name:        "Whisper Runtime",
	BinaryName:  "whisperd",
	Slug:        "whisper-runtime",
	Description: "Session layer and streaming service over a local Whisper engine.",
	GeneratorID: "whisper-runtime",
}

// TranscriptMetadata produces the standard metadata payload attached to
// emitted transcripts.
func TranscriptMetadata(modelPath, language string) map[string]string {
	return map[string]string{
		"generator": Info.GeneratorID,
		"model":     modelPath,
		"language":  language,
	}
}
