package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioClient exports audioClient for mocks.
type AudioClient = audioClient

// NewTestOpenAIEngine creates an OpenAIEngine backed by a mock client.
func NewTestOpenAIEngine(client audioClient, model string) *OpenAIEngine {
	return &OpenAIEngine{client: client, model: model}
}

// Function exports for unit testing internal logic.
var (
	ClassifyError      = classifyError
	NormalizeLanguage  = normalizeLanguage
	ParseWhisperOutput = parseWhisperOutput
	OutputName         = outputName
)
