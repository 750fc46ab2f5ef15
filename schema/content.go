package schema

// ContentType discriminates the tagged-union ContentBlock.
type ContentType string

const (
	ContentText        ContentType = "text"
	ContentThinking    ContentType = "thinking"
	ContentToolUse     ContentType = "tool_use"
	ContentToolResult  ContentType = "tool_result"
	ContentImage       ContentType = "image"
	ContentAudio       ContentType = "audio"
	ContentVideo       ContentType = "video"
	ContentControl     ContentType = "control"
)

// ContentBlock is a tagged union of message content. Exactly one of the
// payload fields is populated, matching Type.
type ContentBlock struct {
	Type ContentType `json:"type"`

	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`

	Media   *MediaSource `json:"media,omitempty"`
	Control *Control     `json:"control,omitempty"`
}

// MediaSourceKind identifies how media content is carried.
type MediaSourceKind string

const (
	MediaURL    MediaSourceKind = "url"
	MediaBase64 MediaSourceKind = "base64"
	MediaRawPCM MediaSourceKind = "raw_pcm"
)

// MediaSource describes an image/audio/video reference.
type MediaSource struct {
	Kind     MediaSourceKind `json:"kind"`
	URL      string          `json:"url,omitempty"`
	Data     string          `json:"data,omitempty"` // base64 payload
	MimeType string          `json:"mime_type,omitempty"`
	// SampleRate/Channels apply only to MediaRawPCM.
	SampleRate int `json:"sample_rate,omitempty"`
	Channels   int `json:"channels,omitempty"`
}

// ControlKind identifies a live-session control signal.
type ControlKind string

const (
	ControlCommit         ControlKind = "commit"
	ControlInterrupt      ControlKind = "interrupt"
	ControlClear          ControlKind = "clear"
	ControlCreateResponse ControlKind = "create_response"
)

// Control carries a live-session control signal. The offline ReAct loop
// does not act on these; memory passes them through unchanged.
type Control struct {
	Kind   ControlKind    `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// ToolUse is one tool invocation proposed by the model. ID is unique
// within the message that carries it.
type ToolUse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// ToolResult is the outcome for a ToolUse with the same ID. Output is
// itself a list of blocks so a tool can stream text, images, etc.
type ToolResult struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Output      []ContentBlock `json:"output,omitempty"`
	IsError     bool           `json:"is_error,omitempty"`
	Interrupted bool           `json:"interrupted,omitempty"`
}

// Text returns the concatenated TextBlock content of a ToolResult's output.
func (r ToolResult) Text() string {
	var out string
	for _, b := range r.Output {
		if b.Type == ContentText {
			out += b.Text
		}
	}
	return out
}

// --- Block constructors ---

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

func ThinkingBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentThinking, Thinking: text}
}

func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: ContentToolUse, ToolUse: &ToolUse{ID: id, Name: name, Input: input}}
}

func ToolResultBlock(result ToolResult) ContentBlock {
	return ContentBlock{Type: ContentToolResult, ToolResult: &result}
}

// ErrorToolResult builds a terminal error ToolResult carrying a single
// TextBlock description, per spec: "the error does not abort the agent
// loop unless it is an interruption."
func ErrorToolResult(id, name, message string) ToolResult {
	return ToolResult{ID: id, Name: name, Output: []ContentBlock{TextBlock(message)}, IsError: true}
}

// InterruptedToolResult synthesizes the reconciliation result appended
// for a tool-use that never completed because the call was interrupted.
func InterruptedToolResult(id, name string) ToolResult {
	return ToolResult{
		ID:          id,
		Name:        name,
		Output:      []ContentBlock{TextBlock("Tool execution interrupted")},
		Interrupted: true,
	}
}

func ImageBlock(src MediaSource) ContentBlock {
	return ContentBlock{Type: ContentImage, Media: &src}
}

func AudioBlock(src MediaSource) ContentBlock {
	return ContentBlock{Type: ContentAudio, Media: &src}
}

func VideoBlock(src MediaSource) ContentBlock {
	return ContentBlock{Type: ContentVideo, Media: &src}
}

func ControlBlock(kind ControlKind, params map[string]any) ContentBlock {
	return ContentBlock{Type: ContentControl, Control: &Control{Kind: kind, Params: params}}
}
