package llm

// --- Responses API ---

// ResponsesRequest is the Responses API request body.
type ResponsesRequest struct {
	Model  string      `json:"model"`
	Input  []InputItem `json:"input"`
	Stream bool        `json:"stream"`
}

// InputItem is a single item in the Responses API input array.
type InputItem struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ResponsesAPIResponse is the non-streaming Responses API reply.
type ResponsesAPIResponse struct {
	ID         string       `json:"id"`
	Object     string       `json:"object"`
	Status     string       `json:"status"`
	Output     []OutputItem `json:"output"`
	OutputText string       `json:"output_text,omitempty"`
	Model      string       `json:"model,omitempty"`
}

// OutputItem is a single output element.
type OutputItem struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Role    string          `json:"role,omitempty"`
	Content []OutputContent `json:"content"`
}

// OutputContent is a content part in an output item.
type OutputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// --- Chat Completions ---

// ChatRequest is the Chat Completions API request body.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ChatMessage is a single message in the Chat Completions format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the non-streaming Chat Completions response.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}
