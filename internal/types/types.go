package types

// TextToImageRequest mirrors the JSON body of POST /text-to-image.
type TextToImageRequest struct {
	Prompt            string  `json:"prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// ChatTurn is one prior exchange replayed before the new message.
type ChatTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// ChatRequest mirrors the JSON body of POST /chat.
type ChatRequest struct {
	Message string     `json:"message"`
	Model   string     `json:"model,omitempty"`
	History []ChatTurn `json:"history,omitempty"`
}

// ArtifactStatus describes one model artifact for GET /model-status.
type ArtifactStatus struct {
	Loaded bool   `json:"loaded"`
	Path   string `json:"path,omitempty"`
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}
