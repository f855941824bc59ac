// Package protocol defines the wire messages of the realtime voice channel.
//
// The channel is a single websocket. The client sends one setup message,
// then realtime audio input and tool responses; the server streams content
// messages carrying transcription text, model audio, turn boundaries, and
// tool calls.
package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	// MimePCMCapture is the declared format of outbound microphone audio.
	MimePCMCapture = "audio/pcm;rate=16000"
	// MimePCMPlayback is the declared format of inbound model audio.
	MimePCMPlayback = "audio/pcm;rate=24000"
)

// Blob is inline binary content in its base64 wire form.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one piece of model or client content.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is an ordered sequence of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Schema describes a tool parameter shape.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// FunctionDeclaration advertises one callable tool to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool groups function declarations.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// PrebuiltVoiceConfig selects a named voice identity.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// VoiceConfig wraps the voice selector.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// SpeechConfig configures audio responses.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// GenerationConfig configures the response channel.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// TranscriptionConfig enables input speech transcription when present.
type TranscriptionConfig struct{}

// Setup is the session configuration sent once at connect time.
type Setup struct {
	Model                   string               `json:"model"`
	GenerationConfig        *GenerationConfig    `json:"generationConfig,omitempty"`
	SystemInstruction       *Content             `json:"systemInstruction,omitempty"`
	Tools                   []Tool               `json:"tools,omitempty"`
	InputAudioTranscription *TranscriptionConfig `json:"inputAudioTranscription,omitempty"`
}

// ClientSetup is the first client frame on the channel.
type ClientSetup struct {
	Setup Setup `json:"setup"`
}

// RealtimeInput carries live media toward the model.
type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks"`
}

// ClientRealtimeInput is an outbound audio-frame message.
type ClientRealtimeInput struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

// AudioFrame builds the outbound message for one encoded capture frame.
func AudioFrame(data string) ClientRealtimeInput {
	return ClientRealtimeInput{
		RealtimeInput: RealtimeInput{
			MediaChunks: []Blob{{MimeType: MimePCMCapture, Data: data}},
		},
	}
}

// FunctionResponse acknowledges one tool invocation, correlated by ID.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ToolResponse groups function responses.
type ToolResponse struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

// ClientToolResponse is an outbound tool acknowledgement message.
type ClientToolResponse struct {
	ToolResponse ToolResponse `json:"toolResponse"`
}

// SetupComplete is the server's acceptance of the setup message.
type SetupComplete struct{}

// Transcription is recognized input speech.
type Transcription struct {
	Text string `json:"text"`
}

// ServerContent is streamed model output and turn signaling. Any combination
// of fields may be present on one message.
type ServerContent struct {
	ModelTurn          *Content       `json:"modelTurn,omitempty"`
	InputTranscription *Transcription `json:"inputTranscription,omitempty"`
	Interrupted        bool           `json:"interrupted,omitempty"`
	TurnComplete       bool           `json:"turnComplete,omitempty"`
}

// FunctionCall is one tool invocation requested by the model.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolCall groups function calls arriving on one message.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// ServerMessage is the inbound frame envelope. Exactly one of the fields is
// normally set, but handling tolerates any combination.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	ToolCall      *ToolCall      `json:"toolCall,omitempty"`
}

// DecodeServerMessage parses one inbound frame.
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode server message: %w", err)
	}
	return &msg, nil
}

// AudioParts returns the inline audio blobs of a content message in arrival
// order.
func (c *ServerContent) AudioParts() []Blob {
	if c == nil || c.ModelTurn == nil {
		return nil
	}
	var blobs []Blob
	for _, part := range c.ModelTurn.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			blobs = append(blobs, *part.InlineData)
		}
	}
	return blobs
}
