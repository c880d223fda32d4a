package domain

// ConversionForm holds the raw multipart fields of a conversion request before validation.
type ConversionForm struct {
	MagicKey string
	Width    string
	Upscale  string
	Image    []byte
	// ImageIsText is set when the image field was sent as a plain form value instead of a file part.
	ImageIsText bool
}

// UpscaleFlag is the literal form value that enables remote upscaling.
const UpscaleFlag = "upscale"

type ConversionRequest struct {
	Image       []byte
	TargetWidth int
	Upscale     bool
}

// ConversionResult carries the encoded variants. Upscaled is nil unless upscaling was requested and succeeded.
type ConversionResult struct {
	Original []byte
	Resized  []byte
	Upscaled []byte
}

// Quality holds the lossy encoder quality for each produced variant.
type Quality struct {
	Original int
	Resized  int
	Upscaled int
}

// UpscaleScale is the fixed factor requested from the remote upscaling model.
const UpscaleScale = 4

type Stage string

const (
	StageValidating        Stage = "validating"
	StageConvertingBase    Stage = "converting_base"
	StageConvertingResized Stage = "converting_resized"
	StageRemoteUpscaling   Stage = "remote_upscaling"
	StageSuccess           Stage = "success"
)

type Message struct {
	ID       int
	ChatID   int64
	Username string
	ImageURL string
	Text     string
}

type Action string

const (
	Typing          Action = "typing"
	SendingDocument Action = "upload_document"
)
