package domain

import (
	"encoding/base64"
	"fmt"
)

const WebPMimeType = "image/webp"

// DataURI embeds data as a base64 data URI with the given mime type.
func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
