package server

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
)

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	bp = strings.TrimRight(bp, "/")
	return bp
}

// isSafeName validates user-supplied identifiers used as storage keys.
// Allowed characters: A-Z a-z 0-9 . _ - and no consecutive dots forming "..".
func isSafeName(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			continue
		}
		return false
	}
	if strings.ContainsAny(s, "/\\") {
		return false
	}
	return true
}

func writeJSON(c *gin.Context, code int, v any) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	_ = json.NewEncoder(c.Writer).Encode(v)
}

// streamChunk is one NDJSON line of the chat stream.
type streamChunk struct {
	Chunk string `json:"chunk,omitempty"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func writeChunk(c *gin.Context, chunk string, done bool) {
	_ = json.NewEncoder(c.Writer).Encode(streamChunk{Chunk: chunk, Done: done})
}

func writeChunkError(c *gin.Context, err error) {
	_ = json.NewEncoder(c.Writer).Encode(streamChunk{Done: true, Error: err.Error()})
}
