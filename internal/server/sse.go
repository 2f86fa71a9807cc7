package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lingo/internal/task"
)

func (s *Server) handleTranslateStream(c *gin.Context) {
	var req translationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.normalize()
	s.logger.Info("stream translate: %s -> %s", req.SourceLang, req.TargetLang)
	s.streamResponse(c, req.taskRequest(), "开始翻译", "翻译完成")
}

func (s *Server) handleSummarizeStream(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.normalize()
	s.logger.Info("stream summarize")
	s.streamResponse(c, req.taskRequest(), "开始总结", "总结完成")
}

// streamResponse delivers fragments as SSE events: one start event, a chunk
// event per fragment, then either a done event carrying the full result or an
// error event if the stream fails mid-way.
func (s *Server) streamResponse(c *gin.Context, req task.Request, startMsg, doneMsg string) {
	fragments, err := s.orch.RunStream(c.Request.Context(), req)
	if err != nil {
		s.logger.Error("open stream: %v", err)
		c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Message: "流式处理失败: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writeEvent(c, gin.H{"type": "start", "message": startMsg})

	var full strings.Builder
	for f := range fragments {
		if f.Err != nil {
			s.logger.Error("stream: %v", f.Err)
			writeEvent(c, gin.H{"type": "error", "message": f.Err.Error()})
			return
		}
		chunk := strings.TrimSpace(f.Content)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		s.metrics.StreamFragment()
		writeEvent(c, gin.H{"type": "chunk", "content": flattenChunk(chunk)})
	}

	writeEvent(c, gin.H{"type": "done", "message": doneMsg, "full_result": full.String()})
}

// flattenChunk removes line breaks so a chunk never spans SSE frames.
func flattenChunk(chunk string) string {
	r := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
	return r.Replace(chunk)
}

func writeEvent(c *gin.Context, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	// Write errors mean the client went away; fragment production stops via
	// request context cancellation.
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}
