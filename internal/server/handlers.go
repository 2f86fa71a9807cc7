package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lingo/internal/task"
)

// apiResponse is the {success, data, message} envelope used by every
// synchronous endpoint.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

type translationRequest struct {
	Text       string `json:"text" binding:"required"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Provider   string `json:"provider"`
}

func (r *translationRequest) normalize() {
	if r.SourceLang == "" {
		r.SourceLang = "auto"
	}
	if r.TargetLang == "" {
		r.TargetLang = "英文"
	}
}

func (r *translationRequest) taskRequest() task.Request {
	return task.Request{
		Kind:       task.KindTranslate,
		Text:       r.Text,
		SourceLang: r.SourceLang,
		TargetLang: r.TargetLang,
		Provider:   r.Provider,
	}
}

type summaryRequest struct {
	Text      string `json:"text" binding:"required"`
	MaxLength int    `json:"max_length"`
	Provider  string `json:"provider"`
}

func (r *summaryRequest) normalize() {
	if r.MaxLength <= 0 {
		r.MaxLength = 200
	}
}

func (r *summaryRequest) taskRequest() task.Request {
	return task.Request{
		Kind:      task.KindSummarize,
		Text:      r.Text,
		MaxLength: r.MaxLength,
		Provider:  r.Provider,
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apiResponse{Success: false, Message: "请求参数无效: " + err.Error()})
}

func (s *Server) handleTranslate(c *gin.Context) {
	var req translationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.normalize()

	result, err := s.orch.RunSync(c.Request.Context(), req.taskRequest())
	if err != nil {
		s.logger.Error("translate: %v", err)
		c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Message: "翻译失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data: gin.H{
			"original_text":   req.Text,
			"translated_text": result,
			"source_lang":     req.SourceLang,
			"target_lang":     req.TargetLang,
		},
		Message: "翻译成功",
	})
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.normalize()

	result, err := s.orch.RunSync(c.Request.Context(), req.taskRequest())
	if err != nil {
		s.logger.Error("summarize: %v", err)
		c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Message: "总结失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data: gin.H{
			"original_text": req.Text,
			"summary":       result,
			"max_length":    req.MaxLength,
		},
		Message: "总结成功",
	})
}

// taskAccepted is the body returned by the async submission endpoints.
type taskAccepted struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) submitTask(c *gin.Context, req task.Request, message string) {
	submitted, err := s.orch.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, task.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, apiResponse{Success: false, Message: "任务队列已满，请稍后重试"})
			return
		}
		s.logger.Error("submit task: %v", err)
		c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Message: "任务提交失败"})
		return
	}

	c.JSON(http.StatusOK, taskAccepted{
		TaskID:  submitted.ID,
		Status:  string(submitted.Status),
		Message: message,
	})
}

func (s *Server) handleTranslateAsync(c *gin.Context) {
	var req translationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.normalize()
	s.submitTask(c, req.taskRequest(), "翻译任务已提交，请使用task_id轮询结果")
}

func (s *Server) handleSummarizeAsync(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.normalize()
	s.submitTask(c, req.taskRequest(), "总结任务已提交，请使用task_id轮询结果")
}

func (s *Server) handleGetTask(c *gin.Context) {
	rec, err := s.orch.Poll(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			c.JSON(http.StatusNotFound, apiResponse{Success: false, Message: "任务不存在"})
			return
		}
		s.logger.Error("poll task: %v", err)
		c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Message: "获取任务状态失败"})
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data:    rec,
		Message: "获取任务状态成功",
	})
}

// functionEntry describes one supported capability.
type functionEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

var supportedFunctions = []functionEntry{
	{ID: "zh_to_en", Name: "中译英", Description: "将中文翻译为英文", Type: "translation"},
	{ID: "en_to_zh", Name: "英译中", Description: "将英文翻译为中文", Type: "translation"},
	{ID: "summarize", Name: "文本总结", Description: "对输入文本进行总结", Type: "summary"},
}

func (s *Server) handleGetFunctions(c *gin.Context) {
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data:    supportedFunctions,
		Message: "获取功能列表成功",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	storeStatus := "connected"
	if err := s.kv.Ping(c.Request.Context()); err != nil {
		storeStatus = "unavailable"
	}

	taskCount, err := s.orch.Count(c.Request.Context())
	if err != nil {
		s.logger.Warn("health: count tasks: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "服务运行正常",
		"store":        s.kv.Name(),
		"store_status": storeStatus,
		"ai_status":    s.aiName,
		"task_count":   taskCount,
	})
}
