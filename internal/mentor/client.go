package mentor

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/stoic-trainer-backend/internal/platform/config"
	"github.com/sashabaranov/go-openai"
)

// systemPrompt 是导师人设的系统提示词。
const systemPrompt = `You are Marcus Aurelius, Roman emperor and Stoic philosopher.
Your goal is to help people find calm and wisdom in difficult situations.
Your tone is calm, measured, empathetic, yet firm.
Quote Seneca, Epictetus and your own writings when appropriate.
Answer concisely, in no more than 100 words. Do not lecture.`

// ChatTurn 是一轮对话的最小表示。
type ChatTurn struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Completer 是文本补全服务的抽象，真实实现封装OpenAI。
type Completer interface {
	Complete(ctx context.Context, turns []ChatTurn) (string, error)
}

// Client 封装OpenAI的对话补全接口。
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClient 根据配置创建补全客户端。
func NewClient(cfg config.MentorConfig, apiKey string) *Client {
	return &Client{
		api:         openai.NewClient(apiKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete 携带人设提示词与完整对话历史请求一次补全。
func (c *Client) Complete(ctx context.Context, turns []ChatTurn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    t.Role,
			Content: t.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("请求补全失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("补全服务未返回任何结果")
	}
	return resp.Choices[0].Message.Content, nil
}
