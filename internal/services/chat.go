package services

import (
	"context"
	"fmt"

	"layeredge/internal/interfaces"
	"layeredge/internal/models"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const chatSystemPrompt = `You are the LayerEdge community assistant. Answer questions about submitting tweets, earning points, quests and the leaderboard. Be concise and friendly. Submission points are %d base plus %d per like, %d per retweet and %d per reply.`

// ServiceChat is the LLM-backed helper behind the community chat box.
type ServiceChat struct {
	container *do.Injector
	llm       llms.LLM
	limiter   interfaces.Limiter
}

func NewServiceChat(container *do.Injector) (*ServiceChat, error) {
	llm, err := openai.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI: %w", err)
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	return &ServiceChat{container, llm, limiter}, nil
}

func (service *ServiceChat) Ask(ctx context.Context, user *models.User, question string) (string, error) {
	if question == "" {
		return "", errorx.Wrap(fmt.Errorf("empty question"), errorx.Validation)
	}

	err := service.limiter.Allow(ctx, LimitKeyChat(user.ID), redis_rate.PerMinute(CHAT_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		return "", errorx.Wrap(err, errorx.RateLimiting)
	}

	system := fmt.Sprintf(chatSystemPrompt, BASE_SUBMISSION_POINTS, POINTS_PER_LIKE, POINTS_PER_RETWEET, POINTS_PER_REPLY)
	prompt := fmt.Sprintf("%s\n\nUser question: %s", system, question)

	answer, err := service.llm.Call(ctx, prompt,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(500),
	)
	if err != nil {
		return "", errorx.Wrap(err, errorx.Service)
	}

	return answer, nil
}
