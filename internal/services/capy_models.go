package services

import "strings"

// Gateway model identifiers. Different capys run on different LLMs so each
// personality gets a distinct thinking style.
const (
	ModelClaudeOpus = "anthropic/claude-opus-4-6"
	ModelGPT4o      = "openai/gpt-4o"
	ModelGeminiPro  = "google/gemini-pro-1.5"
	ModelDeepSeek   = "deepseek/deepseek-chat"
	ModelDefault    = ModelDeepSeek
)

// selectModelForCapy picks the gateway model for a capy. Total function:
// any input maps to one of the four identifiers.
//
// Priority order, first match wins:
//  1. exact name match (小懒 -> Claude, 小勤 -> GPT-4o)
//  2. name keyword match
//  3. personality match
//  4. default (DeepSeek)
func selectModelForCapy(capyName, capyPersonality string) string {
	if capyName == "小懒" {
		return ModelClaudeOpus
	}
	if capyName == "小勤" {
		return ModelGPT4o
	}

	if capyName != "" {
		nameLower := strings.ToLower(capyName)
		switch {
		case strings.Contains(nameLower, "懒") || strings.Contains(nameLower, "lazy"):
			return ModelClaudeOpus
		case strings.Contains(nameLower, "勤") || strings.Contains(nameLower, "active") ||
			strings.Contains(nameLower, "活") || strings.Contains(nameLower, "diligent"):
			return ModelGPT4o
		case strings.Contains(nameLower, "好奇") || strings.Contains(nameLower, "curious"):
			return ModelGeminiPro
		}
	}

	if capyPersonality != "" {
		personalityLower := strings.ToLower(capyPersonality)
		switch {
		case personalityLower == "lazy" || strings.Contains(personalityLower, "懒"):
			return ModelClaudeOpus
		case personalityLower == "active" || strings.Contains(personalityLower, "活") ||
			strings.Contains(personalityLower, "勤") || strings.Contains(personalityLower, "diligent"):
			return ModelGPT4o
		case personalityLower == "curious" || strings.Contains(personalityLower, "好奇"):
			return ModelGeminiPro
		case personalityLower == "friendly" || personalityLower == "shy" ||
			strings.Contains(personalityLower, "友") || strings.Contains(personalityLower, "羞"):
			return ModelDeepSeek
		}
	}

	return ModelDefault
}
