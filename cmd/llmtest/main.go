package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/dentalstack/intake-platform/internal/assist"
)

// llmtest sends one intake-shaped conversation to each configured provider
// so credentials and model IDs can be verified before starting the server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	messages := []assist.ChatMessage{
		{Role: assist.ChatRoleUser, Content: "Hi, my tooth has been hurting for three days and it's getting worse."},
		{Role: assist.ChatRoleAssistant, Content: "I'm sorry to hear that. Is the pain sharp or dull, and does anything make it worse?"},
		{Role: assist.ChatRoleUser, Content: "Sharp, especially when I drink something cold. My gum is also a bit swollen."},
	}

	req := assist.LLMRequest{
		System:      []string{"You are a dental intake assistant. Keep responses brief and ask one question at a time."},
		Messages:    messages,
		MaxTokens:   200,
		Temperature: 0.7,
	}

	divider := strings.Repeat("=", 60)
	fmt.Println(divider)
	fmt.Println("LLM Provider Test")
	fmt.Println(divider)

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey != "" {
		fmt.Println("\n[1] Testing Gemini...")
		client, err := assist.NewGeminiLLMClient(ctx, geminiKey, os.Getenv("GEMINI_MODEL_ID"))
		if err != nil {
			fmt.Printf("    gemini client: %v\n", err)
		} else {
			runRequest(ctx, client, req)
		}
	} else {
		fmt.Println("\n[1] Skipping Gemini (GEMINI_API_KEY not set)")
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey != "" {
		fmt.Println("\n[2] Testing OpenAI...")
		client, err := assist.NewOpenAILLMClient(openaiKey, os.Getenv("OPENAI_MODEL_ID"))
		if err != nil {
			fmt.Printf("    openai client: %v\n", err)
		} else {
			runRequest(ctx, client, req)
		}
	} else {
		fmt.Println("\n[2] Skipping OpenAI (OPENAI_API_KEY not set)")
	}

	fmt.Println("\n[3] Skipping direct Bedrock test (verified via the full app's AWS config)")

	fmt.Println("\n" + divider)
	fmt.Println("If a provider responded above, it is ready to serve intake turns.")
}

func runRequest(ctx context.Context, client assist.LLMClient, req assist.LLMRequest) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("    error: %v\n", err)
		return
	}
	fmt.Printf("    response (%v):\n", elapsed.Round(time.Millisecond))
	fmt.Printf("    %s\n", resp.Text)
	fmt.Printf("    tokens: in=%d, out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
}
