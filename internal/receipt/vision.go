package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const visionPrompt = `You read photos of restaurant and shop receipts.
Reply with a single JSON object and nothing else, shaped as:
{"items":[{"name":string,"price":number,"quantity":number,"discount":number}],
 "subtotal":number,"tax":number,"service":number,"discount":number,"total":number,
 "merchant":string,"date":string}
"price" is the unit price. Omit fields you cannot read. Use an empty items list
if the image is not a receipt.`

// VisionReader reads receipts with an OpenAI vision model instead of the
// ShareTab OCR endpoint.
type VisionReader struct {
	client *openai.Client
	model  string
}

func NewVisionReader(client *openai.Client, model string) *VisionReader {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &VisionReader{client: client, model: model}
}

func (v *VisionReader) Read(ctx context.Context, image []byte, filename string) (*Document, error) {
	_, contentType := uploadName(filename)
	if sniffed := http.DetectContentType(image); strings.HasPrefix(sniffed, "image/") {
		contentType = sniffed
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh},
				}},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "vision completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("vision completion returned no choices")
	}

	var doc Document
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &doc); err != nil {
		return nil, errors.Wrap(err, "decode vision receipt")
	}
	return &doc, nil
}
