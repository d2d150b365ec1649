package analyzer

import (
	"encoding/json"

	"github.com/BerylCAtieno/document-assistant/internal/models"
)

const analysisPrompt = `Analise o conteúdo do(s) documento(s) a seguir e devolva as informações em formato JSON.
1. **tipo_documento**: o tipo do documento (ex: 'CONTRATO', 'NOTA_FISCAL', 'FOTO_PAISAGEM', 'GRAFICO', 'IDENTIDADE').
2. **titulo_resumido**: um título curto e descritivo (ex: 'Contrato de Aluguel', 'Conta de Energia'). Máximo de 5 palavras.
3. **detalhe_principal**: o nome da pessoa ou empresa principal do documento (partes, reclamante/reclamado, exequente/executado, etc.). Se não houver, o endereço principal. Este detalhe será usado no nome do ficheiro.
4. **descricao**: uma breve descrição do conteúdo. Se houver texto, resuma as informações mais importantes; se for uma imagem sem texto, descreva a cena. Máximo de 50 palavras.
Responda APENAS com o objeto JSON. Não inclua texto explicativo, a palavra 'json' nem ` + "```" + `. A resposta deve começar com { e terminar com }.`

const contentDelimiter = "\n\n--- CONTEÚDO PARA ANÁLISE ---\n"

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type ChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is sent as a plain string unless Parts is set.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// BuildPayload assembles the chat completion request for one candidate model.
func BuildPayload(model string, content *models.ExtractedContent, maxTokens int) ChatRequest {
	var msg MessageContent

	if content.IsImageSet() {
		parts := make([]ContentPart, 0, len(content.Images)+1)
		parts = append(parts, ContentPart{Type: "text", Text: analysisPrompt})
		for _, img := range content.Images {
			parts = append(parts, ContentPart{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + img},
			})
		}
		msg.Parts = parts
	} else {
		msg.Text = analysisPrompt + contentDelimiter + content.Text
	}

	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "user", Content: msg},
		},
		MaxTokens: maxTokens,
	}
}
