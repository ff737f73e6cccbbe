package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kassaBack/internal/models"
	"kassaBack/internal/services"
)

// Client is a minimal Telegram Bot API client.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// NewClient constructs a new Bot API client.
func NewClient(httpClient *http.Client, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 65 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		token:      token,
		baseURL:    "https://api.telegram.org",
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram: %s failed: %s", method, apiResp.Description)
	}
	if out != nil {
		return json.Unmarshal(apiResp.Result, out)
	}
	return nil
}

func keyboard(buttons [][]services.Button) map[string]interface{} {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]map[string]string, 0, len(buttons))
	for _, row := range buttons {
		cells := make([]map[string]string, 0, len(row))
		for _, b := range row {
			cell := map[string]string{"text": b.Label}
			if b.URL != "" {
				cell["url"] = b.URL
			} else {
				cell["callback_data"] = b.Action
			}
			cells = append(cells, cell)
		}
		rows = append(rows, cells)
	}
	return map[string]interface{}{"inline_keyboard": rows}
}

// SendMessage delivers a text message with an optional inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]services.Button) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if kb := keyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SendText delivers a plain text message (the scheduler's notifier port).
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.SendMessage(ctx, chatID, text, nil)
}

// SendFile forwards a stored file by its opaque reference, as a photo or a
// document depending on the kind recorded at upload.
func (c *Client) SendFile(ctx context.Context, chatID int64, file models.FileRef, caption string, buttons [][]services.Button) error {
	method := "sendDocument"
	field := "document"
	if file.Kind == models.FileKindPhoto {
		method = "sendPhoto"
		field = "photo"
	}
	payload := map[string]interface{}{
		"chat_id": chatID,
		field:     file.ID,
	}
	if caption != "" {
		payload["caption"] = caption
	}
	if kb := keyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	return c.call(ctx, method, payload, nil)
}

// AnswerCallback acknowledges a button press, optionally with an alert popup.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	payload := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
		payload["show_alert"] = alert
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// GetUpdates long-polls for the next batch of updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":  offset,
		"timeout": int(timeout / time.Second),
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
